package lobby

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/oblech/internal/bot"
	"github.com/lox/oblech/internal/randutil"
	"github.com/lox/oblech/internal/round"
)

// Defaults for lobby timing and limits.
const (
	DefaultBotDelay   = time.Second
	DefaultReadyDelay = 2 * time.Second
	DefaultMaxBots    = 1
)

// Config holds the tunables shared by every lobby in a store.
type Config struct {
	BotDelay   time.Duration
	ReadyDelay time.Duration
	MaxBots    int
	// BotOptions are applied to every bot added to a lobby.
	BotOptions []bot.Option
	// RoundOptions are applied to every lobby's engine.
	RoundOptions []round.Option
}

func (c Config) withDefaults() Config {
	if c.BotDelay <= 0 {
		c.BotDelay = DefaultBotDelay
	}
	if c.ReadyDelay <= 0 {
		c.ReadyDelay = DefaultReadyDelay
	}
	if c.MaxBots <= 0 {
		c.MaxBots = DefaultMaxBots
	}
	return c
}

// Member is a human or bot seated in a lobby.
type Member struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Bot   bool      `json:"bot"`
	Level bot.Level `json:"level,omitempty"`
	Score int       `json:"score"`
}

// Info is a lobby summary for listings and membership updates.
type Info struct {
	ID      string   `json:"id"`
	Leader  string   `json:"leader"`
	Members []Member `json:"members"`
	InGame  bool     `json:"inGame"`
	MaxBots int      `json:"maxBots"`
}

// Lobby groups players around one game. Every operation holds the lobby's
// mutex for its whole duration and queues its events under it; the queue is
// drained after the mutex is released, in the order operations were applied.
type Lobby struct {
	id     string
	cfg    Config
	clock  quartz.Clock
	bus    EventBus
	logger *log.Logger

	mu      sync.Mutex
	leader  string
	members []Member
	bots    map[string]*bot.Bot
	botSeq  int
	rng     *rand.Rand
	engine  *round.Engine
	state   *round.State
	version uint64
	closed  bool
	pending []Event

	draining sync.Mutex // held by the goroutine publishing pending events
}

func newLobby(id string, cfg Config, clock quartz.Clock, bus EventBus, rng *rand.Rand, logger *log.Logger) *Lobby {
	return &Lobby{
		id:     id,
		cfg:    cfg,
		clock:  clock,
		bus:    bus,
		logger: logger.With("lobby", id),
		bots:   make(map[string]*bot.Bot),
		rng:    rng,
		engine: round.New(randutil.Derive(rng), cfg.RoundOptions...),
	}
}

// ID returns the lobby identifier.
func (l *Lobby) ID() string { return l.id }

// Info returns a summary of the lobby.
func (l *Lobby) Info() Info {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.infoLocked()
}

// Snapshot returns a copy of the current game state, or nil before the first game.
func (l *Lobby) Snapshot() *round.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == nil {
		return nil
	}
	return l.state.Clone()
}

// Join seats a human player.
func (l *Lobby) Join(playerID, name string) error {
	l.mu.Lock()
	events, err := l.joinLocked(playerID, name)
	l.queueLocked(events)
	l.mu.Unlock()
	l.flush()
	return err
}

func (l *Lobby) joinLocked(playerID, name string) ([]Event, error) {
	if l.closed {
		return nil, ErrLobbyNotFound
	}
	if l.memberIndex(playerID) >= 0 {
		return nil, ErrAlreadyMember
	}
	if l.state != nil {
		return nil, ErrGameInProgress
	}
	l.members = append(l.members, Member{ID: playerID, Name: name})
	if l.leader == "" {
		l.leader = playerID
	}
	l.logger.Info("Player joined", "player", name, "members", len(l.members))
	return []Event{l.lobbyUpdatedLocked()}, nil
}

// Leave removes a human player. Leadership passes to the next human; the lobby
// closes when no human remains. It reports whether the lobby closed.
func (l *Lobby) Leave(playerID string) (bool, error) {
	l.mu.Lock()
	events, closed, err := l.leaveLocked(playerID)
	l.queueLocked(events)
	l.mu.Unlock()
	l.flush()
	return closed, err
}

func (l *Lobby) leaveLocked(playerID string) ([]Event, bool, error) {
	if l.closed {
		return nil, true, ErrLobbyNotFound
	}
	i := l.memberIndex(playerID)
	if i < 0 || l.members[i].Bot {
		return nil, false, ErrNotMember
	}
	if l.state != nil {
		return nil, false, ErrGameInProgress
	}
	name := l.members[i].Name
	l.members = append(l.members[:i], l.members[i+1:]...)

	if l.leader == playerID {
		l.leader = ""
		for _, m := range l.members {
			if !m.Bot {
				l.leader = m.ID
				break
			}
		}
	}
	l.logger.Info("Player left", "player", name, "leader", l.leader)

	if l.leader == "" {
		l.closed = true
		l.logger.Info("Lobby closed")
		return []Event{LobbyClosedEvent{header: l.header()}}, true, nil
	}
	return []Event{l.lobbyUpdatedLocked()}, false, nil
}

// AddBot seats a bot of the given level. Only the leader may add bots.
func (l *Lobby) AddBot(requester string, level bot.Level) (Member, error) {
	l.mu.Lock()
	m, events, err := l.addBotLocked(requester, level)
	l.queueLocked(events)
	l.mu.Unlock()
	l.flush()
	return m, err
}

func (l *Lobby) addBotLocked(requester string, level bot.Level) (Member, []Event, error) {
	if err := l.leaderOnlyLocked(requester); err != nil {
		return Member{}, nil, err
	}
	if len(l.bots) >= l.cfg.MaxBots {
		return Member{}, nil, fmt.Errorf("%w (%d)", ErrTooManyBots, l.cfg.MaxBots)
	}
	opts := append([]bot.Option{bot.WithLogger(l.logger)}, l.cfg.BotOptions...)
	b, err := bot.New(level, randutil.Derive(l.rng), opts...)
	if err != nil {
		return Member{}, nil, err
	}

	l.botSeq++
	m := Member{
		ID:    fmt.Sprintf("bot-%d", l.botSeq),
		Name:  fmt.Sprintf("Bot %d (%s)", l.botSeq, level),
		Bot:   true,
		Level: level,
	}
	l.members = append(l.members, m)
	l.bots[m.ID] = b
	l.logger.Info("Bot added", "bot", m.Name, "level", level)
	return m, []Event{l.lobbyUpdatedLocked()}, nil
}

// RemoveBot removes a bot. Only the leader may remove bots.
func (l *Lobby) RemoveBot(requester, botID string) error {
	l.mu.Lock()
	events, err := l.removeBotLocked(requester, botID)
	l.queueLocked(events)
	l.mu.Unlock()
	l.flush()
	return err
}

func (l *Lobby) removeBotLocked(requester, botID string) ([]Event, error) {
	if err := l.leaderOnlyLocked(requester); err != nil {
		return nil, err
	}
	i := l.memberIndex(botID)
	if i < 0 {
		return nil, ErrNotMember
	}
	if !l.members[i].Bot {
		return nil, ErrNotABot
	}
	l.members = append(l.members[:i], l.members[i+1:]...)
	delete(l.bots, botID)
	l.logger.Info("Bot removed", "bot", botID)
	return []Event{l.lobbyUpdatedLocked()}, nil
}

// Start begins a game with every member. Only the leader may start.
func (l *Lobby) Start(requester string) error {
	l.mu.Lock()
	events, err := l.startLocked(requester)
	l.queueLocked(events)
	l.mu.Unlock()
	l.flush()
	return err
}

func (l *Lobby) startLocked(requester string) ([]Event, error) {
	if err := l.leaderOnlyLocked(requester); err != nil {
		return nil, err
	}
	roster := make([]round.Seat, len(l.members))
	for i, m := range l.members {
		roster[i] = round.Seat{ID: m.ID, Name: m.Name, Score: m.Score}
	}
	s, tr, err := l.engine.Start(roster)
	if err != nil {
		return nil, err
	}
	l.logger.Info("Game started", "players", len(roster), "first", s.CurrentPlayer().Name)
	events := []Event{}
	events = append(events, l.applyLocked(s, tr)...)
	return append(events, l.lobbyUpdatedLocked()), nil
}

// Abort discards the game in progress so members can leave. Only the leader,
// or the server with an empty requester, may abort.
func (l *Lobby) Abort(requester string) error {
	l.mu.Lock()
	events, err := l.abortLocked(requester)
	l.queueLocked(events)
	l.mu.Unlock()
	l.flush()
	return err
}

func (l *Lobby) abortLocked(requester string) ([]Event, error) {
	if l.closed {
		return nil, ErrLobbyNotFound
	}
	if requester != "" && requester != l.leader {
		return nil, ErrNotLeader
	}
	if l.state == nil {
		return nil, ErrNoGame
	}
	l.state = nil
	l.version++
	l.logger.Info("Game aborted")
	return []Event{
		StateUpdatedEvent{header: l.header()},
		l.lobbyUpdatedLocked(),
	}, nil
}

// Move applies a player's turn intent.
func (l *Lobby) Move(playerID string, in round.Intent) error {
	l.mu.Lock()
	events, err := l.moveLocked(playerID, in)
	l.queueLocked(events)
	l.mu.Unlock()
	l.flush()
	return err
}

func (l *Lobby) moveLocked(playerID string, in round.Intent) ([]Event, error) {
	if l.closed {
		return nil, ErrLobbyNotFound
	}
	if l.state == nil {
		return nil, ErrNoGame
	}
	s, tr, err := l.engine.Move(l.state, playerID, in)
	if err != nil {
		return nil, err
	}
	return l.applyLocked(s, tr), nil
}

// Ready marks a player as ready for the next round.
func (l *Lobby) Ready(playerID string) error {
	l.mu.Lock()
	events, err := l.readyLocked(playerID)
	l.queueLocked(events)
	l.mu.Unlock()
	l.flush()
	return err
}

func (l *Lobby) readyLocked(playerID string) ([]Event, error) {
	if l.closed {
		return nil, ErrLobbyNotFound
	}
	if l.state == nil {
		return nil, ErrNoGame
	}
	s, tr, err := l.engine.Ready(l.state, playerID)
	if err != nil {
		return nil, err
	}
	return l.applyLocked(s, tr), nil
}

// applyLocked installs an accepted snapshot, schedules bot follow-ups and
// returns the events describing the change.
func (l *Lobby) applyLocked(s *round.State, tr round.Transition) []Event {
	l.state = s
	l.version++

	events := []Event{StateUpdatedEvent{header: l.header(), State: s.Clone(), Transition: tr}}

	if tr.Kind == round.TransitionChecked {
		l.logger.Debug("Check resolved", "hand", tr.Hand, "present", tr.HandPresent, "loser", tr.Loser, "eliminated", tr.Eliminated)
	}
	if tr.GameOver {
		for _, seat := range s.Roster {
			if i := l.memberIndex(seat.ID); i >= 0 {
				l.members[i].Score = seat.Score
			}
		}
		if tr.Winner != "" {
			name := l.members[l.memberIndex(tr.Winner)].Name
			l.logger.Info("Game won", "winner", name)
			events = append(events, GameWonEvent{header: l.header(), WinnerID: tr.Winner, WinnerName: name})
		}
		events = append(events, l.lobbyUpdatedLocked())
	}

	l.scheduleLocked(tr)
	return events
}

func (l *Lobby) scheduleLocked(tr round.Transition) {
	s := l.state
	if s.RoundEnded {
		if tr.Kind != round.TransitionChecked {
			return
		}
		for _, p := range s.Players {
			if _, ok := l.bots[p.ID]; ok {
				l.scheduleBotReady(p.ID, s.Game, s.Round)
			}
		}
		return
	}
	if _, ok := l.bots[s.CurrentPlayer().ID]; ok {
		l.scheduleBotMove(s.CurrentPlayer().ID, l.version)
	}
}

func (l *Lobby) scheduleBotMove(botID string, version uint64) {
	l.clock.AfterFunc(l.cfg.BotDelay, func() {
		l.mu.Lock()
		events := l.botMoveLocked(botID, version)
		l.queueLocked(events)
		l.mu.Unlock()
		l.flush()
	}, "lobby", "bot-move")
}

func (l *Lobby) botMoveLocked(botID string, version uint64) []Event {
	s := l.state
	if l.closed || s == nil || l.version != version || s.RoundEnded || s.CurrentPlayer().ID != botID {
		l.logger.Debug("Discarding stale bot move", "bot", botID)
		return nil
	}
	b, ok := l.bots[botID]
	if !ok {
		return nil
	}

	d := b.Decide(bot.ViewFor(s, botID))
	in := round.Trump(d.Hand)
	if d.Check {
		in = round.Check()
	}
	next, tr, err := l.engine.Move(s, botID, in)
	if err != nil {
		l.logger.Warn("Bot move rejected", "bot", botID, "error", err, "reasoning", d.Reasoning)
		return nil
	}
	l.logger.Debug("Bot moved", "bot", botID, "check", d.Check, "hand", d.Hand, "reasoning", d.Reasoning)
	return l.applyLocked(next, tr)
}

func (l *Lobby) scheduleBotReady(botID string, game, roundNo int) {
	l.clock.AfterFunc(l.cfg.ReadyDelay, func() {
		l.mu.Lock()
		events := l.botReadyLocked(botID, game, roundNo)
		l.queueLocked(events)
		l.mu.Unlock()
		l.flush()
	}, "lobby", "bot-ready")
}

func (l *Lobby) botReadyLocked(botID string, game, roundNo int) []Event {
	s := l.state
	if l.closed || s == nil || !s.RoundEnded || s.Game != game || s.Round != roundNo || s.Ready[botID] {
		l.logger.Debug("Discarding stale bot ready", "bot", botID)
		return nil
	}
	next, tr, err := l.engine.Ready(s, botID)
	if err != nil {
		l.logger.Warn("Bot ready rejected", "bot", botID, "error", err)
		return nil
	}
	return l.applyLocked(next, tr)
}

func (l *Lobby) leaderOnlyLocked(requester string) error {
	if l.closed {
		return ErrLobbyNotFound
	}
	if requester != l.leader {
		return ErrNotLeader
	}
	if l.state != nil {
		return ErrGameInProgress
	}
	return nil
}

func (l *Lobby) memberIndex(id string) int {
	for i, m := range l.members {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (l *Lobby) infoLocked() Info {
	return Info{
		ID:      l.id,
		Leader:  l.leader,
		Members: append([]Member(nil), l.members...),
		InGame:  l.state != nil,
		MaxBots: l.cfg.MaxBots,
	}
}

func (l *Lobby) lobbyUpdatedLocked() Event {
	return LobbyUpdatedEvent{header: l.header(), Info: l.infoLocked()}
}

func (l *Lobby) header() header {
	return header{lobbyID: l.id, timestamp: l.clock.Now()}
}

func (l *Lobby) queueLocked(events []Event) {
	if l.bus == nil {
		return
	}
	l.pending = append(l.pending, events...)
}

// flush publishes queued events. Only one goroutine drains at a time; others
// leave their events to it. The drainer gives up draining only while holding
// l.mu with an empty queue, so nothing queued before that point is stranded.
// Subscribers may call back into the lobby: their events are queued and
// published by the same loop after the current batch.
func (l *Lobby) flush() {
	if !l.draining.TryLock() {
		return
	}
	for {
		l.mu.Lock()
		events := l.pending
		l.pending = nil
		if len(events) == 0 {
			l.draining.Unlock()
			l.mu.Unlock()
			return
		}
		l.mu.Unlock()
		for _, e := range events {
			l.bus.Publish(e)
		}
	}
}
