package lobby

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/oblech/internal/bot"
	"github.com/lox/oblech/internal/deck"
	"github.com/lox/oblech/internal/hands"
	"github.com/lox/oblech/internal/randutil"
	"github.com/lox/oblech/internal/round"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) OnEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) ofType(et EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.EventType() == et {
			out = append(out, e)
		}
	}
	return out
}

func newTestStore(t *testing.T, cfg Config) (*Store, *quartz.Mock, *recorder) {
	t.Helper()
	clock := quartz.NewMock(t)
	bus := NewEventBus()
	rec := &recorder{}
	bus.Subscribe(rec)
	logger := log.NewWithOptions(io.Discard, log.Options{})
	return NewStore(cfg, clock, bus, randutil.New(42), logger), clock, rec
}

func TestCreateJoinAndList(t *testing.T) {
	t.Parallel()
	store, _, rec := newTestStore(t, Config{})

	l, err := store.Create("alice", "Alice")
	require.NoError(t, err)
	assert.Len(t, l.ID(), 16)

	_, err = store.Join(l.ID(), "bob", "Bob")
	require.NoError(t, err)
	_, err = store.Join(l.ID(), "bob", "Bob")
	assert.ErrorIs(t, err, ErrAlreadyMember)
	_, err = store.Join("missing", "carol", "Carol")
	assert.ErrorIs(t, err, ErrLobbyNotFound)

	info := l.Info()
	assert.Equal(t, "alice", info.Leader)
	assert.Len(t, info.Members, 2)
	assert.False(t, info.InGame)
	assert.Equal(t, DefaultMaxBots, info.MaxBots)

	_, err = store.Create("carol", "Carol")
	require.NoError(t, err)
	list := store.List()
	require.Len(t, list, 2)
	assert.Less(t, list[0].ID, list[1].ID)

	assert.Len(t, rec.ofType(EventTypeLobbyUpdated), 3)
}

func TestLeaveHandsOffLeadershipAndCloses(t *testing.T) {
	t.Parallel()
	store, _, rec := newTestStore(t, Config{})

	l, err := store.Create("alice", "Alice")
	require.NoError(t, err)
	_, err = store.Join(l.ID(), "bob", "Bob")
	require.NoError(t, err)
	_, err = l.AddBot("alice", bot.LevelEasy)
	require.NoError(t, err)

	require.NoError(t, store.Leave(l.ID(), "alice"))
	assert.Equal(t, "bob", l.Info().Leader, "leadership passes to the next human")

	require.NoError(t, store.Leave(l.ID(), "bob"))
	assert.Equal(t, 0, store.Len())
	_, err = store.Get(l.ID())
	assert.ErrorIs(t, err, ErrLobbyNotFound)
	assert.Len(t, rec.ofType(EventTypeLobbyClosed), 1)

	assert.ErrorIs(t, l.Join("carol", "Carol"), ErrLobbyNotFound)
}

func TestBotManagement(t *testing.T) {
	t.Parallel()
	store, _, _ := newTestStore(t, Config{MaxBots: 2})

	l, err := store.Create("alice", "Alice")
	require.NoError(t, err)
	_, err = store.Join(l.ID(), "bob", "Bob")
	require.NoError(t, err)

	_, err = l.AddBot("bob", bot.LevelMid)
	assert.ErrorIs(t, err, ErrNotLeader)

	m, err := l.AddBot("alice", bot.LevelMid)
	require.NoError(t, err)
	assert.True(t, m.Bot)
	assert.Equal(t, bot.LevelMid, m.Level)
	_, err = l.AddBot("alice", "expert")
	assert.ErrorIs(t, err, bot.ErrUnknownLevel)
	_, err = l.AddBot("alice", bot.LevelHard)
	require.NoError(t, err)
	_, err = l.AddBot("alice", bot.LevelEasy)
	assert.ErrorIs(t, err, ErrTooManyBots)

	assert.ErrorIs(t, l.RemoveBot("alice", "bob"), ErrNotABot)
	assert.ErrorIs(t, l.RemoveBot("bob", m.ID), ErrNotLeader)
	require.NoError(t, l.RemoveBot("alice", m.ID))
	assert.Len(t, l.Info().Members, 3)
}

func TestStartRules(t *testing.T) {
	t.Parallel()
	store, _, rec := newTestStore(t, Config{})

	l, err := store.Create("alice", "Alice")
	require.NoError(t, err)
	assert.ErrorIs(t, l.Start("alice"), ErrNotEnoughPlayers)
	assert.Nil(t, l.Snapshot())
	assert.ErrorIs(t, l.Move("alice", round.Check()), ErrNoGame)

	_, err = store.Join(l.ID(), "bob", "Bob")
	require.NoError(t, err)
	assert.ErrorIs(t, l.Start("bob"), ErrNotLeader)
	require.NoError(t, l.Start("alice"))

	s := l.Snapshot()
	require.NotNil(t, s)
	assert.Len(t, s.Players, 2)
	assert.True(t, l.Info().InGame)
	assert.ErrorIs(t, l.Start("alice"), ErrGameInProgress)
	assert.ErrorIs(t, store.Leave(l.ID(), "bob"), ErrGameInProgress)
	_, err = store.Join(l.ID(), "carol", "Carol")
	assert.ErrorIs(t, err, ErrGameInProgress)
	assert.Len(t, rec.ofType(EventTypeStateUpdated), 1)

	require.NoError(t, l.Abort(""))
	assert.Nil(t, l.Snapshot())
	require.NoError(t, store.Leave(l.ID(), "bob"))
}

func TestMovesAreValidatedByTheEngine(t *testing.T) {
	t.Parallel()
	store, _, _ := newTestStore(t, Config{})
	l, err := store.Create("alice", "Alice")
	require.NoError(t, err)
	_, err = store.Join(l.ID(), "bob", "Bob")
	require.NoError(t, err)
	require.NoError(t, l.Start("alice"))

	s := l.Snapshot()
	current := s.CurrentPlayer().ID
	other := "alice"
	if current == "alice" {
		other = "bob"
	}

	assert.ErrorIs(t, l.Move(other, round.Trump("Single 9")), round.ErrNotYourTurn)
	assert.ErrorIs(t, l.Move(current, round.Check()), round.ErrNoHandDeclared)
	assert.ErrorIs(t, l.Ready(current), round.ErrRoundInProgress)
	require.NoError(t, l.Move(current, round.Trump("Double K")))
	assert.ErrorIs(t, l.Move(other, round.Trump("Double 9")), round.ErrHandTooWeak)

	after := l.Snapshot()
	assert.Equal(t, hands.Label("Double K"), after.Declared)
	assert.Equal(t, other, after.CurrentPlayer().ID)
}

// playUntilRoundEnds advances the mock clock through bot turns while alice
// opens with the weakest hand or checks.
func playUntilRoundEnds(ctx context.Context, t *testing.T, l *Lobby, clock *quartz.Mock) *round.State {
	t.Helper()
	for i := 0; i < 20; i++ {
		s := l.Snapshot()
		if s.RoundEnded {
			return s
		}
		if s.CurrentPlayer().ID == "alice" {
			if s.Declared == hands.None {
				require.NoError(t, l.Move("alice", round.Trump("Single 9")))
			} else {
				require.NoError(t, l.Move("alice", round.Check()))
			}
			continue
		}
		_, w := clock.AdvanceNext()
		w.MustWait(ctx)
	}
	t.Fatal("round did not end")
	return nil
}

func TestBotsPlayOnTheClock(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, clock, rec := newTestStore(t, Config{BotDelay: time.Second, ReadyDelay: 2 * time.Second})
	l, err := store.Create("alice", "Alice")
	require.NoError(t, err)
	_, err = l.AddBot("alice", bot.LevelMid)
	require.NoError(t, err)
	require.NoError(t, l.Start("alice"))

	ended := playUntilRoundEnds(ctx, t, l, clock)
	assert.True(t, ended.RevealCards)
	assert.Equal(t, 1, ended.Round)

	require.NoError(t, l.Ready("alice"))
	assert.True(t, l.Snapshot().RoundEnded, "bot has not readied yet")

	clock.Advance(2 * time.Second).MustWait(ctx)
	next := l.Snapshot()
	assert.False(t, next.RoundEnded)
	assert.Equal(t, 2, next.Round)
	assert.Equal(t, ended.Players[ended.LastLoser].ID, next.CurrentPlayer().ID)

	assert.GreaterOrEqual(t, len(rec.ofType(EventTypeStateUpdated)), 4)
}

func TestStaleBotMoveIsDiscarded(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, clock, rec := newTestStore(t, Config{BotDelay: time.Second})
	l, err := store.Create("alice", "Alice")
	require.NoError(t, err)
	_, err = l.AddBot("alice", bot.LevelEasy)
	require.NoError(t, err)
	require.NoError(t, l.Start("alice"))

	if l.Snapshot().CurrentPlayer().ID == "alice" {
		require.NoError(t, l.Move("alice", round.Trump("Single 9")))
	}
	require.NoError(t, l.Abort("alice"))
	before := len(rec.ofType(EventTypeStateUpdated))

	_, w := clock.AdvanceNext()
	w.MustWait(ctx)

	assert.Nil(t, l.Snapshot())
	assert.Len(t, rec.ofType(EventTypeStateUpdated), before, "aborted game must not receive the bot move")
}

func TestGameWonUpdatesScores(t *testing.T) {
	t.Parallel()
	store, _, rec := newTestStore(t, Config{})
	l, err := store.Create("alice", "Alice")
	require.NoError(t, err)
	_, err = store.Join(l.ID(), "bob", "Bob")
	require.NoError(t, err)
	require.NoError(t, l.Start("alice"))

	// Alice is one card from elimination and declared a hand nobody holds.
	l.mu.Lock()
	s := l.state.Clone()
	s.Current = s.PlayerIndex("bob")
	s.Declared = "Quadruple A"
	for i := range s.Players {
		if s.Players[i].ID == "alice" {
			s.Players[i].CardCount = 5
			s.Players[i].Cards = deck.MustParseCards("9s 9c 9d 9h 10s")
		} else {
			s.Players[i].Cards = deck.MustParseCards("Kd")
		}
	}
	l.state = s
	l.mu.Unlock()

	require.NoError(t, l.Move("bob", round.Check()))

	won := rec.ofType(EventTypeGameWon)
	require.Len(t, won, 1)
	assert.Equal(t, "bob", won[0].(GameWonEvent).WinnerID)
	assert.Equal(t, "Bob", won[0].(GameWonEvent).WinnerName)

	for _, m := range l.Info().Members {
		if m.ID == "bob" {
			assert.Equal(t, 1, m.Score)
		} else {
			assert.Equal(t, 0, m.Score)
		}
	}
	next := l.Snapshot()
	assert.Equal(t, 2, next.Game)
	assert.Len(t, next.Players, 2)
}

func TestLobbiesRunInParallel(t *testing.T) {
	t.Parallel()
	store, _, _ := newTestStore(t, Config{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l, err := store.Create("a", "A")
			if !assert.NoError(t, err) {
				return
			}
			_, err = store.Join(l.ID(), "b", "B")
			assert.NoError(t, err)
			assert.NoError(t, l.Start("a"))
			s := l.Snapshot()
			assert.NoError(t, l.Move(s.CurrentPlayer().ID, round.Trump("Single A")))
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, store.Len())
}

func TestConcurrentMovesAreSerialized(t *testing.T) {
	t.Parallel()
	store, _, rec := newTestStore(t, Config{})
	l, err := store.Create("alice", "Alice")
	require.NoError(t, err)
	_, err = store.Join(l.ID(), "bob", "Bob")
	require.NoError(t, err)
	require.NoError(t, l.Start("alice"))

	current := l.Snapshot().CurrentPlayer().ID
	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = l.Move(current, round.Trump("Double K"))
		}()
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
			continue
		}
		if !errors.Is(err, round.ErrNotYourTurn) && !errors.Is(err, round.ErrHandTooWeak) {
			t.Errorf("unexpected rejection: %v", err)
		}
	}
	assert.Equal(t, 1, accepted)

	s := l.Snapshot()
	assert.Equal(t, hands.Label("Double K"), s.Declared)
	assert.NotEqual(t, current, s.CurrentPlayer().ID)
	assert.Len(t, rec.ofType(EventTypeStateUpdated), 2, "start and one trump")
}

func TestEventsArePublishedInApplyOrder(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, clock, rec := newTestStore(t, Config{BotDelay: time.Second})
	l, err := store.Create("alice", "Alice")
	require.NoError(t, err)
	_, err = l.AddBot("alice", bot.LevelMid)
	require.NoError(t, err)
	require.NoError(t, l.Start("alice"))

	// Alice opens; a bot timer armed by Start goes stale.
	l.mu.Lock()
	s := l.state.Clone()
	s.Current = s.PlayerIndex("alice")
	l.state = s
	l.version++
	l.mu.Unlock()

	// Hold the publisher of Alice's trump while the bot answers.
	blocked, release := make(chan struct{}), make(chan struct{})
	var once sync.Once
	unsubscribe := l.bus.Subscribe(SubscriberFunc(func(e Event) {
		if ev, ok := e.(StateUpdatedEvent); ok && ev.Transition.Kind == round.TransitionTrumped {
			once.Do(func() {
				close(blocked)
				<-release
			})
		}
	}))
	defer unsubscribe()

	done := make(chan error, 1)
	go func() { done <- l.Move("alice", round.Trump("Quadruple 9")) }()
	<-blocked

	clock.Advance(time.Second).MustWait(ctx)
	require.True(t, l.Snapshot().RoundEnded, "bot checks the unbeatable declaration")

	close(release)
	require.NoError(t, <-done)

	updates := rec.ofType(EventTypeStateUpdated)
	last := updates[len(updates)-1].(StateUpdatedEvent)
	assert.Equal(t, round.TransitionChecked, last.Transition.Kind)
	assert.Equal(t, l.Snapshot().Status, last.State.Status)
	assert.Equal(t, round.TransitionTrumped, updates[len(updates)-2].(StateUpdatedEvent).Transition.Kind)
}
