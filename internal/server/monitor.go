package server

import (
	"sort"
	"sync"

	"github.com/lox/oblech/internal/lobby"
	"github.com/lox/oblech/internal/round"
)

// GameStats counts what happened in one lobby, or across the server.
type GameStats struct {
	Games         int            `json:"games"`
	Aborted       int            `json:"aborted"`
	Rounds        int            `json:"rounds"`
	ChecksPresent int            `json:"checksPresent"`
	ChecksAbsent  int            `json:"checksAbsent"`
	Eliminations  int            `json:"eliminations"`
	Wins          map[string]int `json:"wins,omitempty"` // by player name
}

func (g *GameStats) record(tr round.Transition, s *round.State) {
	switch tr.Kind {
	case round.TransitionStarted, round.TransitionNewRound:
		g.Rounds++
	case round.TransitionChecked:
		if tr.HandPresent {
			g.ChecksPresent++
		} else {
			g.ChecksAbsent++
		}
		g.Eliminations += len(tr.Eliminated)
		if !tr.GameOver {
			return
		}
		g.Games++
		g.Rounds++ // the next game's first round is dealt immediately
		if tr.Winner == "" {
			return
		}
		for _, seat := range s.Roster {
			if seat.ID == tr.Winner {
				if g.Wins == nil {
					g.Wins = make(map[string]int)
				}
				g.Wins[seat.Name]++
			}
		}
	}
}

func (g GameStats) clone() GameStats {
	out := g
	if g.Wins != nil {
		out.Wins = make(map[string]int, len(g.Wins))
		for k, v := range g.Wins {
			out.Wins[k] = v
		}
	}
	return out
}

// StatsSnapshot is served on /stats.
type StatsSnapshot struct {
	Total   GameStats            `json:"total"`
	Lobbies map[string]GameStats `json:"lobbies"`
	Leaders []string             `json:"leaders"` // most wins first
}

// StatsCollector subscribes to lobby events and keeps running totals. Per-lobby
// entries are dropped when the lobby closes; the total survives.
type StatsCollector struct {
	mu      sync.RWMutex
	total   GameStats
	lobbies map[string]*GameStats
}

// NewStatsCollector creates an empty collector
func NewStatsCollector() *StatsCollector {
	return &StatsCollector{lobbies: make(map[string]*GameStats)}
}

// OnEvent implements lobby.EventSubscriber.
func (c *StatsCollector) OnEvent(e lobby.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev := e.(type) {
	case lobby.StateUpdatedEvent:
		ls, ok := c.lobbies[e.LobbyID()]
		if !ok {
			ls = &GameStats{}
			c.lobbies[e.LobbyID()] = ls
		}
		if ev.State == nil {
			ls.Aborted++
			c.total.Aborted++
			return
		}
		ls.record(ev.Transition, ev.State)
		c.total.record(ev.Transition, ev.State)

	case lobby.LobbyClosedEvent:
		delete(c.lobbies, e.LobbyID())
	}
}

// Snapshot returns a copy of the current statistics.
func (c *StatsCollector) Snapshot() StatsSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := StatsSnapshot{
		Total:   c.total.clone(),
		Lobbies: make(map[string]GameStats, len(c.lobbies)),
		Leaders: c.leadersLocked(),
	}
	for id, ls := range c.lobbies {
		snap.Lobbies[id] = ls.clone()
	}
	return snap
}

func (c *StatsCollector) leadersLocked() []string {
	names := make([]string, 0, len(c.total.Wins))
	for name := range c.total.Wins {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		wi, wj := c.total.Wins[names[i]], c.total.Wins[names[j]]
		if wi != wj {
			return wi > wj
		}
		return names[i] < names[j]
	})
	return names
}
