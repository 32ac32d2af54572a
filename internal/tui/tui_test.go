package tui

import (
	"io"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/oblech/internal/bot"
	"github.com/lox/oblech/internal/hands"
	"github.com/lox/oblech/internal/randutil"
	"github.com/lox/oblech/internal/round"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func newTestModel(t *testing.T, seed int64) *TUIModel {
	t.Helper()
	m, err := NewTUIModel(Config{
		Name:   "Tester",
		Levels: []bot.Level{bot.LevelMid, bot.LevelHard},
		Logger: quietLogger(),
	}, randutil.New(seed))
	require.NoError(t, err)
	return m
}

// playUntilHumanTurn drives bot moves directly until the human must act.
func playUntilHumanTurn(t *testing.T, m *TUIModel) {
	t.Helper()
	for i := 0; i < 20 && !m.table.HumanTurn(); i++ {
		if m.table.State().RoundEnded {
			m.submit("")
			continue
		}
		m.Update(botTurnMsg{version: m.table.Version()})
	}
	require.True(t, m.table.HumanTurn())
}

func TestParseCommand(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input   string
		want    round.Intent
		wantErr bool
	}{
		{"check", round.Check(), false},
		{"C", round.Check(), false},
		{"trump", round.Trump(hands.None), false},
		{"t Double 9", round.Trump("Double 9"), false},
		{"trump 2 Pairs 9-10", round.Trump("2 Pairs 9-10"), false},
		{"trump double 9", round.Trump("Double 9"), false},
		{"T QUADRUPLE a", round.Trump("Quadruple A"), false},
		{"t small street", round.Trump("Small Street"), false},
		{"trump Royal Flush", round.Intent{}, true},
		{"fold", round.Intent{}, true},
		{"", round.Intent{}, true},
	}
	for _, tt := range tests {
		got, err := ParseCommand(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func TestTableSeatsHumanFirst(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, 1)
	s := m.table.State()

	require.Len(t, s.Players, 3)
	assert.Equal(t, HumanID, s.Players[0].ID)
	assert.Equal(t, "Tester", s.Players[0].Name)
	assert.Equal(t, "Bot 2 (hard)", s.Players[2].Name)
	assert.NotEmpty(t, m.Log())
}

func TestHumanMoveAndBotReply(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, 3)
	playUntilHumanTurn(t, m)

	before := m.table.Version()
	stronger := hands.Stronger(m.table.State().Declared)
	if len(stronger) == 0 {
		t.Skip("strongest hand already declared")
	}
	next := stronger[0]

	m.submit("trump " + string(next))
	assert.Greater(t, m.table.Version(), before)
	assert.Equal(t, next, m.table.State().Declared)
	assert.Contains(t, m.Log()[len(m.Log())-1], "declares "+string(next))

	// A stale tick for an earlier version is ignored.
	version := m.table.Version()
	m.Update(botTurnMsg{version: before})
	assert.Equal(t, version, m.table.Version())

	m.Update(botTurnMsg{version: version})
	assert.Greater(t, m.table.Version(), version)
}

func TestHandSelectionByNumber(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, 5)
	playUntilHumanTurn(t, m)

	options := hands.Stronger(m.table.State().Declared)
	if len(options) == 0 {
		t.Skip("strongest hand already declared")
	}
	m.submit("trump")
	require.True(t, m.table.State().SelectingHand)

	m.submit("99")
	assert.NotEmpty(t, m.notice)
	assert.True(t, m.table.State().SelectingHand)

	m.submit("1")
	assert.Equal(t, options[0], m.table.State().Declared)
}

func TestInvalidInputLeavesStateAlone(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, 9)
	playUntilHumanTurn(t, m)
	version := m.table.Version()

	m.submit("raise 10")
	assert.NotEmpty(t, m.notice)
	assert.Equal(t, version, m.table.Version())
}

func TestViewAndQuit(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, 11)

	assert.Equal(t, "Loading...", m.View())
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	view := m.View()
	assert.Contains(t, view, "Scores")
	assert.Contains(t, view, "Tester")
	assert.Contains(t, view, "1/6 cards")

	m.submit("quit")
	assert.True(t, m.quitting)
	assert.Empty(t, m.View())
}
