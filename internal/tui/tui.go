// Package tui is the terminal front end for playing against bots locally.
package tui

import (
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/oblech/internal/bot"
	"github.com/lox/oblech/internal/hands"
	"github.com/lox/oblech/internal/round"
)

// DefaultBotDelay paces bot moves so they can be followed.
const DefaultBotDelay = 700 * time.Millisecond

// Config configures a local game.
type Config struct {
	Name         string
	Levels       []bot.Level
	BotDelay     time.Duration
	BotOptions   []bot.Option
	RoundOptions []round.Option
	Logger       *log.Logger
}

// botTurnMsg asks the model to play the bot whose turn it was at version.
type botTurnMsg struct{ version int }

// TUIModel represents the Bubble Tea model for a local game
type TUIModel struct {
	table    *Table
	logger   *log.Logger
	botDelay time.Duration

	// UI components
	logViewport viewport.Model
	actionInput textinput.Model

	gameLog     []string
	notice      string
	quitting    bool
	focusedPane int // 0 = log, 1 = input

	width       int
	height      int
	initialized bool
}

// NewTUIModel deals a local game and builds the model around it.
func NewTUIModel(cfg Config, rng *rand.Rand) (*TUIModel, error) {
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.Name == "" {
		cfg.Name = "You"
	}
	if cfg.BotDelay <= 0 {
		cfg.BotDelay = DefaultBotDelay
	}
	logger := cfg.Logger.WithPrefix("tui")

	table, opening, err := NewTable(cfg.Name, cfg.Levels, rng, logger, cfg.BotOptions, cfg.RoundOptions...)
	if err != nil {
		return nil, err
	}

	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 60
	ti.Width = 60
	ti.PromptStyle = lipgloss.NewStyle().Foreground(focusColor).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	m := &TUIModel{
		table:       table,
		logger:      logger,
		botDelay:    cfg.BotDelay,
		logViewport: vp,
		actionInput: ti,
		focusedPane: 1,
	}
	m.addLog(opening...)
	return m, nil
}

// Run starts the program and blocks until the player quits.
func Run(cfg Config, rng *rand.Rand) error {
	m, err := NewTUIModel(cfg, rng)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// Init initializes the TUI model
func (m *TUIModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.scheduleBot())
}

// scheduleBot returns a delayed bot move when the round waits on a bot.
func (m *TUIModel) scheduleBot() tea.Cmd {
	if _, ok := m.table.BotTurn(); !ok {
		return nil
	}
	version := m.table.Version()
	return tea.Tick(m.botDelay, func(time.Time) tea.Msg {
		return botTurnMsg{version: version}
	})
}

// Update handles messages in the TUI
func (m *TUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case botTurnMsg:
		if msg.version != m.table.Version() {
			return m, nil
		}
		lines, err := m.table.PlayBot()
		if err != nil {
			m.logger.Error("Bot move rejected", "error", err)
			m.notice = ErrorStyle.Render(err.Error())
			return m, nil
		}
		m.addLog(lines...)
		return m, m.scheduleBot()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logger.Debug("Updating dimensions", "width", m.width, "height", m.height)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "tab":
			if m.focusedPane == 0 {
				m.focusedPane = 1
				m.actionInput.Focus()
			} else {
				m.focusedPane = 0
				m.actionInput.Blur()
			}
		case "enter":
			if m.focusedPane == 1 {
				cmd := m.submit(m.actionInput.Value())
				m.actionInput.SetValue("")
				if m.quitting {
					return m, tea.Quit
				}
				cmds = append(cmds, cmd)
			}
		case "up", "k":
			if m.focusedPane == 0 {
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == 0 {
				m.logViewport.ScrollDown(1)
			}
		case "home", "g":
			if m.focusedPane == 0 {
				m.logViewport.GotoTop()
			}
		case "end", "G":
			if m.focusedPane == 0 {
				m.logViewport.GotoBottom()
			}
		}
	}

	var cmd tea.Cmd
	if m.focusedPane == 1 {
		m.actionInput, cmd = m.actionInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit handles one line of input and returns the follow-up command.
func (m *TUIModel) submit(input string) tea.Cmd {
	input = strings.TrimSpace(input)
	m.notice = ""

	if input == "quit" || input == "q" {
		m.quitting = true
		return nil
	}

	s := m.table.State()
	switch {
	case s.RoundEnded && m.table.HumanSeated():
		lines, err := m.table.Continue()
		if err != nil {
			m.notice = ErrorStyle.Render(err.Error())
			return nil
		}
		m.addLog(lines...)
		return m.scheduleBot()

	case !m.table.HumanTurn():
		m.notice = InfoStyle.Render("Waiting for the other players.")
		return nil
	}

	in, err := m.parseInput(input)
	if err != nil {
		m.notice = ErrorStyle.Render(err.Error())
		return nil
	}
	lines, err := m.table.Play(in)
	if err != nil {
		m.notice = ErrorStyle.Render(err.Error())
		return nil
	}
	m.addLog(lines...)
	return m.scheduleBot()
}

// parseInput accepts typed moves, and numbers while choosing a hand.
func (m *TUIModel) parseInput(input string) (round.Intent, error) {
	s := m.table.State()
	if s.SelectingHand {
		if n, err := strconv.Atoi(input); err == nil {
			options := hands.Stronger(s.Declared)
			if n < 1 || n > len(options) {
				return round.Intent{}, fmt.Errorf("choose a hand between 1 and %d", len(options))
			}
			return round.Trump(options[n-1]), nil
		}
		if _, err := hands.Parse(input); err == nil {
			return round.Trump(hands.Label(input)), nil
		}
	}
	return ParseCommand(input)
}

// View renders the TUI
func (m *TUIModel) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)
	actionPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(focusColor).
		Width(max(m.width-2, 1)).
		Height(max(actionHeight, 1)).
		Render(actionContent)

	sidebarContent := m.renderSidebarPane()
	sidebarWidth := max(lipgloss.Width(sidebarContent), 28)
	paneHeight := max(m.height-actionHeight-4, 1)

	sidebarPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Width(sidebarWidth).
		Height(paneHeight).
		Render(sidebarContent)

	logWidth := max(m.width-sidebarWidth-4, 1)
	m.logViewport.Width = logWidth
	m.logViewport.Height = paneHeight
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if !m.initialized && logWidth > 1 && paneHeight > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	logBorder := borderColor
	if m.focusedPane == 0 {
		logBorder = focusColor
	}
	logPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(logBorder).
		Width(logWidth).
		Height(paneHeight).
		Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, actionPane)
}

// renderSidebarPane lists the players with their card counts and scores.
func (m *TUIModel) renderSidebarPane() string {
	s := m.table.State()
	var content strings.Builder

	content.WriteString(HeaderStyle.Render(fmt.Sprintf(" Game %d · Round %d ", s.Game, s.Round)))
	content.WriteString("\n\n")
	content.WriteString(WarningStyle.Render("Declared: " + s.Declared.String()))
	content.WriteString("\n\n")

	limit := m.table.EliminationSize()
	for i, p := range s.Players {
		marker := "  "
		if i == s.Current && !s.RoundEnded {
			marker = "▶ "
		}
		fmt.Fprintf(&content, "%s%s  %d/%d cards\n", marker, p.Name, p.CardCount, limit)
	}

	content.WriteString("\n")
	content.WriteString(InfoStyle.Render("Scores"))
	content.WriteString("\n")
	for _, seat := range s.Roster {
		fmt.Fprintf(&content, "  %s: %d\n", seat.Name, seat.Score)
	}
	return content.String()
}

// renderActionPane shows the human's cards, the prompt and help text.
func (m *TUIModel) renderActionPane() string {
	s := m.table.State()
	var content strings.Builder

	if i := s.PlayerIndex(HumanID); i >= 0 {
		content.WriteString(HandInfoStyle.Render("Your cards: "))
		content.WriteString(FormatCards(s.Players[i].Cards))
	} else {
		content.WriteString(InfoStyle.Render("You are out of this game."))
	}
	content.WriteString("\n")
	content.WriteString(s.Status)
	content.WriteString("\n")

	switch {
	case s.RoundEnded:
		m.actionInput.Placeholder = "Enter to continue"
	case s.SelectingHand && m.table.HumanTurn():
		content.WriteString(m.renderHandChoices(hands.Stronger(s.Declared)))
		content.WriteString("\n")
		m.actionInput.Placeholder = "Number or hand name"
	case m.table.HumanTurn():
		content.WriteString(ActionsStyle.Render("Actions: ") +
			SuccessStyle.Render("[trump <hand>]") + " " + SuccessStyle.Render("[trump]"))
		if s.Declared != hands.None {
			content.WriteString(" " + ErrorStyle.Render("[check]"))
		}
		content.WriteString("\n")
		m.actionInput.Placeholder = "trump Double 9, check"
	default:
		m.actionInput.Placeholder = "Waiting..."
	}

	if m.notice != "" {
		content.WriteString(m.notice)
		content.WriteString("\n")
	}
	content.WriteString(m.actionInput.View())
	content.WriteString("\n")

	help := "Tab to scroll log • Enter to submit • q or Ctrl+C to quit"
	if m.focusedPane == 0 {
		help = "Log focused: ↑↓ scroll, Home/End, Tab to input"
	}
	content.WriteString(InfoStyle.Render(help))
	return content.String()
}

func (m *TUIModel) renderHandChoices(options []hands.Label) string {
	parts := make([]string, len(options))
	for i, l := range options {
		parts[i] = fmt.Sprintf("%d) %s", i+1, l)
	}
	return lipgloss.NewStyle().Width(max(m.width-4, 20)).Render(strings.Join(parts, "  "))
}

// addLog appends entries and keeps the newest visible.
func (m *TUIModel) addLog(entries ...string) {
	m.gameLog = append(m.gameLog, entries...)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// Log returns a copy of the game log.
func (m *TUIModel) Log() []string {
	return append([]string(nil), m.gameLog...)
}
