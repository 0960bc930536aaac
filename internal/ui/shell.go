package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jlais/visiondemo/internal/session"
	"github.com/jlais/visiondemo/internal/utils"
)

const (
	DefaultTitle    = "JLAIS Vision Demo"
	DefaultSubtitle = "Talk to the JLAIS"

	connectLabel    = "Connect"
	connectingLabel = "Connecting..."
	waitingLabel    = "Connecting to AI assistant..."
	waitingHint     = "First connection may take 10-20 seconds"

	transcriptLines = 8
	maxMediaRows    = 12
)

// Controller is what the shell needs from a session. Every call may block
// and is run from a tea.Cmd.
type Controller interface {
	Connect(ctx context.Context) error
	Disconnect()
	SendChat(text string) error
}

type ShellOptions struct {
	Title    string
	Subtitle string
	Scale    float64
	Spatial  bool
}

// SnapshotMsg carries a store update into the program.
type SnapshotMsg session.Snapshot

type attemptDoneMsg struct{ err error }

type chatSentMsg struct{ err error }

type disconnectedMsg struct{}

// Shell maps session snapshots onto one of two surfaces: the connection
// prompt or the chat surface. It holds no session state of its own beyond
// input focus and the pending flag for a dispatched attempt.
type Shell struct {
	ctx  context.Context
	ctrl Controller
	opts ShellOptions

	snap    session.Snapshot
	screen  Screen
	spinner spinner.Model
	input   textinput.Model

	pending  bool
	notice   string
	quitting bool
}

func NewShell(ctx context.Context, ctrl Controller, initial session.Snapshot, opts ShellOptions) *Shell {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.Subtitle == "" {
		opts.Subtitle = DefaultSubtitle
	}
	if opts.Scale <= 0 {
		opts.Scale = DefaultScale
	}

	in := textinput.New()
	in.Placeholder = "Message the assistant..."
	in.Prompt = "› "
	in.CharLimit = 500
	in.Width = 60

	return &Shell{
		ctx:     ctx,
		ctrl:    ctrl,
		opts:    opts,
		snap:    initial,
		screen:  Screen{Scale: opts.Scale, Spatial: opts.Spatial},
		spinner: newAgentSpinner(),
		input:   in,
	}
}

func (s *Shell) Init() tea.Cmd {
	return s.spinner.Tick
}

func (s *Shell) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SnapshotMsg:
		return s, s.applySnapshot(session.Snapshot(msg))

	case tea.WindowSizeMsg:
		s.screen.Width = msg.Width
		s.screen.Height = msg.Height
		s.input.Width = max(msg.Width-12, 10)
		return s, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case attemptDoneMsg:
		s.pending = false
		if errors.Is(msg.err, session.ErrAttemptInProgress) {
			s.notice = "A connection attempt is already running"
		}
		return s, nil

	case chatSentMsg:
		s.notice = ""
		if msg.err != nil {
			s.notice = msg.err.Error()
		}
		return s, nil

	case disconnectedMsg:
		s.notice = ""
		return s, nil

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.snap.State.IsConnected() {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *Shell) applySnapshot(snap session.Snapshot) tea.Cmd {
	was := s.snap.State.IsConnected()
	s.snap = snap

	switch now := snap.State.IsConnected(); {
	case now && !was:
		s.notice = ""
		s.input.Reset()
		return s.input.Focus()
	case !now && was:
		s.input.Blur()
	}
	return nil
}

func (s *Shell) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		s.quitting = true
		return s, tea.Quit
	}

	if !s.snap.State.IsConnected() {
		switch msg.String() {
		case "enter":
			return s, s.connect()
		case "q", "esc":
			s.quitting = true
			return s, tea.Quit
		}
		return s, nil
	}

	switch msg.String() {
	case "ctrl+d":
		ctrl := s.ctrl
		return s, func() tea.Msg {
			ctrl.Disconnect()
			return disconnectedMsg{}
		}
	case "esc":
		s.quitting = true
		return s, tea.Quit
	case "enter":
		text := strings.TrimSpace(s.input.Value())
		s.input.Reset()
		if text == "" {
			return s, nil
		}
		ctrl := s.ctrl
		return s, func() tea.Msg {
			return chatSentMsg{err: ctrl.SendChat(text)}
		}
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// connect dispatches one attempt unless one is already pending or the store
// reports Connecting.
func (s *Shell) connect() tea.Cmd {
	if s.connectDisabled() {
		return nil
	}
	s.pending = true
	s.notice = ""
	ctx, ctrl := s.ctx, s.ctrl
	return func() tea.Msg {
		return attemptDoneMsg{err: ctrl.Connect(ctx)}
	}
}

func (s *Shell) connectDisabled() bool {
	return s.pending || s.snap.State.Connecting()
}

func (s *Shell) View() string {
	if s.quitting {
		return ""
	}
	if s.snap.State.IsConnected() {
		return s.chatView()
	}
	return s.promptView()
}

func (s *Shell) promptView() string {
	button := ButtonStyle.Render(connectLabel)
	if s.connectDisabled() {
		button = ButtonDisabledStyle.Render(connectingLabel)
	}

	parts := []string{
		TitleStyle.Render(s.opts.Title),
		SubtitleStyle.Render(s.opts.Subtitle),
		"",
		button,
	}
	if s.snap.ErrorMessage != "" {
		parts = append(parts, "", ErrorStyle.Render(s.snap.ErrorMessage))
	}
	if s.notice != "" {
		parts = append(parts, "", WarningStyle.Render(s.notice))
	}
	parts = append(parts, FooterStyle.Render("enter connect • q quit"))

	return ContainerStyle.Render(lipgloss.JoinVertical(lipgloss.Center, parts...))
}

func (s *Shell) chatView() string {
	header := HeaderStyle.Render(fmt.Sprintf("%s %s  %s %s",
		IconRoom, s.snap.RoomName, IconPeer, s.snap.LocalIdentity))

	var body string
	if !s.snap.AgentPresent() {
		body = lipgloss.JoinVertical(lipgloss.Left,
			fmt.Sprintf("%s %s", s.spinner.View(), waitingLabel),
			MutedStyle.Render(waitingHint),
		)
	} else {
		var media []string
		if s.snap.CameraEnabled {
			media = append(media, s.cameraView(), " ")
		}
		media = append(media, s.agentView())

		body = lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.JoinHorizontal(lipgloss.Top, media...),
			"",
			NewRosterTable(s.snap).View(),
			"",
			s.transcriptView(),
		)
	}

	parts := []string{header, body, "", s.input.View()}
	if s.notice != "" {
		parts = append(parts, ErrorStyle.Render(s.notice))
	}
	parts = append(parts, FooterStyle.Render("enter send • ctrl+d disconnect • esc quit"))

	return ContainerStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (s *Shell) availableWidth() int {
	if s.screen.Width == 0 {
		return 0
	}
	return max(s.screen.Width-8, minFrame)
}

func (s *Shell) cameraView() string {
	dims := s.snap.CameraDimensions
	f := CameraFrame(s.screen, dims).Fit(s.availableWidth()/2, maxMediaRows)
	content := fmt.Sprintf("%s camera\n%s", IconCamera,
		MutedStyle.Render(utils.FormatDimensions(dims.Width, dims.Height)))
	return CameraBoxStyle.Width(f.Width).Height(f.Height).Render(content)
}

func (s *Shell) agentView() string {
	agent, _ := s.snap.Agent()
	f := AgentFrame(s.screen, s.snap.CameraEnabled).Fit(s.availableWidth(), maxMediaRows)

	name := agent.Name
	if name == "" {
		name = agent.Identity
	}
	content := fmt.Sprintf("%s %s\n%s", IconAgent,
		utils.TruncateString(name, max(f.Width-4, 1)),
		MutedStyle.Render(fmt.Sprintf("audio %d · video %d", agent.AudioTracks, agent.VideoTracks)))
	return AgentBoxStyle.Width(f.Width).Height(f.Height).Render(content)
}

func (s *Shell) transcriptView() string {
	lines := s.snap.Transcript
	if len(lines) == 0 {
		return MutedStyle.Render(IconChat + " Say hello to start the conversation")
	}
	if len(lines) > transcriptLines {
		lines = lines[len(lines)-transcriptLines:]
	}

	var b strings.Builder
	for i, line := range lines {
		from := RemoteChatStyle.Render(line.From)
		if line.Local {
			from = LocalChatStyle.Render("you")
		}
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %s: %s", MutedStyle.Render(line.Time.Format("15:04:05")), from, line.Text)
	}
	return b.String()
}
