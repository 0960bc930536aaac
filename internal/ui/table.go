package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/jlais/visiondemo/internal/session"
	"github.com/jlais/visiondemo/internal/utils"
)

// RosterTable renders the remote participants of a room.
type RosterTable struct {
	participants []session.Participant
	agent        string
}

func NewRosterTable(snap session.Snapshot) *RosterTable {
	return &RosterTable{
		participants: snap.Participants,
		agent:        snap.AgentIdentity,
	}
}

func (t *RosterTable) View() string {
	if len(t.participants) == 0 {
		return MutedStyle.Render("No one else is here yet")
	}

	rows := make([][]string, 0, len(t.participants))
	for _, p := range t.participants {
		role := IconPeer + " user"
		if p.Agent {
			role = IconAgent + " agent"
		}
		rows = append(rows, []string{
			utils.TruncateString(p.Identity, 32),
			utils.TruncateString(p.Name, 24),
			role,
			fmt.Sprintf("%d", p.AudioTracks),
			fmt.Sprintf("%d", p.VideoTracks),
		})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers("Identity", "Name", "Role", "Audio", "Video").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row < len(t.participants) && t.participants[row].Identity == t.agent:
				return TableAgentRowStyle
			case row%2 == 0:
				return TableRowStyle
			default:
				return TableRowAltStyle
			}
		})

	return tbl.Render()
}

// RoomInfoView is the boxed summary printed once a session has joined.
func RoomInfoView(snap session.Snapshot) string {
	lines := []string{
		fmt.Sprintf("%s Connected!", IconSuccess),
		"",
		fmt.Sprintf("%s Room:      %s", IconRoom, BoldStyle.Foreground(Primary).Render(snap.RoomName)),
		fmt.Sprintf("%s Identity:  %s", IconPeer, snap.LocalIdentity),
		fmt.Sprintf("%s Server:    %s", IconWeb, MutedStyle.Render(snap.ServerURL)),
	}
	if snap.CameraEnabled {
		lines = append(lines, fmt.Sprintf("%s Camera:    %s", IconCamera,
			utils.FormatDimensions(snap.CameraDimensions.Width, snap.CameraDimensions.Height)))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(Success).
		Padding(1, 2).
		Render(strings.Join(lines, "\n"))
}
