// Package tui renders the benchmark dashboard served over SSH.
package tui

import (
	"context"
	"fmt"
	"time"

	"metior/internal/domain"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SnapshotSource is the slice of the snapshot service the dashboard needs.
type SnapshotSource interface {
	GetLatest(ctx context.Context) (*domain.Snapshot, error)
	BuildLive(ctx context.Context) (*domain.Snapshot, error)
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	priceStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	baseStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))
)

type snapshotMsg struct {
	snapshot *domain.Snapshot
	live     bool
	err      error
}

// AppModel is the root bubbletea model for the dashboard.
type AppModel struct {
	snapshots SnapshotSource

	tbl      table.Model
	snapshot *domain.Snapshot
	loading  bool
	live     bool
	err      error

	width  int
	height int
}

func NewAppModel(snapshots SnapshotSource) *AppModel {
	columns := []table.Column{
		{Title: "Asset", Width: 8},
		{Title: "Weight", Width: 10},
		{Title: "Market Cap (USD)", Width: 20},
	}
	tbl := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57"))
	tbl.SetStyles(styles)

	return &AppModel{snapshots: snapshots, tbl: tbl, loading: true}
}

func (m *AppModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	if height > 8 {
		m.tbl.SetHeight(height - 8)
	}
}

func (m *AppModel) Init() tea.Cmd {
	return m.fetchLatest()
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			m.loading = true
			return m, m.fetchLatest()
		case "l":
			m.loading = true
			return m, m.buildLive()
		}

	case snapshotMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.snapshot = msg.snapshot
			m.live = msg.live
			m.tbl.SetRows(weightRows(msg.snapshot))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.tbl, cmd = m.tbl.Update(msg)
	return m, cmd
}

func (m *AppModel) View() string {
	header := titleStyle.Render("METIOR · world market basket")

	var body string
	switch {
	case m.loading:
		body = statusStyle.Render("Loading snapshot...")
	case m.err != nil:
		body = errStyle.Render("Error: " + m.err.Error())
	case m.snapshot != nil:
		source := "static"
		if m.live {
			source = "live"
		}
		price := priceStyle.Render(fmt.Sprintf("MEO $%.2f", m.snapshot.UnitPriceUSD))
		meta := statusStyle.Render(fmt.Sprintf("%s · %s · M_world $%.4g", m.snapshot.Date, source, m.snapshot.WorldTotalUSD))
		body = lipgloss.JoinVertical(lipgloss.Left, price, meta, baseStyle.Render(m.tbl.View()))
	}

	help := statusStyle.Render("r refresh · l live rebuild · q quit")
	return lipgloss.JoinVertical(lipgloss.Left, header, "", body, "", help)
}

func (m *AppModel) fetchLatest() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		snap, err := m.snapshots.GetLatest(ctx)
		return snapshotMsg{snapshot: snap, err: err}
	}
}

func (m *AppModel) buildLive() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		snap, err := m.snapshots.BuildLive(ctx)
		return snapshotMsg{snapshot: snap, live: true, err: err}
	}
}

func weightRows(s *domain.Snapshot) []table.Row {
	rows := make([]table.Row, 0, len(s.Components))
	for _, c := range s.Components {
		rows = append(rows, table.Row{
			c.Symbol,
			fmt.Sprintf("%.2f%%", c.Weight*100),
			fmt.Sprintf("%.4g", c.MarketCapUSD),
		})
	}
	return rows
}
