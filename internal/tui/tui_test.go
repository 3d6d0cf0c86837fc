package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"metior/internal/domain"
	"metior/internal/numeraire"

	tea "github.com/charmbracelet/bubbletea"
)

type stubSource struct {
	snapshot *domain.Snapshot
	err      error
}

func (s *stubSource) GetLatest(ctx context.Context) (*domain.Snapshot, error) {
	return s.snapshot, s.err
}

func (s *stubSource) BuildLive(ctx context.Context) (*domain.Snapshot, error) {
	return s.snapshot, s.err
}

func dashboardSnapshot(t *testing.T) *domain.Snapshot {
	t.Helper()
	snap, err := numeraire.FromCaps("2025-10-08", []domain.Component{
		{Symbol: "XAU", MarketCapUSD: 60e12},
		{Symbol: "USD", MarketCapUSD: 40e12},
	})
	if err != nil {
		t.Fatalf("build snapshot: %v", err)
	}
	return snap
}

func TestAppModelShowsWeights(t *testing.T) {
	snap := dashboardSnapshot(t)
	m := NewAppModel(&stubSource{snapshot: snap})

	updated, _ := m.Update(snapshotMsg{snapshot: snap})
	m = updated.(*AppModel)

	view := m.View()
	if !strings.Contains(view, "XAU") || !strings.Contains(view, "60.00%") {
		t.Fatalf("expected weight rows in view:\n%s", view)
	}
	if !strings.Contains(view, "MEO $100000000.00") {
		t.Fatalf("expected unit price in view:\n%s", view)
	}
}

func TestAppModelShowsError(t *testing.T) {
	m := NewAppModel(&stubSource{err: errors.New("redis down")})

	updated, _ := m.Update(snapshotMsg{err: errors.New("redis down")})
	m = updated.(*AppModel)

	view := m.View()
	if !strings.Contains(view, "redis down") {
		t.Fatalf("expected error in view:\n%s", view)
	}
}

func TestAppModelQuits(t *testing.T) {
	m := NewAppModel(&stubSource{})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if msg := cmd(); msg != tea.Quit() {
		t.Fatalf("expected quit message, got %T", msg)
	}
}

func TestAppModelInitFetches(t *testing.T) {
	snap := dashboardSnapshot(t)
	m := NewAppModel(&stubSource{snapshot: snap})

	cmd := m.Init()
	if cmd == nil {
		t.Fatal("expected init command")
	}
	msg, ok := cmd().(snapshotMsg)
	if !ok {
		t.Fatalf("expected snapshot message, got %T", msg)
	}
	if msg.err != nil || msg.snapshot.Date != "2025-10-08" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}
