package staticdata

import (
	"errors"
	"testing"

	"metior/internal/numeraire"
)

func TestLoadBundledSnapshot(t *testing.T) {
	raw, err := Load("2025-10-08")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw.Date != "2025-10-08" {
		t.Fatalf("unexpected date: %s", raw.Date)
	}
	if len(raw.Components) != 8 {
		t.Fatalf("expected 8 components, got %d", len(raw.Components))
	}
	if raw.ClaimedTotalUSD == nil || raw.ClaimedUnitPrice == nil {
		t.Fatal("bundled snapshot should carry claimed total and price")
	}
}

func TestBundledSnapshotsPassNormalization(t *testing.T) {
	for _, date := range Dates() {
		raw, err := Load(date)
		if err != nil {
			t.Fatalf("load %s: %v", date, err)
		}
		snap, err := numeraire.Normalize(raw)
		if err != nil {
			t.Fatalf("bundled snapshot %s fails validation: %v", date, err)
		}
		if snap.WorldTotalUSD != *raw.ClaimedTotalUSD {
			t.Fatalf("%s: recomputed total %v diverges from bundled %v", date, snap.WorldTotalUSD, *raw.ClaimedTotalUSD)
		}
	}
}

func TestLoadUnknownDate(t *testing.T) {
	_, err := Load("1999-01-01")
	var notFound *ErrNoSnapshot
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}
	if notFound.Date != "1999-01-01" {
		t.Fatalf("unexpected date in error: %s", notFound.Date)
	}
}

func TestLatest(t *testing.T) {
	latest, err := Latest()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest != "2025-10-08" {
		t.Fatalf("unexpected latest date: %s", latest)
	}
}
