package main

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"metior/internal/domain"
)

func TestCheckBundledSnapshots(t *testing.T) {
	var buf bytes.Buffer
	output = &buf
	t.Cleanup(func() { output = os.Stdout })

	if failed := run(""); failed != 0 {
		t.Fatalf("expected all bundled snapshots to pass, %d failed:\n%s", failed, buf.String())
	}
	if !strings.Contains(buf.String(), "Status: PASS") {
		t.Fatalf("expected PASS output, got:\n%s", buf.String())
	}
}

func TestCheckUnknownDate(t *testing.T) {
	var buf bytes.Buffer
	output = &buf
	t.Cleanup(func() { output = os.Stdout })

	if failed := run("1999-01-01"); failed != 1 {
		t.Fatalf("expected 1 failure, got %d", failed)
	}
}

func TestCheckSnapshotFlagsDrift(t *testing.T) {
	claimedTotal := 101e12
	claimedPrice := 100e6
	raw := domain.RawSnapshotInput{
		Date:             "2025-10-08",
		ClaimedTotalUSD:  &claimedTotal,
		ClaimedUnitPrice: &claimedPrice,
		Components: []domain.RawComponent{
			{Symbol: "XAU", MarketCapUSD: 60e12, CapPresent: true},
			{Symbol: "USD", MarketCapUSD: 40e12, CapPresent: true},
		},
	}

	res := checkSnapshot(raw)
	if len(res.issues) == 0 {
		t.Fatal("expected issues for drifted claims")
	}
}

func TestCheckSnapshotClean(t *testing.T) {
	claimedTotal := 100e12
	claimedPrice := 100e6
	raw := domain.RawSnapshotInput{
		Date:             "2025-10-08",
		ClaimedTotalUSD:  &claimedTotal,
		ClaimedUnitPrice: &claimedPrice,
		Components: []domain.RawComponent{
			{Symbol: "XAU", MarketCapUSD: 60e12, CapPresent: true},
			{Symbol: "USD", MarketCapUSD: 40e12, CapPresent: true},
		},
	}

	res := checkSnapshot(raw)
	if len(res.issues) != 0 {
		t.Fatalf("unexpected issues: %v", res.issues)
	}
	if res.impliedPrice != 100e6 {
		t.Fatalf("unexpected implied price: %v", res.impliedPrice)
	}
}
