package bot

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"metior/internal/domain"

	tele "gopkg.in/telebot.v3"
)

// SnapshotSource is the slice of the snapshot service the bot needs.
type SnapshotSource interface {
	GetLatest(ctx context.Context) (*domain.Snapshot, error)
}

func StartTelegramBot(token string, snapshots SnapshotSource) {
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/meo", func(c tele.Context) error {
		snapshot, err := snapshots.GetLatest(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching snapshot: %v", err))
		}
		return c.Send(formatUnitPrice(snapshot))
	})

	b.Handle("/weights", func(c tele.Context) error {
		snapshot, err := snapshots.GetLatest(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching snapshot: %v", err))
		}
		return c.Send(formatWeights(snapshot))
	})

	b.Handle("/audit", func(c tele.Context) error {
		snapshot, err := snapshots.GetLatest(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching snapshot: %v", err))
		}
		return c.Send(formatAudit(snapshot))
	})

	log.Println("Telegram bot started")
	go b.Start()
}

func formatUnitPrice(s *domain.Snapshot) string {
	return fmt.Sprintf(
		"MEO %s\nUnit price: $%s\nWorld total: $%.4g\nComponents: %d",
		s.Date, formatUSD(s.UnitPriceUSD), s.WorldTotalUSD, len(s.Components),
	)
}

func formatWeights(s *domain.Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Weights %s\n", s.Date)
	for _, c := range s.Components {
		fmt.Fprintf(&sb, "%-4s %6.2f%%  $%.4g\n", c.Symbol, c.Weight*100, c.MarketCapUSD)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatAudit(s *domain.Snapshot) string {
	var weightSum float64
	for _, c := range s.Components {
		weightSum += c.Weight
	}
	priceDrift := 0.0
	if s.WorldTotalUSD > 0 {
		priceDrift = math.Abs(s.UnitPriceUSD-domain.Kappa*s.WorldTotalUSD) / (domain.Kappa * s.WorldTotalUSD)
	}
	return fmt.Sprintf(
		"Audit %s\nWeight sum: %.12f (drift %.2e)\nUnit price drift: %.2e\nComponents: %d",
		s.Date, weightSum, math.Abs(weightSum-1), priceDrift, len(s.Components),
	)
}

func formatUSD(v float64) string {
	if v >= 1e6 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
