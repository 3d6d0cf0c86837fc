// Command check verifies bundled snapshots offline: weights must sum to
// one, the claimed world total must match the cap sum, and the claimed unit
// price must match kappa times the total. Tolerances here are tighter than
// the serving path because bundled data is authored, not measured.
package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"metior/internal/domain"
	"metior/internal/numeraire"
	"metior/internal/staticdata"
)

const (
	maxWeightSumError = 1e-12
	maxRelativeError  = 1e-9
)

var (
	output   io.Writer = os.Stdout
	exitFunc           = os.Exit
)

type checkResult struct {
	sumWeights   float64
	sumCaps      float64
	impliedPrice float64
	issues       []string
}

func checkSnapshot(raw domain.RawSnapshotInput) checkResult {
	var res checkResult

	snap, err := numeraire.Normalize(raw)
	if err != nil {
		res.issues = append(res.issues, err.Error())
		return res
	}

	for _, c := range snap.Components {
		res.sumWeights += c.Weight
		res.sumCaps += c.MarketCapUSD
	}
	res.impliedPrice = domain.Kappa * res.sumCaps

	if weightError := math.Abs(res.sumWeights - 1); weightError > maxWeightSumError {
		res.issues = append(res.issues, fmt.Sprintf("weights do not sum to 1 (error %g)", weightError))
	}
	if raw.ClaimedTotalUSD != nil {
		capError := math.Abs(res.sumCaps-*raw.ClaimedTotalUSD) / *raw.ClaimedTotalUSD
		if capError > maxRelativeError {
			res.issues = append(res.issues, fmt.Sprintf("m_world_usd mismatch: sumCaps=%v, expected=%v", res.sumCaps, *raw.ClaimedTotalUSD))
		}
	}
	if raw.ClaimedUnitPrice != nil {
		priceError := math.Abs(res.impliedPrice-*raw.ClaimedUnitPrice) / *raw.ClaimedUnitPrice
		if priceError > maxRelativeError {
			res.issues = append(res.issues, fmt.Sprintf("meo_usd mismatch: implied=%v, expected=%v", res.impliedPrice, *raw.ClaimedUnitPrice))
		}
	}
	return res
}

func run(date string) int {
	dates := staticdata.Dates()
	if date != "" {
		dates = []string{date}
	}

	failed := 0
	for _, d := range dates {
		raw, err := staticdata.Load(d)
		if err != nil {
			fmt.Fprintf(output, "Snapshot %s: %v\n", d, err)
			failed++
			continue
		}

		res := checkSnapshot(raw)
		fmt.Fprintf(output, "Snapshot: %s\n", d)
		fmt.Fprintf(output, "Sum weights: %.12f\n", res.sumWeights)
		fmt.Fprintf(output, "Sum caps (USD): %.0f\n", res.sumCaps)
		fmt.Fprintf(output, "Implied MEO price (USD): %.0f\n", res.impliedPrice)

		if len(res.issues) == 0 {
			fmt.Fprintln(output, "Status: PASS")
			continue
		}
		fmt.Fprintln(output, "Status: FAIL")
		for _, issue := range res.issues {
			fmt.Fprintln(output, "- "+issue)
		}
		failed++
	}
	return failed
}

func main() {
	date := flag.String("date", "", "check a single bundled snapshot date (default: all)")
	flag.Parse()

	if failed := run(*date); failed > 0 {
		exitFunc(1)
	}
}
