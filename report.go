package main

import (
	"errors"
	"sort"

	dto "github.com/prometheus/client_model/go"

	"github.com/tonimelisma/gdrive-go/internal/graph"
)

// reportCalls logs how many Drive API calls the command made, per
// operation and outcome, at debug level.
func reportCalls(cc *CLIContext) {
	families, err := cc.Registry.Gather()
	if err != nil {
		cc.Logger.Debug("gathering metrics failed", "error", err)
		return
	}

	counts := callCounts(families)
	if len(counts) == 0 {
		return
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	args := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		args = append(args, k, int64(counts[k]))
	}

	cc.Logger.Debug("drive api calls", args...)
}

// callCounts sums the API call counter into "op/outcome" keys.
func callCounts(families []*dto.MetricFamily) map[string]float64 {
	counts := make(map[string]float64)

	for _, mf := range families {
		if mf.GetName() != graph.MetricCalls {
			continue
		}

		for _, m := range mf.GetMetric() {
			var op, outcome string

			for _, lp := range m.GetLabel() {
				switch lp.GetName() {
				case "op":
					op = lp.GetValue()
				case "outcome":
					outcome = lp.GetValue()
				}
			}

			counts[op+"/"+outcome] += m.GetCounter().GetValue()
		}
	}

	return counts
}

// describeError renders err for the final "Error:" line, adding a login
// hint to authentication failures.
func describeError(err error) string {
	msg := err.Error()

	if errors.Is(err, graph.ErrAuth) && !errors.Is(err, graph.ErrNotLoggedIn) {
		msg += " (" + notLoggedInHint + ")"
	}

	return msg
}
