package analysis

import (
	"sort"

	"leavingrate/domain/metrics"
)

// Aggregate groups sessions by (participant, condition), sums their raw
// counts and derives every ratio once per group. Output is sorted by key.
func Aggregate(sessions []metrics.SessionMetrics) []metrics.AggregateMetrics {
	counts := make(map[metrics.GroupKey]metrics.Counts)
	n := make(map[metrics.GroupKey]int)
	for _, s := range sessions {
		key := s.Key.Group()
		counts[key] = counts[key].Add(s.Counts)
		n[key]++
	}

	keys := sortedGroupKeys(n)
	out := make([]metrics.AggregateMetrics, 0, len(keys))
	for _, key := range keys {
		out = append(out, metrics.NewAggregateMetrics(key, counts[key], n[key]))
	}
	return out
}

// AggregateVisits does the same for the duration scenario: durations and
// visit counts are summed before the rates are recomputed.
func AggregateVisits(sessions []metrics.VisitMetrics) []metrics.AggregateVisitMetrics {
	counts := make(map[metrics.GroupKey]metrics.VisitCounts)
	n := make(map[metrics.GroupKey]int)
	for _, s := range sessions {
		key := s.Key.Group()
		counts[key] = counts[key].Add(s.Counts)
		n[key]++
	}

	keys := sortedGroupKeys(n)
	out := make([]metrics.AggregateVisitMetrics, 0, len(keys))
	for _, key := range keys {
		out = append(out, metrics.NewAggregateVisitMetrics(key, counts[key], n[key]))
	}
	return out
}

func sortedGroupKeys(n map[metrics.GroupKey]int) []metrics.GroupKey {
	keys := make([]metrics.GroupKey, 0, len(n))
	for k := range n {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}
