package metrics

import (
	"sort"
	"time"
)

// TransactionKey tags, in precedence order. Scripts tag logical transactions
// explicitly; untagged protocol samples fall back to the k6 group, then to the
// request name.
const (
	TagTransaction = "transaction"
	TagGroup       = "group"
	TagName        = "name"
	TagScenario    = "scenario"
	TagURL         = "url"
	TagStatus      = "status"

	// UntaggedKey buckets samples that carry none of the transaction tags
	UntaggedKey = "(untagged)"
)

// TransactionKey derives the transaction bucket for a sample
func TransactionKey(s *Sample) string {
	if v := s.Tag(TagTransaction); v != "" {
		return v
	}
	if v := s.Tag(TagGroup); v != "" {
		return v
	}
	if v := s.Tag(TagName); v != "" {
		return v
	}
	return UntaggedKey
}

// ValuesFor returns all sample values for one metric, in stream order
func (r *Results) ValuesFor(metric string) []float64 {
	var values []float64
	for i := range r.Samples {
		if r.Samples[i].Metric == metric {
			values = append(values, r.Samples[i].Value)
		}
	}
	return values
}

// CountFor returns the number of samples for one metric
func (r *Results) CountFor(metric string) int64 {
	var n int64
	for i := range r.Samples {
		if r.Samples[i].Metric == metric {
			n++
		}
	}
	return n
}

// SumFor returns the sum of sample values for a counter metric
func (r *Results) SumFor(metric string) float64 {
	var sum float64
	for i := range r.Samples {
		if r.Samples[i].Metric == metric {
			sum += r.Samples[i].Value
		}
	}
	return sum
}

// ByTransaction groups one metric's values by transaction key
func (r *Results) ByTransaction(metric string) map[string][]float64 {
	groups := make(map[string][]float64)
	for i := range r.Samples {
		s := &r.Samples[i]
		if s.Metric != metric {
			continue
		}
		key := TransactionKey(s)
		groups[key] = append(groups[key], s.Value)
	}
	return groups
}

// ByTag groups one metric's values by an arbitrary tag. Samples missing the
// tag land in the UntaggedKey bucket.
func (r *Results) ByTag(metric, tag string) map[string][]float64 {
	groups := make(map[string][]float64)
	for i := range r.Samples {
		s := &r.Samples[i]
		if s.Metric != metric {
			continue
		}
		key := s.Tag(tag)
		if key == "" {
			key = UntaggedKey
		}
		groups[key] = append(groups[key], s.Value)
	}
	return groups
}

// FilterScenario returns a shallow copy of the results containing only samples
// tagged with the given scenario. An empty scenario returns the receiver.
func (r *Results) FilterScenario(scenario string) *Results {
	if scenario == "" {
		return r
	}
	filtered := &Results{
		Definitions:    r.Definitions,
		MalformedLines: r.MalformedLines,
	}
	for i := range r.Samples {
		if r.Samples[i].Tag(TagScenario) == scenario {
			filtered.Samples = append(filtered.Samples, r.Samples[i])
		}
	}
	return filtered
}

// TimeRange returns the first and last sample timestamps in the stream.
// ok is false when there are no samples.
func (r *Results) TimeRange() (first, last time.Time, ok bool) {
	if len(r.Samples) == 0 {
		return time.Time{}, time.Time{}, false
	}
	first = r.Samples[0].Time
	last = r.Samples[0].Time
	for i := range r.Samples {
		t := r.Samples[i].Time
		if t.Before(first) {
			first = t
		}
		if t.After(last) {
			last = t
		}
	}
	return first, last, true
}

// SortedKeys returns the keys of a grouping in deterministic order, so report
// tables render identically for identical input.
func SortedKeys[V any](groups map[string]V) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
