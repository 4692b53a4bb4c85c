package validation

import "time"

// scoreQuality is the Quality Analyst role: schema presence, field
// completeness, and timestamp coherence, expressed as deterministic rules
// per the minimal-implementation option the spec allows in place of an
// LLM-driven role.
func scoreQuality(doc map[string]interface{}) (uint8, []string) {
	if doc == nil {
		return 10, []string{"artifact has no inspectable fields"}
	}
	if len(doc) == 0 {
		return 15, []string{"artifact is an empty object"}
	}

	score := 60.0
	var issues []string

	nonEmpty := 0
	for _, v := range doc {
		if !isEmptyValue(v) {
			nonEmpty++
		}
	}
	completeness := float64(nonEmpty) / float64(len(doc))
	score += completeness * 25

	if completeness < 0.5 {
		issues = append(issues, "more than half of fields are empty or null")
	}

	if ts, ok := findTimestamp(doc); ok {
		switch coherence := timestampCoherence(ts); coherence {
		case coherenceGood:
			score += 15
		case coherenceFuture:
			issues = append(issues, "timestamp is in the future")
			score -= 10
		case coherenceStale:
			score += 5
		}
	} else {
		issues = append(issues, "no coherent timestamp field found")
	}

	return clampScore(score), issues
}

func isEmptyValue(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []interface{}:
		return len(t) == 0
	case map[string]interface{}:
		return len(t) == 0
	default:
		return false
	}
}

var timestampFields = []string{"timestamp", "createdAt", "created_at", "time", "ts"}

func findTimestamp(doc map[string]interface{}) (time.Time, bool) {
	for _, field := range timestampFields {
		raw, ok := doc[field]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case string:
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				return t, true
			}
		case float64:
			return time.Unix(int64(v), 0), true
		}
	}
	return time.Time{}, false
}

type coherence int

const (
	coherenceGood coherence = iota
	coherenceFuture
	coherenceStale
)

// timestampCoherence judges a parsed timestamp against "now": more than a
// minute in the future is incoherent; more than a year old is stale but
// not incoherent.
func timestampCoherence(t time.Time) coherence {
	now := time.Now()
	if t.After(now.Add(time.Minute)) {
		return coherenceFuture
	}
	if now.Sub(t) > 365*24*time.Hour {
		return coherenceStale
	}
	return coherenceGood
}
