package validation

import (
	"sort"
	"strings"
)

// scoreFraud is the Fraud Detector role: duplication and authenticity
// heuristics over the raw bytes and the parsed document, expressed as
// deterministic rules per the minimal-implementation option.
func scoreFraud(raw []byte, doc map[string]interface{}) (uint8, []string) {
	score := 90.0
	var issues []string

	if ratio := repetitionRatio(raw); ratio > 0.6 {
		issues = append(issues, "artifact content is highly repetitive")
		score -= 40 * ratio
	}

	if doc != nil {
		if dup := duplicateValueFraction(doc); dup > 0.5 {
			issues = append(issues, "more than half of fields share an identical value")
			score -= 30 * dup
		}
	}

	if len(raw) < 8 {
		issues = append(issues, "artifact is implausibly small")
		score -= 20
	}

	return clampScore(score), issues
}

// repetitionRatio estimates how repetitive raw is by comparing its length
// to the length of its run-length-collapsed form: a highly repetitive
// payload (e.g. padding to look larger than it is) collapses a lot.
func repetitionRatio(raw []byte) float64 {
	if len(raw) == 0 {
		return 0
	}
	collapsed := collapseRuns(raw)
	return 1 - float64(len(collapsed))/float64(len(raw))
}

func collapseRuns(raw []byte) []byte {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if i > 0 && raw[i] == raw[i-1] {
			continue
		}
		out = append(out, raw[i])
	}
	return out
}

// duplicateValueFraction returns the fraction of string-valued fields in
// doc that share an identical value with at least one other field —
// copy-paste across fields is a common low-effort forgery signature.
func duplicateValueFraction(doc map[string]interface{}) float64 {
	values := make([]string, 0, len(doc))
	for _, v := range doc {
		if s, ok := v.(string); ok && s != "" {
			values = append(values, s)
		}
	}
	if len(values) < 2 {
		return 0
	}
	sort.Strings(values)
	dup := 0
	for i := 1; i < len(values); i++ {
		if strings.EqualFold(values[i], values[i-1]) {
			dup++
		}
	}
	return float64(dup) / float64(len(values))
}
