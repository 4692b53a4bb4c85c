// Package validation implements the validation engine: a polymorphic
// scorer that turns a data artifact and its dataType tag into a bounded
// ValidationResult, deterministically, grounded on the teacher's
// extensions/bazaar schema-validation approach of treating an untrusted
// document as data to be scored rather than trusted as-is.
package validation

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
)

// Result is the validation engine's output: three sub-scores, a weighted
// blend, a pass/fail bit, and zero or more diagnostic issues.
type Result struct {
	Quality uint8    `json:"quality"`
	Fraud   uint8    `json:"fraud"`
	Price   uint8    `json:"price"`
	Overall uint8    `json:"overall"`
	Passed  bool     `json:"passed"`
	Issues  []string `json:"issues,omitempty"`
}

// Weights are the default blend weights for quality, fraud, and price.
type Weights struct {
	Quality float64
	Fraud   float64
	Price   float64
}

// DefaultWeights matches the spec's default blend: 0.4 quality, 0.4 fraud,
// 0.2 price.
var DefaultWeights = Weights{Quality: 0.4, Fraud: 0.4, Price: 0.2}

const passThreshold = 70

// Engine scores data artifacts deterministically. It holds the price
// history a PriceReviewer consults, keyed by dataType.
type Engine struct {
	weights       Weights
	priceHistory  map[string][]float64
}

// NewEngine builds an Engine using DefaultWeights and no price history
// (the PriceReviewer falls back to a neutral score for every dataType
// until history is recorded via RecordPrice).
func NewEngine() *Engine {
	return &Engine{weights: DefaultWeights, priceHistory: make(map[string][]float64)}
}

// WithWeights overrides the default blend weights.
func (e *Engine) WithWeights(w Weights) *Engine {
	e.weights = w
	return e
}

// RecordPrice feeds one observed price for dataType into the engine's
// historical range, used by the PriceReviewer role for subsequent scores.
func (e *Engine) RecordPrice(dataType string, price float64) {
	e.priceHistory[dataType] = append(e.priceHistory[dataType], price)
}

// RegisterDataType marks dataType as known to the engine even before any
// price has been recorded for it, so early scores against it get a neutral
// price score rather than the "unknown-type" treatment.
func (e *Engine) RegisterDataType(dataType string) {
	if _, ok := e.priceHistory[dataType]; !ok {
		e.priceHistory[dataType] = nil
	}
}

// Score runs the three scoring roles over artifact (raw bytes, expected to
// be JSON) tagged dataType, and blends their outputs into a Result. Score
// never returns an error for malformed or incomplete JSON — per the
// tolerance contract, that yields a low quality score and an issue rather
// than a raised error. Only input that neither parses as a JSON object or
// array nor begins like one produces ErrNotJSON.
func (e *Engine) Score(artifact []byte, dataType string, declaredPrice float64) (Result, error) {
	doc, parseIssue, err := parseArtifact(artifact)
	if err != nil {
		return Result{}, err
	}

	var issues []string
	if parseIssue != "" {
		issues = append(issues, parseIssue)
	}

	quality, qIssues := scoreQuality(doc)
	issues = append(issues, qIssues...)

	fraud, fIssues := scoreFraud(artifact, doc)
	issues = append(issues, fIssues...)

	price, pIssues := e.scorePrice(dataType, declaredPrice)
	issues = append(issues, pIssues...)

	overall := blend(e.weights, quality, fraud, price)

	return Result{
		Quality: quality,
		Fraud:   fraud,
		Price:   price,
		Overall: overall,
		Passed:  overall >= passThreshold,
		Issues:  issues,
	}, nil
}

func blend(w Weights, quality, fraud, price uint8) uint8 {
	score := w.Quality*float64(quality) + w.Fraud*float64(fraud) + w.Price*float64(price)
	return clampScore(score)
}

func clampScore(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return uint8(v)
}

func parseArtifact(artifact []byte) (map[string]interface{}, string, error) {
	if len(artifact) == 0 {
		return nil, "empty artifact", nil
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(artifact, &doc); err != nil {
		// A top-level JSON array is legitimate input, just not a document
		// the quality/fraud roles can inspect field-by-field; treat as
		// incomplete rather than a hard failure.
		var arr []interface{}
		if arrErr := json.Unmarshal(artifact, &arr); arrErr == nil {
			return nil, "artifact is a JSON array, not an object", nil
		}
		// Input that opens like a JSON object or array but does not parse is
		// malformed JSON: scored low with an issue rather than refused.
		if trimmed := bytes.TrimSpace(artifact); len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
			return nil, "artifact is malformed JSON", nil
		}
		return nil, "", ErrNotJSON
	}
	return doc, "", nil
}

// DataHash returns the SHA-256 hash of artifact, the identifier the ledger
// uses to correlate a ValidationRequest to the scored content.
func DataHash(artifact []byte) [32]byte {
	return sha256.Sum256(artifact)
}
