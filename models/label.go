package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Label is one ranked candidate returned by the image classifier.
// Confidence is kept as a decimal so stored responses compare exactly.
type Label struct {
	Name       string          `json:"name"`
	Confidence decimal.Decimal `json:"confidence"`
}

var (
	minConfidence = decimal.Zero
	maxConfidence = decimal.NewFromInt(100)
)

// NewLabel builds a label from a classifier float.
func NewLabel(name string, confidence float64) Label {
	return Label{Name: name, Confidence: NormalizeConfidence(decimal.NewFromFloat(confidence))}
}

// NormalizeConfidence clamps c to [0, 100].
func NormalizeConfidence(c decimal.Decimal) decimal.Decimal {
	if c.LessThan(minConfidence) {
		return minConfidence
	}
	if c.GreaterThan(maxConfidence) {
		return maxConfidence
	}
	return c
}

// EncodeLabels serializes labels for the moves table.
func EncodeLabels(labels []Label) (datatypes.JSON, error) {
	if labels == nil {
		labels = []Label{}
	}
	data, err := json.Marshal(labels)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}
