package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFingerprint_NormalizesRenderings(t *testing.T) {
	base := Fingerprint(decimal.RequireFromString("25.50"), "starbucks", DirectionExpense)

	tests := []struct {
		name        string
		amount      string
		counterpart string
		direction   Direction
		wantSame    bool
	}{
		{name: "identical", amount: "25.50", counterpart: "starbucks", direction: DirectionExpense, wantSame: true},
		{name: "trailing zero dropped", amount: "25.5", counterpart: "starbucks", direction: DirectionExpense, wantSame: true},
		{name: "mixed case counterpart", amount: "25.50", counterpart: "StarBucks", direction: DirectionExpense, wantSame: true},
		{name: "surrounding whitespace", amount: "25.50", counterpart: "  Starbucks ", direction: DirectionExpense, wantSame: true},
		{name: "different amount", amount: "25.51", counterpart: "starbucks", direction: DirectionExpense, wantSame: false},
		{name: "different counterpart", amount: "25.50", counterpart: "dunkin", direction: DirectionExpense, wantSame: false},
		{name: "different direction", amount: "25.50", counterpart: "starbucks", direction: DirectionIncome, wantSame: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fingerprint(decimal.RequireFromString(tt.amount), tt.counterpart, tt.direction)
			if tt.wantSame {
				assert.Equal(t, base, got)
			} else {
				assert.NotEqual(t, base, got)
			}
		})
	}
}

func TestClassificationResult_Fingerprint(t *testing.T) {
	r := &ClassificationResult{
		Counterpart: " Starbucks ",
		Direction:   DirectionExpense,
		Amount:      decimal.RequireFromString("25.5"),
	}
	assert.Equal(t, "25.50|starbucks|expense", r.Fingerprint())
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("expense")
	assert.NoError(t, err)
	assert.Equal(t, DirectionExpense, d)

	d, err = ParseDirection("income")
	assert.NoError(t, err)
	assert.Equal(t, DirectionIncome, d)

	_, err = ParseDirection("transfer")
	assert.Error(t, err)
}

func TestSnapshot_JoinedText(t *testing.T) {
	s := Snapshot{Lines: []string{"Payment successful", "¥25.50"}}
	assert.Equal(t, "Payment successful\n¥25.50", s.JoinedText())

	empty := Snapshot{}
	assert.Empty(t, empty.JoinedText())
}
