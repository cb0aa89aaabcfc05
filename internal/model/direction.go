// Package model defines the core domain models used throughout the application.
package model

import "fmt"

// Direction indicates whether money left or entered the account.
type Direction string

// Direction constants.
const (
	DirectionExpense Direction = "expense"
	DirectionIncome  Direction = "income"
)

// ParseDirection converts a payload type string to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "expense":
		return DirectionExpense, nil
	case "income":
		return DirectionIncome, nil
	default:
		return "", fmt.Errorf("unknown direction %q", s)
	}
}
