package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ID string

func NewID() ID {
	return ID(uuid.NewString())
}

func ValidateID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

func (id ID) String() string {
	return string(id)
}

// Amount is a monetary value with exact decimal arithmetic.
type Amount = decimal.Decimal

func NewAmount(value string) (Amount, error) {
	return decimal.NewFromString(value)
}

func MustAmount(value string) Amount {
	return decimal.RequireFromString(value)
}

type Event interface {
	GetName() string
	GetEntityName() string
	GetEntityID() ID
}
