package document

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document is a stored entity keyed by a UUID string _id.
type Document interface {
	GetID() string
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	value, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("invalid decimal %s: %w", d.String(), err)
	}
	return value, nil
}

func fromDecimal128(value primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid stored decimal %s: %w", value.String(), err)
	}
	return d, nil
}
