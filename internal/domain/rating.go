package domain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrMalformedRecord is returned when a stored rating document does not have
// the expected shape.
var ErrMalformedRecord = errors.New("domain: malformed rating record")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Rating represents a single rating of a game as read from the gameRatings
// collection.
type Rating struct {
	GameID float64
	Value  float64
}

// ratingDocument mirrors the stored JSON. Pointer fields let validation tell
// a missing field apart from a zero value.
type ratingDocument struct {
	GameID *float64 `json:"gameId" validate:"required"`
	Rating *float64 `json:"rating" validate:"required"`
}

// DecodeRating parses a raw rating document. Missing fields, non-numeric
// values and invalid JSON all yield an error wrapping ErrMalformedRecord.
func DecodeRating(raw []byte) (Rating, error) {
	var doc ratingDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Rating{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if err := validate.Struct(doc); err != nil {
		return Rating{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return Rating{GameID: *doc.GameID, Value: *doc.Rating}, nil
}
