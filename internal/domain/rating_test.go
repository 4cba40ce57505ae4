package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRating(t *testing.T) {
	got, err := DecodeRating([]byte(`{"gameId": 12, "rating": 4.5, "userId": "u1"}`))
	require.NoError(t, err)
	assert.Equal(t, Rating{GameID: 12, Value: 4.5}, got)

	got, err = DecodeRating([]byte(`{"gameId": 12, "rating": 0}`))
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.Value)
}

func TestDecodeRatingMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"invalid json", `{"gameId":`},
		{"missing rating", `{"gameId": 1}`},
		{"missing game id", `{"rating": 3}`},
		{"null rating", `{"gameId": 1, "rating": null}`},
		{"string rating", `{"gameId": 1, "rating": "4"}`},
		{"string game id", `{"gameId": "1", "rating": 4}`},
		{"not an object", `[1, 2]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRating([]byte(tt.raw))
			require.ErrorIs(t, err, ErrMalformedRecord)
		})
	}
}
