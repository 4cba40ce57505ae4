package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/game-ratings/internal/domain"
	"github.com/Clark-Hu/game-ratings/internal/logging"
)

// memoryStore is an in-memory RatingsStore keyed by gameId.
type memoryStore struct {
	ratings []domain.Rating
	err     error
	calls   int
}

func (m *memoryStore) ListByGame(ctx context.Context, gameID float64) ([]domain.Rating, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Rating
	for _, r := range m.ratings {
		if r.GameID == gameID {
			out = append(out, r)
		}
	}
	return out, nil
}

func ratingsFor(gameID float64, values ...float64) []domain.Rating {
	out := make([]domain.Rating, 0, len(values))
	for _, v := range values {
		out = append(out, domain.Rating{GameID: gameID, Value: v})
	}
	return out
}

func TestComputeAverageRating(t *testing.T) {
	tests := []struct {
		name    string
		ratings []domain.Rating
		gameID  string
		want    string
	}{
		{"three whole ratings", ratingsFor(1, 3, 4, 5), "1", `{"gameId":1,"averageRating":"4.0"}`},
		{"half result", ratingsFor(1, 4, 5), "1", `{"gameId":1,"averageRating":"4.5"}`},
		{"single rating rounds up", ratingsFor(1, 4.26), "1", `{"gameId":1,"averageRating":"4.3"}`},
		{"rounds down", ratingsFor(1, 4.24), "1", `{"gameId":1,"averageRating":"4.2"}`},
		{"no ratings", ratingsFor(2, 5), "1", `{"gameId":1,"averageRating":0}`},
		{"other games ignored", append(ratingsFor(1, 1), ratingsFor(2, 5, 5)...), "1", `{"gameId":1,"averageRating":"1.0"}`},
		{"whitespace and decimal id", ratingsFor(1.5, 2), " 1.5 ", `{"gameId":1.5,"averageRating":"2.0"}`},
		{"zero ratings average", ratingsFor(9, 0, 0), "9", `{"gameId":9,"averageRating":"0.0"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &memoryStore{ratings: tt.ratings}
			agg := New(st, logging.Nop())

			res, err := agg.ComputeAverageRating(context.Background(), tt.gameID)
			require.NoError(t, err)
			assert.Equal(t, 1, st.calls)

			payload, err := json.Marshal(res)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(payload))
		})
	}
}

func TestComputeAverageRating_EmptyIsNumericZero(t *testing.T) {
	agg := New(&memoryStore{}, logging.Nop())

	res, err := agg.ComputeAverageRating(context.Background(), "123")
	require.NoError(t, err)
	assert.True(t, res.AverageRating.IsZero())

	payload, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Equal(t, `{"gameId":123,"averageRating":0}`, string(payload))
}

func TestComputeAverageRating_OrderIndependent(t *testing.T) {
	values := []float64{0.1, 4.7, 3.3, 2.2, 5, 1.15, 0.35, 4.95}
	permutations := [][]int{
		{0, 1, 2, 3, 4, 5, 6, 7},
		{7, 6, 5, 4, 3, 2, 1, 0},
		{3, 0, 7, 1, 6, 2, 5, 4},
	}

	var first string
	for i, perm := range permutations {
		ratings := make([]domain.Rating, 0, len(perm))
		for _, idx := range perm {
			ratings = append(ratings, domain.Rating{GameID: 1, Value: values[idx]})
		}
		res, err := New(&memoryStore{ratings: ratings}, logging.Nop()).ComputeAverageRating(context.Background(), "1")
		require.NoError(t, err)
		if i == 0 {
			first = res.AverageRating.String()
			continue
		}
		assert.Equal(t, first, res.AverageRating.String(), "permutation %v", perm)
	}
}

func TestComputeAverageRating_InvalidArgument(t *testing.T) {
	for _, raw := range []string{
		"abc", "", "  ", "12abc", "NaN", "Inf", "-Infinity", "1,5",
		"0x", "-0x1A", "0x+1A", "0x1p-2", "0b12", "0o8", "0x1_0",
	} {
		t.Run(raw, func(t *testing.T) {
			st := &memoryStore{}
			_, err := New(st, logging.Nop()).ComputeAverageRating(context.Background(), raw)
			require.ErrorIs(t, err, ErrInvalidArgument)
			assert.Zero(t, st.calls, "store must not be queried")
		})
	}
}

func TestComputeAverageRating_StoreFailure(t *testing.T) {
	storeErr := errors.New("connection refused")
	st := &memoryStore{err: storeErr}

	_, err := New(st, logging.Nop()).ComputeAverageRating(context.Background(), "5")
	require.ErrorIs(t, err, ErrInternal)
	assert.Equal(t, 1, st.calls, "no retries")
}

func TestNewAverageRating(t *testing.T) {
	tests := []struct {
		mean float64
		want string
	}{
		{0, "0.0"},
		{3.75, "3.8"},
		{2.74, "2.7"},
		{4.5, "4.5"},
		{199.94, "199.9"},
		{-2.25, "-2.3"},
		{4.25, "4.3"},
		{4.35, "4.3"},
		{1.45, "1.4"},
		{0.05, "0.1"},
		{-0.04, "-0.0"},
		{-0.01, "-0.0"},
		{math.Copysign(0, -1), "0.0"},
		{4.0 / 3.0, "1.3"},
		{1e6 + 0.06, "1000000.1"},
	}

	for _, tt := range tests {
		got := NewAverageRating(tt.mean)
		assert.Equal(t, tt.want, got.String(), "mean %v", tt.mean)
		assert.False(t, got.IsZero())
	}
}

func TestParseGameID(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"123", 123},
		{"-4", -4},
		{"1e3", 1000},
		{" 42 ", 42},
		{"0.5", 0.5},
		{"0x1A", 26},
		{"0X1a", 26},
		{"0b11", 3},
		{"0o7", 7},
		{"0xFFFFFFFFFFFFFFFFFF", 4722366482869645213696},
	}
	for _, tt := range tests {
		got, err := ParseGameID(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got)
	}
}
