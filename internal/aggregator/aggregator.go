// Package aggregator computes the average rating of a game from the ratings
// stored for it.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Clark-Hu/game-ratings/internal/domain"
	"github.com/Clark-Hu/game-ratings/internal/logging"
)

var (
	// ErrInvalidArgument is returned when the game identifier is not numeric.
	ErrInvalidArgument = errors.New("aggregator: invalid argument")
	// ErrInternal is returned when the ratings store could not be read.
	ErrInternal = errors.New("aggregator: internal error")
)

// RatingsStore is the read side of the gameRatings collection.
type RatingsStore interface {
	ListByGame(ctx context.Context, gameID float64) ([]domain.Rating, error)
}

// AverageRating is either the zero value, encoded as the number 0, or a mean
// encoded as a string with one fractional digit.
type AverageRating struct {
	formatted string
}

// NewAverageRating formats mean with one fractional digit. The exact binary
// value of mean is rounded, ties away from zero, so 4.35 (stored as
// 4.3499...) gives "4.3", 4.25 gives "4.3" and -0.01 gives "-0.0".
func NewAverageRating(mean float64) AverageRating {
	return AverageRating{formatted: formatTenths(mean)}
}

func formatTenths(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}

	// 256 bits hold v*10 exactly.
	scaled := new(big.Float).SetPrec(256).SetFloat64(math.Abs(v))
	scaled.Mul(scaled, big.NewFloat(10))
	tenths, _ := scaled.Int(nil)
	frac := new(big.Float).SetPrec(256).Sub(scaled, new(big.Float).SetInt(tenths))
	if frac.Cmp(big.NewFloat(0.5)) >= 0 {
		tenths.Add(tenths, big.NewInt(1))
	}

	digits := tenths.String()
	if len(digits) < 2 {
		digits = "0" + digits
	}
	sign := ""
	if v < 0 {
		sign = "-"
	}
	return sign + digits[:len(digits)-1] + "." + digits[len(digits)-1:]
}

// IsZero reports whether no ratings contributed to the average.
func (a AverageRating) IsZero() bool {
	return a.formatted == ""
}

func (a AverageRating) String() string {
	if a.IsZero() {
		return "0"
	}
	return a.formatted
}

// MarshalJSON keeps the empty case as the bare number 0 and every computed
// mean as a string such as "4.3".
func (a AverageRating) MarshalJSON() ([]byte, error) {
	if a.IsZero() {
		return []byte("0"), nil
	}
	return []byte(strconv.Quote(a.formatted)), nil
}

// Result is the aggregate returned to callers.
type Result struct {
	GameID        float64       `json:"gameId"`
	AverageRating AverageRating `json:"averageRating"`
}

// Aggregator reduces a game's ratings to their arithmetic mean.
type Aggregator struct {
	store  RatingsStore
	logger *zap.SugaredLogger
}

// New constructs an Aggregator reading from st.
func New(st RatingsStore, logger *zap.SugaredLogger) *Aggregator {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Aggregator{store: st, logger: logger}
}

var radixPrefixes = map[string]int{"0x": 16, "0b": 2, "0o": 8}

// ParseGameID converts the textual identifier into the numeric value stored
// in rating documents. Decimal and exponent literals are accepted, as are
// unsigned 0x, 0b and 0o integer literals. Blank input is rejected.
func ParseGameID(raw string) (float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty gameId", ErrInvalidArgument)
	}
	if len(trimmed) > 2 {
		if base, ok := radixPrefixes[strings.ToLower(trimmed[:2])]; ok {
			return parseRadixGameID(raw, trimmed[2:], base)
		}
	}
	id, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(id) || math.IsInf(id, 0) {
		return 0, fmt.Errorf("%w: gameId %q is not a number", ErrInvalidArgument, raw)
	}
	return id, nil
}

func parseRadixGameID(raw, digits string, base int) (float64, error) {
	if digits[0] == '+' || digits[0] == '-' {
		return 0, fmt.Errorf("%w: gameId %q is not a number", ErrInvalidArgument, raw)
	}
	n, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return 0, fmt.Errorf("%w: gameId %q is not a number", ErrInvalidArgument, raw)
	}
	id, _ := new(big.Float).SetInt(n).Float64()
	if math.IsInf(id, 0) {
		return 0, fmt.Errorf("%w: gameId %q is out of range", ErrInvalidArgument, raw)
	}
	return id, nil
}

// ComputeAverageRating queries the store once for gameID and returns the mean
// of every matching rating.
func (a *Aggregator) ComputeAverageRating(ctx context.Context, gameID string) (Result, error) {
	id, err := ParseGameID(gameID)
	if err != nil {
		return Result{}, err
	}

	ratings, err := a.store.ListByGame(ctx, id)
	if err != nil {
		a.logger.Errorw("error fetching ratings", "gameId", id, "error", err)
		return Result{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	return Result{GameID: id, AverageRating: average(ratings)}, nil
}

func average(ratings []domain.Rating) AverageRating {
	if len(ratings) == 0 {
		return AverageRating{}
	}
	// Summing in sorted order makes the result independent of the order the
	// store returned the documents in.
	values := make([]float64, len(ratings))
	for i, r := range ratings {
		values[i] = r.Value
	}
	slices.Sort(values)
	var total float64
	for _, v := range values {
		total += v
	}
	return NewAverageRating(total / float64(len(ratings)))
}
