package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/game-ratings/internal/domain"
)

// RatingsRepository reads the gameRatings document collection. Each row of
// game_ratings holds one JSON document.
type RatingsRepository struct {
	pool *pgxpool.Pool
}

// ListByGame returns every rating whose gameId field equals gameID. The
// comparison happens on jsonb values, so a document storing "12" as a string
// never matches the number 12.
func (r *RatingsRepository) ListByGame(ctx context.Context, gameID float64) ([]domain.Rating, error) {
	const query = `
        SELECT doc
        FROM game_ratings
        WHERE doc->'gameId' = to_jsonb($1::float8)
    `

	rows, err := r.pool.Query(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	defer rows.Close()

	var ratings []domain.Rating
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		rating, err := domain.DecodeRating(raw)
		if err != nil {
			return nil, fmt.Errorf("decode rating: %w", err)
		}
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}
	return ratings, nil
}
