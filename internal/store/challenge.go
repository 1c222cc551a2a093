package store

import (
	"context"

	"github.com/credencehq/credence/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChallengeStore struct {
	db *pgxpool.Pool
}

func NewChallengeStore(db *pgxpool.Pool) *ChallengeStore {
	return &ChallengeStore{db: db}
}

func (s *ChallengeStore) Create(ctx context.Context, e *domain.ChallengeEvent) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO challenge_events (belief_id, type, score_delta, notes)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		e.BeliefID, e.Type, e.ScoreDelta, e.Notes,
	).Scan(&e.ID, &e.CreatedAt)
}

func (s *ChallengeStore) GetByBelief(ctx context.Context, beliefID uuid.UUID) ([]domain.ChallengeEvent, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, belief_id, type, score_delta, notes, created_at
		 FROM challenge_events WHERE belief_id = $1
		 ORDER BY created_at DESC`,
		beliefID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.ChallengeEvent
	for rows.Next() {
		var e domain.ChallengeEvent
		if err := rows.Scan(&e.ID, &e.BeliefID, &e.Type, &e.ScoreDelta, &e.Notes, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
