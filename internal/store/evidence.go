package store

import (
	"context"

	"github.com/credencehq/credence/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EvidenceStore struct {
	db *pgxpool.Pool
}

func NewEvidenceStore(db *pgxpool.Pool) *EvidenceStore {
	return &EvidenceStore{db: db}
}

func (s *EvidenceStore) Create(ctx context.Context, e *domain.Evidence) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO evidence (belief_id, side, tier, title, source_url, source_independence_weight, replication_quantity, replication_percentage, conclusion_relevance)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at`,
		e.BeliefID, e.Side, e.Tier, e.Title, e.SourceURL,
		e.SourceIndependenceWeight, e.ReplicationQuantity, e.ReplicationPercentage, e.ConclusionRelevance,
	).Scan(&e.ID, &e.CreatedAt)
}

func (s *EvidenceStore) GetByBelief(ctx context.Context, beliefID uuid.UUID) ([]domain.Evidence, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, belief_id, side, tier, title, source_url, source_independence_weight, replication_quantity, replication_percentage, conclusion_relevance, created_at
		 FROM evidence WHERE belief_id = $1
		 ORDER BY created_at ASC`,
		beliefID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Evidence
	for rows.Next() {
		var e domain.Evidence
		if err := rows.Scan(&e.ID, &e.BeliefID, &e.Side, &e.Tier, &e.Title, &e.SourceURL,
			&e.SourceIndependenceWeight, &e.ReplicationQuantity, &e.ReplicationPercentage,
			&e.ConclusionRelevance, &e.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}
