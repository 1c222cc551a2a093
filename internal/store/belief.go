package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/credencehq/credence/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

type BeliefStore struct {
	db *pgxpool.Pool
}

func NewBeliefStore(db *pgxpool.Pool) *BeliefStore {
	return &BeliefStore{db: db}
}

func (s *BeliefStore) Create(ctx context.Context, b *domain.Belief) error {
	var embedding *pgvector.Vector
	if len(b.Embedding) > 0 {
		v := pgvector.NewVector(b.Embedding)
		embedding = &v
	}

	if b.Status == "" {
		b.Status = domain.BeliefProposed
	}
	if b.AggregateScore == 0 {
		b.AggregateScore = domain.NeutralScore
	}

	return s.db.QueryRow(ctx,
		`INSERT INTO beliefs (statement, status, aggregate_score, specificity, sentiment, embedding, author, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, 1)
		 RETURNING id, version, created_at, updated_at`,
		b.Statement, b.Status, b.AggregateScore, b.Dimensions.Specificity, b.Dimensions.Sentiment, embedding, b.Author,
	).Scan(&b.ID, &b.Version, &b.CreatedAt, &b.UpdatedAt)
}

func (s *BeliefStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Belief, error) {
	b := &domain.Belief{}
	err := s.db.QueryRow(ctx,
		`SELECT id, statement, status, aggregate_score, specificity, sentiment, author,
		        incoming_links, outgoing_links, influence_score, centrality,
		        version, created_at, updated_at
		 FROM beliefs WHERE id = $1`,
		id,
	).Scan(&b.ID, &b.Statement, &b.Status, &b.AggregateScore,
		&b.Dimensions.Specificity, &b.Dimensions.Sentiment, &b.Author,
		&b.LinkStats.Incoming, &b.LinkStats.Outgoing, &b.LinkStats.InfluenceScore, &b.LinkStats.Centrality,
		&b.Version, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *BeliefStore) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Belief, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, statement, status, aggregate_score, specificity, sentiment, author,
		        incoming_links, outgoing_links, influence_score, centrality,
		        version, created_at, updated_at
		 FROM beliefs WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var beliefs []domain.Belief
	for rows.Next() {
		var b domain.Belief
		if err := rows.Scan(&b.ID, &b.Statement, &b.Status, &b.AggregateScore,
			&b.Dimensions.Specificity, &b.Dimensions.Sentiment, &b.Author,
			&b.LinkStats.Incoming, &b.LinkStats.Outgoing, &b.LinkStats.InfluenceScore, &b.LinkStats.Centrality,
			&b.Version, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		beliefs = append(beliefs, b)
	}
	return beliefs, rows.Err()
}

// UpdateAggregate is a compare-and-swap on version. A zero-row update
// against an existing belief means a concurrent writer got there first.
func (s *BeliefStore) UpdateAggregate(ctx context.Context, id uuid.UUID, aggregate float64, expectedVersion int64) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE beliefs
		 SET aggregate_score = $2, version = version + 1, updated_at = NOW()
		 WHERE id = $1 AND version = $3`,
		id, aggregate, expectedVersion,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.db.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM beliefs WHERE id = $1)`, id,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrConflict
	}
	return nil
}

func (s *BeliefStore) UpdateLinkStats(ctx context.Context, id uuid.UUID, stats domain.LinkStatistics) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE beliefs
		 SET incoming_links = $2, outgoing_links = $3, influence_score = $4, centrality = $5, updated_at = NOW()
		 WHERE id = $1`,
		id, stats.Incoming, stats.Outgoing, stats.InfluenceScore, stats.Centrality,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *BeliefStore) SetStatus(ctx context.Context, id uuid.UUID, status domain.BeliefStatus) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE beliefs SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *BeliefStore) FindSimilar(ctx context.Context, embedding []float32, threshold float64, limit int) ([]domain.BeliefWithScore, error) {
	if limit <= 0 {
		limit = 10
	}

	vec := pgvector.NewVector(embedding)

	rows, err := s.db.Query(ctx,
		`SELECT id, statement, status, aggregate_score, specificity, sentiment, author,
		        incoming_links, outgoing_links, influence_score, centrality,
		        version, created_at, updated_at,
		        1 - (embedding <=> $1) AS similarity
		 FROM beliefs
		 WHERE embedding IS NOT NULL
		   AND status != 'archived'
		   AND 1 - (embedding <=> $1) >= $2
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		vec, threshold, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("similar beliefs query: %w", err)
	}
	defer rows.Close()

	var results []domain.BeliefWithScore
	for rows.Next() {
		var bs domain.BeliefWithScore
		if err := rows.Scan(&bs.ID, &bs.Statement, &bs.Status, &bs.AggregateScore,
			&bs.Dimensions.Specificity, &bs.Dimensions.Sentiment, &bs.Author,
			&bs.LinkStats.Incoming, &bs.LinkStats.Outgoing, &bs.LinkStats.InfluenceScore, &bs.LinkStats.Centrality,
			&bs.Version, &bs.CreatedAt, &bs.UpdatedAt,
			&bs.Similarity); err != nil {
			return nil, fmt.Errorf("scan similar belief: %w", err)
		}
		results = append(results, bs)
	}
	return results, rows.Err()
}
