package store

import (
	"context"
	"errors"

	"github.com/credencehq/credence/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CriteriaStore struct {
	db *pgxpool.Pool
}

func NewCriteriaStore(db *pgxpool.Pool) *CriteriaStore {
	return &CriteriaStore{db: db}
}

func (s *CriteriaStore) Create(ctx context.Context, c *domain.ObjectiveCriteria) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO objective_criteria (topic_id, name, description, validity_score, reliability_score, independence_score, linkage_score, total_score, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)
		 RETURNING id, version, created_at, updated_at`,
		c.TopicID, c.Name, c.Description,
		c.ValidityScore, c.ReliabilityScore, c.IndependenceScore, c.LinkageScore, c.TotalScore,
	).Scan(&c.ID, &c.Version, &c.CreatedAt, &c.UpdatedAt)
}

func (s *CriteriaStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ObjectiveCriteria, error) {
	c := &domain.ObjectiveCriteria{}
	err := s.db.QueryRow(ctx,
		`SELECT id, topic_id, name, description, validity_score, reliability_score, independence_score, linkage_score, total_score, version, created_at, updated_at
		 FROM objective_criteria WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.TopicID, &c.Name, &c.Description,
		&c.ValidityScore, &c.ReliabilityScore, &c.IndependenceScore, &c.LinkageScore,
		&c.TotalScore, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *CriteriaStore) AddArgument(ctx context.Context, a *domain.CriteriaArgument) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO criteria_arguments (criteria_id, dimension, direction, content, evidence_quality, logical_validity, importance, weight)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		a.CriteriaID, a.Dimension, a.Direction, a.Content,
		a.EvidenceQuality, a.LogicalValidity, a.Importance, a.Weight,
	).Scan(&a.ID, &a.CreatedAt)
}

func (s *CriteriaStore) GetArguments(ctx context.Context, criteriaID uuid.UUID) ([]domain.CriteriaArgument, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, criteria_id, dimension, direction, content, evidence_quality, logical_validity, importance, weight, created_at
		 FROM criteria_arguments WHERE criteria_id = $1
		 ORDER BY created_at ASC`,
		criteriaID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var args []domain.CriteriaArgument
	for rows.Next() {
		var a domain.CriteriaArgument
		if err := rows.Scan(&a.ID, &a.CriteriaID, &a.Dimension, &a.Direction, &a.Content,
			&a.EvidenceQuality, &a.LogicalValidity, &a.Importance, &a.Weight, &a.CreatedAt); err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	return args, rows.Err()
}

// UpdateScores persists recomputed dimension and total scores. The
// write is a compare-and-swap on version.
func (s *CriteriaStore) UpdateScores(ctx context.Context, c *domain.ObjectiveCriteria) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE objective_criteria
		 SET validity_score = $2, reliability_score = $3, independence_score = $4, linkage_score = $5,
		     total_score = $6, version = version + 1, updated_at = NOW()
		 WHERE id = $1 AND version = $7`,
		c.ID, c.ValidityScore, c.ReliabilityScore, c.IndependenceScore, c.LinkageScore,
		c.TotalScore, c.Version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	c.Version++
	return nil
}

func (s *CriteriaStore) UpdateArgumentWeight(ctx context.Context, id uuid.UUID, weight float64) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE criteria_arguments SET weight = $2 WHERE id = $1`,
		id, weight,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
