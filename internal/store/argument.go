package store

import (
	"context"
	"errors"

	"github.com/credencehq/credence/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ArgumentStore struct {
	db *pgxpool.Pool
}

func NewArgumentStore(db *pgxpool.Pool) *ArgumentStore {
	return &ArgumentStore{db: db}
}

func (s *ArgumentStore) Create(ctx context.Context, a *domain.Argument) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO arguments (parent_belief_id, child_belief_id, side, statement, truth_score, linkage_score, importance_score, impact_score, certifying_agent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`,
		a.ParentBeliefID, a.ChildBeliefID, a.Side, a.Statement,
		a.TruthScore, a.LinkageScore, a.ImportanceScore, a.ImpactScore, a.CertifyingAgent,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (s *ArgumentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Argument, error) {
	a := &domain.Argument{}
	err := s.db.QueryRow(ctx,
		`SELECT id, parent_belief_id, child_belief_id, side, statement, truth_score, linkage_score, importance_score, impact_score,
		        equivalency_score, redundant_of_id, certifying_agent, archived, created_at, updated_at
		 FROM arguments WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.ParentBeliefID, &a.ChildBeliefID, &a.Side, &a.Statement,
		&a.TruthScore, &a.LinkageScore, &a.ImportanceScore, &a.ImpactScore,
		&a.EquivalencyScore, &a.RedundantOfID, &a.CertifyingAgent, &a.Archived, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *ArgumentStore) GetByParent(ctx context.Context, parentBeliefID uuid.UUID, includeArchived bool) ([]domain.Argument, error) {
	query := `SELECT id, parent_belief_id, child_belief_id, side, statement, truth_score, linkage_score, importance_score, impact_score,
	                 equivalency_score, redundant_of_id, certifying_agent, archived, created_at, updated_at
	          FROM arguments WHERE parent_belief_id = $1`
	if !includeArchived {
		query += ` AND archived = FALSE`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.Query(ctx, query, parentBeliefID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanArguments(rows)
}

func (s *ArgumentStore) GetByChildBelief(ctx context.Context, childBeliefID uuid.UUID) ([]domain.Argument, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, parent_belief_id, child_belief_id, side, statement, truth_score, linkage_score, importance_score, impact_score,
		        equivalency_score, redundant_of_id, certifying_agent, archived, created_at, updated_at
		 FROM arguments WHERE child_belief_id = $1 AND archived = FALSE`,
		childBeliefID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanArguments(rows)
}

func (s *ArgumentStore) Reparent(ctx context.Context, fromBeliefID, toBeliefID uuid.UUID) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE arguments SET parent_belief_id = $2, updated_at = NOW()
		 WHERE parent_belief_id = $1`,
		fromBeliefID, toBeliefID,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *ArgumentStore) Archive(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE arguments SET archived = TRUE, updated_at = NOW() WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ArgumentStore) UpdateImpact(ctx context.Context, id uuid.UUID, impact float64) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE arguments SET impact_score = $2, updated_at = NOW() WHERE id = $1`,
		id, impact,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ArgumentStore) UpdateEquivalency(ctx context.Context, id uuid.UUID, score float64, redundantOf *uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE arguments SET equivalency_score = $2, redundant_of_id = $3, updated_at = NOW() WHERE id = $1`,
		id, score, redundantOf,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanArguments(rows pgx.Rows) ([]domain.Argument, error) {
	var args []domain.Argument
	for rows.Next() {
		var a domain.Argument
		if err := rows.Scan(&a.ID, &a.ParentBeliefID, &a.ChildBeliefID, &a.Side, &a.Statement,
			&a.TruthScore, &a.LinkageScore, &a.ImportanceScore, &a.ImpactScore,
			&a.EquivalencyScore, &a.RedundantOfID, &a.CertifyingAgent, &a.Archived, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	return args, rows.Err()
}
