package store

import (
	"context"

	"github.com/credencehq/credence/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LinkStore struct {
	db *pgxpool.Pool
}

func NewLinkStore(db *pgxpool.Pool) *LinkStore {
	return &LinkStore{db: db}
}

func (s *LinkStore) Create(ctx context.Context, l *domain.BeliefLink) error {
	l.IsActive = true
	return s.db.QueryRow(ctx,
		`INSERT INTO belief_links (source_id, target_id, link_type, link_strength, total_contribution, is_active)
		 VALUES ($1, $2, $3, $4, $5, TRUE)
		 RETURNING id, created_at`,
		l.SourceID, l.TargetID, l.LinkType, l.LinkStrength, l.TotalContribution,
	).Scan(&l.ID, &l.CreatedAt)
}

func (s *LinkStore) GetOutgoing(ctx context.Context, beliefID uuid.UUID) ([]domain.BeliefLink, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, source_id, target_id, link_type, link_strength, total_contribution, is_active, created_at
		 FROM belief_links WHERE source_id = $1 AND is_active = TRUE`,
		beliefID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLinks(rows)
}

func (s *LinkStore) GetIncoming(ctx context.Context, beliefID uuid.UUID) ([]domain.BeliefLink, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, source_id, target_id, link_type, link_strength, total_contribution, is_active, created_at
		 FROM belief_links WHERE target_id = $1 AND is_active = TRUE`,
		beliefID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLinks(rows)
}

func (s *LinkStore) ListActive(ctx context.Context) ([]domain.BeliefLink, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, source_id, target_id, link_type, link_strength, total_contribution, is_active, created_at
		 FROM belief_links WHERE is_active = TRUE`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLinks(rows)
}

func (s *LinkStore) UpdateContribution(ctx context.Context, id uuid.UUID, contribution float64) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE belief_links SET total_contribution = $2 WHERE id = $1`,
		id, contribution,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *LinkStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE belief_links SET is_active = FALSE WHERE id = $1`,
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

func scanLinks(rows pgx.Rows) ([]domain.BeliefLink, error) {
	var links []domain.BeliefLink
	for rows.Next() {
		var l domain.BeliefLink
		if err := rows.Scan(&l.ID, &l.SourceID, &l.TargetID, &l.LinkType,
			&l.LinkStrength, &l.TotalContribution, &l.IsActive, &l.CreatedAt); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}
