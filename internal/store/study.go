package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/credencehq/credence/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StudyStore struct {
	db *pgxpool.Pool
}

func NewStudyStore(db *pgxpool.Pool) *StudyStore {
	return &StudyStore{db: db}
}

func (s *StudyStore) Create(ctx context.Context, st *domain.Study) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO studies (title, doi, replication_attempts, replication_successes, replication_failures)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		st.Title, st.DOI,
		st.ReplicationInfo.Attempts, st.ReplicationInfo.Successes, st.ReplicationInfo.Failures,
	).Scan(&st.ID, &st.CreatedAt, &st.UpdatedAt)
}

func (s *StudyStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Study, error) {
	st := &domain.Study{}
	err := s.db.QueryRow(ctx,
		`SELECT id, title, doi, page_rank_score,
		        replication_attempts, replication_successes, replication_failures,
		        created_at, updated_at
		 FROM studies WHERE id = $1`,
		id,
	).Scan(&st.ID, &st.Title, &st.DOI, &st.NetworkMetrics.PageRankScore,
		&st.ReplicationInfo.Attempts, &st.ReplicationInfo.Successes, &st.ReplicationInfo.Failures,
		&st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.loadCitations(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *StudyStore) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Study, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, title, doi, page_rank_score,
		        replication_attempts, replication_successes, replication_failures,
		        created_at, updated_at
		 FROM studies WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var studies []domain.Study
	for rows.Next() {
		var st domain.Study
		if err := rows.Scan(&st.ID, &st.Title, &st.DOI, &st.NetworkMetrics.PageRankScore,
			&st.ReplicationInfo.Attempts, &st.ReplicationInfo.Successes, &st.ReplicationInfo.Failures,
			&st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, err
		}
		studies = append(studies, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range studies {
		if err := s.loadCitations(ctx, &studies[i]); err != nil {
			return nil, err
		}
	}
	return studies, nil
}

// AddReference writes citingID → citedID. Both directions of the
// denormalized edge and the cited study's citation count move in one
// transaction so the two lists can never disagree.
func (s *StudyStore) AddReference(ctx context.Context, citingID, citedID uuid.UUID) error {
	if citingID == citedID {
		return fmt.Errorf("study cannot cite itself")
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO study_citations (citing_id, cited_id)
		 VALUES ($1, $2)
		 ON CONFLICT (citing_id, cited_id) DO NOTHING`,
		citingID, citedID,
	)
	if err != nil {
		return err
	}
	// Duplicate edge: count already reflects it.
	if tag.RowsAffected() == 0 {
		return tx.Commit(ctx)
	}

	tag, err = tx.Exec(ctx,
		`UPDATE studies SET citation_count = citation_count + 1, updated_at = NOW() WHERE id = $1`,
		citedID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return tx.Commit(ctx)
}

func (s *StudyStore) UpdatePageRank(ctx context.Context, id uuid.UUID, score float64) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE studies SET page_rank_score = $2, updated_at = NOW() WHERE id = $1`,
		id, score,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *StudyStore) CreateStance(ctx context.Context, st *domain.StudyStance) error {
	st.StanceStrength = st.ComputeStanceStrength()
	return s.db.QueryRow(ctx,
		`INSERT INTO study_stances (study_id, belief_id, position, relevance, evidence_quality, stance_strength)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		st.StudyID, st.BeliefID, st.Position, st.Relevance, st.EvidenceQuality, st.StanceStrength,
	).Scan(&st.ID, &st.CreatedAt)
}

func (s *StudyStore) GetStancesByBelief(ctx context.Context, beliefID uuid.UUID) ([]domain.StudyStance, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, study_id, belief_id, position, relevance, evidence_quality, stance_strength, created_at
		 FROM study_stances WHERE belief_id = $1
		 ORDER BY stance_strength DESC`,
		beliefID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stances []domain.StudyStance
	for rows.Next() {
		var st domain.StudyStance
		if err := rows.Scan(&st.ID, &st.StudyID, &st.BeliefID, &st.Position,
			&st.Relevance, &st.EvidenceQuality, &st.StanceStrength, &st.CreatedAt); err != nil {
			return nil, err
		}
		stances = append(stances, st)
	}
	return stances, rows.Err()
}

func (s *StudyStore) loadCitations(ctx context.Context, st *domain.Study) error {
	rows, err := s.db.Query(ctx,
		`SELECT citing_id, cited_id FROM study_citations
		 WHERE citing_id = $1 OR cited_id = $1`,
		st.ID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	st.CitationMetrics.References = nil
	st.CitationMetrics.CitedBy = nil
	for rows.Next() {
		var citing, cited uuid.UUID
		if err := rows.Scan(&citing, &cited); err != nil {
			return err
		}
		if citing == st.ID {
			st.CitationMetrics.References = append(st.CitationMetrics.References, cited)
		} else {
			st.CitationMetrics.CitedBy = append(st.CitationMetrics.CitedBy, citing)
		}
	}
	st.CitationMetrics.CitationCount = len(st.CitationMetrics.CitedBy)
	return rows.Err()
}
