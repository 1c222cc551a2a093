package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/credencehq/credence/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ConfidenceStore struct {
	db *pgxpool.Pool
}

func NewConfidenceStore(db *pgxpool.Pool) *ConfidenceStore {
	return &ConfidenceStore{db: db}
}

func (s *ConfidenceStore) GetByBelief(ctx context.Context, beliefID uuid.UUID) (*domain.ConfidenceInterval, error) {
	ci := &domain.ConfidenceInterval{}
	var history []byte
	err := s.db.QueryRow(ctx,
		`SELECT belief_id,
		        examination_score, examination_weight,
		        stability_score, stability_weight,
		        knowability_score, knowability_weight, knowability_category, max_ci_cap,
		        challenge_score, challenge_weight,
		        ci_score, confidence_level, score_history, version, updated_at
		 FROM confidence_intervals WHERE belief_id = $1`,
		beliefID,
	).Scan(&ci.BeliefID,
		&ci.UserExamination.Score, &ci.UserExamination.Weight,
		&ci.ScoreStability.Score, &ci.ScoreStability.Weight,
		&ci.Knowability.Score, &ci.Knowability.Weight, &ci.Knowability.Category, &ci.Knowability.MaxCICap,
		&ci.ChallengeResistance.Score, &ci.ChallengeResistance.Weight,
		&ci.CIScore, &ci.Level, &history, &ci.Version, &ci.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &ci.ScoreHistory); err != nil {
			return nil, err
		}
	}
	return ci, nil
}

// Save upserts the interval. For an existing row the write is a
// compare-and-swap on version, so the history append cannot clobber a
// concurrent recompute.
func (s *ConfidenceStore) Save(ctx context.Context, ci *domain.ConfidenceInterval) error {
	history, err := json.Marshal(ci.ScoreHistory)
	if err != nil {
		return err
	}

	if ci.Version == 0 {
		return s.db.QueryRow(ctx,
			`INSERT INTO confidence_intervals
			 (belief_id, examination_score, examination_weight, stability_score, stability_weight,
			  knowability_score, knowability_weight, knowability_category, max_ci_cap,
			  challenge_score, challenge_weight, ci_score, confidence_level, score_history, version)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 1)
			 RETURNING version, updated_at`,
			ci.BeliefID,
			ci.UserExamination.Score, ci.UserExamination.Weight,
			ci.ScoreStability.Score, ci.ScoreStability.Weight,
			ci.Knowability.Score, ci.Knowability.Weight, ci.Knowability.Category, ci.Knowability.MaxCICap,
			ci.ChallengeResistance.Score, ci.ChallengeResistance.Weight,
			ci.CIScore, ci.Level, history,
		).Scan(&ci.Version, &ci.UpdatedAt)
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE confidence_intervals
		 SET examination_score = $2, examination_weight = $3,
		     stability_score = $4, stability_weight = $5,
		     knowability_score = $6, knowability_weight = $7, knowability_category = $8, max_ci_cap = $9,
		     challenge_score = $10, challenge_weight = $11,
		     ci_score = $12, confidence_level = $13, score_history = $14,
		     version = version + 1, updated_at = NOW()
		 WHERE belief_id = $1 AND version = $15`,
		ci.BeliefID,
		ci.UserExamination.Score, ci.UserExamination.Weight,
		ci.ScoreStability.Score, ci.ScoreStability.Weight,
		ci.Knowability.Score, ci.Knowability.Weight, ci.Knowability.Category, ci.Knowability.MaxCICap,
		ci.ChallengeResistance.Score, ci.ChallengeResistance.Weight,
		ci.CIScore, ci.Level, history, ci.Version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	ci.Version++
	return nil
}
