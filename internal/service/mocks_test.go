package service

import (
	"context"
	"time"

	"github.com/credencehq/credence/internal/domain"
	"github.com/credencehq/credence/internal/store"
	"github.com/google/uuid"
)

// mockBeliefStore implements domain.BeliefStore for testing.
type mockBeliefStore struct {
	beliefs map[uuid.UUID]*domain.Belief
	// conflictsLeft forces that many ErrConflict results from
	// UpdateAggregate before writes start succeeding.
	conflictsLeft int
	similar       []domain.BeliefWithScore
}

func newMockBeliefStore() *mockBeliefStore {
	return &mockBeliefStore{beliefs: make(map[uuid.UUID]*domain.Belief)}
}

func (m *mockBeliefStore) add(statement string, aggregate float64) *domain.Belief {
	b := &domain.Belief{
		ID:             uuid.New(),
		Statement:      statement,
		Status:         domain.BeliefProposed,
		AggregateScore: aggregate,
		Version:        1,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	m.beliefs[b.ID] = b
	return b
}

func (m *mockBeliefStore) Create(ctx context.Context, b *domain.Belief) error {
	b.ID = uuid.New()
	b.Version = 1
	b.CreatedAt = time.Now()
	b.UpdatedAt = time.Now()
	m.beliefs[b.ID] = b
	return nil
}

func (m *mockBeliefStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Belief, error) {
	b, ok := m.beliefs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (m *mockBeliefStore) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Belief, error) {
	var out []domain.Belief
	for _, id := range ids {
		if b, ok := m.beliefs[id]; ok {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *mockBeliefStore) UpdateAggregate(ctx context.Context, id uuid.UUID, aggregate float64, expectedVersion int64) error {
	b, ok := m.beliefs[id]
	if !ok {
		return store.ErrNotFound
	}
	if m.conflictsLeft > 0 {
		m.conflictsLeft--
		b.Version++
		return store.ErrConflict
	}
	if b.Version != expectedVersion {
		return store.ErrConflict
	}
	b.AggregateScore = aggregate
	b.Version++
	return nil
}

func (m *mockBeliefStore) UpdateLinkStats(ctx context.Context, id uuid.UUID, stats domain.LinkStatistics) error {
	b, ok := m.beliefs[id]
	if !ok {
		return store.ErrNotFound
	}
	b.LinkStats = stats
	return nil
}

func (m *mockBeliefStore) SetStatus(ctx context.Context, id uuid.UUID, status domain.BeliefStatus) error {
	b, ok := m.beliefs[id]
	if !ok {
		return store.ErrNotFound
	}
	b.Status = status
	return nil
}

func (m *mockBeliefStore) FindSimilar(ctx context.Context, embedding []float32, threshold float64, limit int) ([]domain.BeliefWithScore, error) {
	return m.similar, nil
}

// mockArgumentStore implements domain.ArgumentStore for testing.
type mockArgumentStore struct {
	arguments map[uuid.UUID]*domain.Argument
}

func newMockArgumentStore() *mockArgumentStore {
	return &mockArgumentStore{arguments: make(map[uuid.UUID]*domain.Argument)}
}

func (m *mockArgumentStore) add(parent, child uuid.UUID, side domain.Side, truth, linkage, importance float64) *domain.Argument {
	a := &domain.Argument{
		ID:              uuid.New(),
		ParentBeliefID:  parent,
		ChildBeliefID:   child,
		Side:            side,
		Statement:       "arg " + uuid.NewString(),
		TruthScore:      truth,
		LinkageScore:    linkage,
		ImportanceScore: importance,
		CreatedAt:       time.Now(),
	}
	m.arguments[a.ID] = a
	return a
}

func (m *mockArgumentStore) Create(ctx context.Context, a *domain.Argument) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = time.Now()
	m.arguments[a.ID] = a
	return nil
}

func (m *mockArgumentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Argument, error) {
	a, ok := m.arguments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return a, nil
}

func (m *mockArgumentStore) GetByParent(ctx context.Context, parentBeliefID uuid.UUID, includeArchived bool) ([]domain.Argument, error) {
	var out []domain.Argument
	for _, a := range m.arguments {
		if a.ParentBeliefID != parentBeliefID {
			continue
		}
		if a.Archived && !includeArchived {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (m *mockArgumentStore) GetByChildBelief(ctx context.Context, childBeliefID uuid.UUID) ([]domain.Argument, error) {
	var out []domain.Argument
	for _, a := range m.arguments {
		if a.ChildBeliefID == childBeliefID && !a.Archived {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockArgumentStore) Reparent(ctx context.Context, fromBeliefID, toBeliefID uuid.UUID) (int64, error) {
	var moved int64
	for _, a := range m.arguments {
		if a.ParentBeliefID == fromBeliefID {
			a.ParentBeliefID = toBeliefID
			moved++
		}
	}
	return moved, nil
}

func (m *mockArgumentStore) Archive(ctx context.Context, id uuid.UUID) error {
	a, ok := m.arguments[id]
	if !ok {
		return store.ErrNotFound
	}
	a.Archived = true
	return nil
}

func (m *mockArgumentStore) UpdateImpact(ctx context.Context, id uuid.UUID, impact float64) error {
	a, ok := m.arguments[id]
	if !ok {
		return store.ErrNotFound
	}
	a.ImpactScore = impact
	return nil
}

func (m *mockArgumentStore) UpdateEquivalency(ctx context.Context, id uuid.UUID, score float64, redundantOf *uuid.UUID) error {
	a, ok := m.arguments[id]
	if !ok {
		return store.ErrNotFound
	}
	a.EquivalencyScore = score
	a.RedundantOfID = redundantOf
	return nil
}

// mockEvidenceStore implements domain.EvidenceStore for testing.
type mockEvidenceStore struct {
	evidence map[uuid.UUID]*domain.Evidence
}

func newMockEvidenceStore() *mockEvidenceStore {
	return &mockEvidenceStore{evidence: make(map[uuid.UUID]*domain.Evidence)}
}

func (m *mockEvidenceStore) Create(ctx context.Context, e *domain.Evidence) error {
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	m.evidence[e.ID] = e
	return nil
}

func (m *mockEvidenceStore) GetByBelief(ctx context.Context, beliefID uuid.UUID) ([]domain.Evidence, error) {
	var out []domain.Evidence
	for _, e := range m.evidence {
		if e.BeliefID == beliefID {
			out = append(out, *e)
		}
	}
	return out, nil
}

// mockLinkStore implements domain.LinkStore for testing.
type mockLinkStore struct {
	links map[uuid.UUID]*domain.BeliefLink
}

func newMockLinkStore() *mockLinkStore {
	return &mockLinkStore{links: make(map[uuid.UUID]*domain.BeliefLink)}
}

func (m *mockLinkStore) Create(ctx context.Context, l *domain.BeliefLink) error {
	l.ID = uuid.New()
	l.IsActive = true
	l.CreatedAt = time.Now()
	m.links[l.ID] = l
	return nil
}

func (m *mockLinkStore) GetOutgoing(ctx context.Context, beliefID uuid.UUID) ([]domain.BeliefLink, error) {
	var out []domain.BeliefLink
	for _, l := range m.links {
		if l.SourceID == beliefID && l.IsActive {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *mockLinkStore) GetIncoming(ctx context.Context, beliefID uuid.UUID) ([]domain.BeliefLink, error) {
	var out []domain.BeliefLink
	for _, l := range m.links {
		if l.TargetID == beliefID && l.IsActive {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *mockLinkStore) ListActive(ctx context.Context) ([]domain.BeliefLink, error) {
	var out []domain.BeliefLink
	for _, l := range m.links {
		if l.IsActive {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *mockLinkStore) UpdateContribution(ctx context.Context, id uuid.UUID, contribution float64) error {
	l, ok := m.links[id]
	if !ok {
		return store.ErrNotFound
	}
	l.TotalContribution = contribution
	return nil
}

func (m *mockLinkStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	l, ok := m.links[id]
	if !ok {
		return store.ErrNotFound
	}
	l.IsActive = false
	return nil
}

// mockStudyStore implements domain.StudyStore for testing.
type mockStudyStore struct {
	studies map[uuid.UUID]*domain.Study
	stances map[uuid.UUID]*domain.StudyStance
}

func newMockStudyStore() *mockStudyStore {
	return &mockStudyStore{
		studies: make(map[uuid.UUID]*domain.Study),
		stances: make(map[uuid.UUID]*domain.StudyStance),
	}
}

func (m *mockStudyStore) add(title string) *domain.Study {
	st := &domain.Study{
		ID:        uuid.New(),
		Title:     title,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.studies[st.ID] = st
	return st
}

func (m *mockStudyStore) Create(ctx context.Context, st *domain.Study) error {
	st.ID = uuid.New()
	st.CreatedAt = time.Now()
	st.UpdatedAt = time.Now()
	m.studies[st.ID] = st
	return nil
}

func (m *mockStudyStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Study, error) {
	st, ok := m.studies[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return st, nil
}

func (m *mockStudyStore) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Study, error) {
	var out []domain.Study
	for _, id := range ids {
		if st, ok := m.studies[id]; ok {
			out = append(out, *st)
		}
	}
	return out, nil
}

func (m *mockStudyStore) AddReference(ctx context.Context, citingID, citedID uuid.UUID) error {
	citing, ok := m.studies[citingID]
	if !ok {
		return store.ErrNotFound
	}
	cited, ok := m.studies[citedID]
	if !ok {
		return store.ErrNotFound
	}
	for _, existing := range citing.CitationMetrics.References {
		if existing == citedID {
			return nil
		}
	}
	citing.CitationMetrics.References = append(citing.CitationMetrics.References, citedID)
	cited.CitationMetrics.CitedBy = append(cited.CitationMetrics.CitedBy, citingID)
	cited.CitationMetrics.CitationCount++
	return nil
}

func (m *mockStudyStore) UpdatePageRank(ctx context.Context, id uuid.UUID, score float64) error {
	st, ok := m.studies[id]
	if !ok {
		return store.ErrNotFound
	}
	st.NetworkMetrics.PageRankScore = score
	return nil
}

func (m *mockStudyStore) CreateStance(ctx context.Context, st *domain.StudyStance) error {
	st.ID = uuid.New()
	st.CreatedAt = time.Now()
	m.stances[st.ID] = st
	return nil
}

func (m *mockStudyStore) GetStancesByBelief(ctx context.Context, beliefID uuid.UUID) ([]domain.StudyStance, error) {
	var out []domain.StudyStance
	for _, st := range m.stances {
		if st.BeliefID == beliefID {
			out = append(out, *st)
		}
	}
	return out, nil
}

// mockConfidenceStore implements domain.ConfidenceStore for testing.
type mockConfidenceStore struct {
	intervals map[uuid.UUID]*domain.ConfidenceInterval
}

func newMockConfidenceStore() *mockConfidenceStore {
	return &mockConfidenceStore{intervals: make(map[uuid.UUID]*domain.ConfidenceInterval)}
}

func (m *mockConfidenceStore) GetByBelief(ctx context.Context, beliefID uuid.UUID) (*domain.ConfidenceInterval, error) {
	ci, ok := m.intervals[beliefID]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *ci
	copied.ScoreHistory = append([]domain.ScorePoint(nil), ci.ScoreHistory...)
	return &copied, nil
}

func (m *mockConfidenceStore) Save(ctx context.Context, ci *domain.ConfidenceInterval) error {
	existing, ok := m.intervals[ci.BeliefID]
	if ok && existing.Version != ci.Version {
		return store.ErrConflict
	}
	ci.Version++
	ci.UpdatedAt = time.Now()
	copied := *ci
	copied.ScoreHistory = append([]domain.ScorePoint(nil), ci.ScoreHistory...)
	m.intervals[ci.BeliefID] = &copied
	return nil
}

// mockChallengeStore implements domain.ChallengeStore for testing.
type mockChallengeStore struct {
	events []domain.ChallengeEvent
}

func newMockChallengeStore() *mockChallengeStore {
	return &mockChallengeStore{}
}

func (m *mockChallengeStore) Create(ctx context.Context, e *domain.ChallengeEvent) error {
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	m.events = append(m.events, *e)
	return nil
}

func (m *mockChallengeStore) GetByBelief(ctx context.Context, beliefID uuid.UUID) ([]domain.ChallengeEvent, error) {
	var out []domain.ChallengeEvent
	for _, e := range m.events {
		if e.BeliefID == beliefID {
			out = append(out, e)
		}
	}
	return out, nil
}

// mockCriteriaStore implements domain.CriteriaStore for testing.
type mockCriteriaStore struct {
	criteria  map[uuid.UUID]*domain.ObjectiveCriteria
	arguments map[uuid.UUID]*domain.CriteriaArgument
}

func newMockCriteriaStore() *mockCriteriaStore {
	return &mockCriteriaStore{
		criteria:  make(map[uuid.UUID]*domain.ObjectiveCriteria),
		arguments: make(map[uuid.UUID]*domain.CriteriaArgument),
	}
}

func (m *mockCriteriaStore) Create(ctx context.Context, c *domain.ObjectiveCriteria) error {
	c.ID = uuid.New()
	c.Version = 1
	c.CreatedAt = time.Now()
	c.UpdatedAt = time.Now()
	copied := *c
	m.criteria[c.ID] = &copied
	return nil
}

func (m *mockCriteriaStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ObjectiveCriteria, error) {
	c, ok := m.criteria[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *mockCriteriaStore) AddArgument(ctx context.Context, a *domain.CriteriaArgument) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	m.arguments[a.ID] = a
	return nil
}

func (m *mockCriteriaStore) GetArguments(ctx context.Context, criteriaID uuid.UUID) ([]domain.CriteriaArgument, error) {
	var out []domain.CriteriaArgument
	for _, a := range m.arguments {
		if a.CriteriaID == criteriaID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockCriteriaStore) UpdateScores(ctx context.Context, c *domain.ObjectiveCriteria) error {
	existing, ok := m.criteria[c.ID]
	if !ok {
		return store.ErrNotFound
	}
	if existing.Version != c.Version {
		return store.ErrConflict
	}
	c.Version++
	copied := *c
	m.criteria[c.ID] = &copied
	return nil
}

func (m *mockCriteriaStore) UpdateArgumentWeight(ctx context.Context, id uuid.UUID, weight float64) error {
	a, ok := m.arguments[id]
	if !ok {
		return store.ErrNotFound
	}
	a.Weight = weight
	return nil
}

// mockOracle implements domain.SimilarityOracle with a fixed pair table.
type mockOracle struct {
	pairs map[string]float64
}

func newMockOracle() *mockOracle {
	return &mockOracle{pairs: make(map[string]float64)}
}

func (m *mockOracle) set(a, b string, sim float64) {
	m.pairs[a+"|"+b] = sim
	m.pairs[b+"|"+a] = sim
}

func (m *mockOracle) Similarity(ctx context.Context, textA, textB string) (float64, error) {
	if sim, ok := m.pairs[textA+"|"+textB]; ok {
		return sim, nil
	}
	return 0, nil
}

// mockEmbedder implements domain.EmbeddingClient for testing.
type mockEmbedder struct {
	err error
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}
