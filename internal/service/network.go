package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/credencehq/credence/internal/domain"
	"github.com/credencehq/credence/internal/store"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

var (
	ErrSelfLink        = errors.New("a belief cannot link to itself")
	ErrInvalidLinkType = errors.New("invalid link type")
	ErrLinkStrength    = errors.New("link_strength must be in [0,1]")
)

const (
	networkCacheTTL     = 5 * time.Minute
	networkCacheCleanup = 10 * time.Minute
)

// NetworkAnalyzer maintains the SUPPORTS/OPPOSES link graph and the
// per-belief influence and centrality figures derived from it. Derived
// metrics are cached until a recompute or link mutation invalidates
// them.
type NetworkAnalyzer struct {
	beliefs domain.BeliefStore
	links   domain.LinkStore
	cache   *gocache.Cache
	logger  *zap.Logger
}

func NewNetworkAnalyzer(beliefs domain.BeliefStore, links domain.LinkStore, logger *zap.Logger) *NetworkAnalyzer {
	return &NetworkAnalyzer{
		beliefs: beliefs,
		links:   links,
		cache:   gocache.New(networkCacheTTL, networkCacheCleanup),
		logger:  logger,
	}
}

// CreateLink adds a directed edge and seeds its contribution from the
// target's current aggregate.
func (a *NetworkAnalyzer) CreateLink(ctx context.Context, link *domain.BeliefLink) error {
	if link.SourceID == link.TargetID {
		return ErrSelfLink
	}
	if !domain.ValidLinkType(string(link.LinkType)) {
		return ErrInvalidLinkType
	}
	if link.LinkStrength < 0 || link.LinkStrength > 1 {
		return ErrLinkStrength
	}

	if _, err := a.beliefs.GetByID(ctx, link.SourceID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrBeliefNotFound
		}
		return err
	}
	target, err := a.beliefs.GetByID(ctx, link.TargetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrBeliefNotFound
		}
		return err
	}

	link.TotalContribution = link.ContributionFor(target.AggregateScore)
	if err := a.links.Create(ctx, link); err != nil {
		return fmt.Errorf("create link: %w", err)
	}

	a.Invalidate(link.SourceID)
	a.Invalidate(link.TargetID)
	return nil
}

// Metrics returns the belief's network position, served from cache
// when fresh.
func (a *NetworkAnalyzer) Metrics(ctx context.Context, beliefID uuid.UUID) (*domain.NetworkMetrics, error) {
	if cached, ok := a.cache.Get(beliefID.String()); ok {
		m := cached.(domain.NetworkMetrics)
		return &m, nil
	}
	return a.Refresh(ctx, beliefID)
}

// Refresh recomputes influence and centrality, persists the snapshot on
// the belief row and repopulates the cache.
func (a *NetworkAnalyzer) Refresh(ctx context.Context, beliefID uuid.UUID) (*domain.NetworkMetrics, error) {
	if _, err := a.beliefs.GetByID(ctx, beliefID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBeliefNotFound
		}
		return nil, err
	}

	outgoing, err := a.links.GetOutgoing(ctx, beliefID)
	if err != nil {
		return nil, fmt.Errorf("load outgoing links: %w", err)
	}
	incoming, err := a.links.GetIncoming(ctx, beliefID)
	if err != nil {
		return nil, fmt.Errorf("load incoming links: %w", err)
	}

	metrics := domain.NetworkMetrics{
		BeliefID: beliefID,
		Incoming: len(incoming),
		Outgoing: len(outgoing),
	}

	// Isolated beliefs carry zero influence and centrality; neutral
	// would overstate a node nobody connects to.
	if len(outgoing)+len(incoming) > 0 {
		influence, err := a.influenceScore(ctx, outgoing)
		if err != nil {
			return nil, err
		}
		metrics.InfluenceScore = influence

		total, err := a.links.ListActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("load active links: %w", err)
		}
		if len(total) > 0 {
			metrics.Centrality = float64(len(incoming)+len(outgoing)) / float64(len(total))
		}
	}

	stats := domain.LinkStatistics{
		Incoming:       metrics.Incoming,
		Outgoing:       metrics.Outgoing,
		InfluenceScore: metrics.InfluenceScore,
		Centrality:     metrics.Centrality,
	}
	if err := a.beliefs.UpdateLinkStats(ctx, beliefID, stats); err != nil {
		return nil, fmt.Errorf("persist link stats: %w", err)
	}

	a.cache.Set(beliefID.String(), metrics, gocache.DefaultExpiration)
	return &metrics, nil
}

// influenceScore sums linkStrength × target aggregate over the active
// outgoing links. A belief at a modest score still carries high
// influence when it props up strong conclusions.
func (a *NetworkAnalyzer) influenceScore(ctx context.Context, outgoing []domain.BeliefLink) (float64, error) {
	if len(outgoing) == 0 {
		return 0, nil
	}
	targetIDs := make([]uuid.UUID, 0, len(outgoing))
	for i := range outgoing {
		targetIDs = append(targetIDs, outgoing[i].TargetID)
	}
	targets, err := a.beliefs.ListByIDs(ctx, targetIDs)
	if err != nil {
		return 0, fmt.Errorf("load link targets: %w", err)
	}
	aggregates := make(map[uuid.UUID]float64, len(targets))
	for i := range targets {
		aggregates[targets[i].ID] = targets[i].AggregateScore
	}
	var sum float64
	for i := range outgoing {
		sum += domain.ClampUnit(outgoing[i].LinkStrength) * aggregates[outgoing[i].TargetID]
	}
	return sum, nil
}

// RefreshContributions rewrites the stored contribution of every link
// pointing at the belief after its aggregate changed.
func (a *NetworkAnalyzer) RefreshContributions(ctx context.Context, beliefID uuid.UUID, aggregate float64) error {
	incoming, err := a.links.GetIncoming(ctx, beliefID)
	if err != nil {
		return fmt.Errorf("load incoming links: %w", err)
	}
	for i := range incoming {
		link := &incoming[i]
		contribution := link.ContributionFor(aggregate)
		if contribution == link.TotalContribution {
			continue
		}
		if err := a.links.UpdateContribution(ctx, link.ID, contribution); err != nil {
			return fmt.Errorf("update link contribution: %w", err)
		}
		a.Invalidate(link.SourceID)
	}
	return nil
}

// Dependents returns the beliefs whose stored link contributions derive
// from this belief's aggregate, for cascade recomputation.
func (a *NetworkAnalyzer) Dependents(ctx context.Context, beliefID uuid.UUID) ([]uuid.UUID, error) {
	incoming, err := a.links.GetIncoming(ctx, beliefID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(incoming))
	for i := range incoming {
		ids = append(ids, incoming[i].SourceID)
	}
	return ids, nil
}

func (a *NetworkAnalyzer) Invalidate(beliefID uuid.UUID) {
	a.cache.Delete(beliefID.String())
}
