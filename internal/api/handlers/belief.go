package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/credencehq/credence/internal/domain"
	"github.com/credencehq/credence/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type BeliefHandler struct {
	svc        *service.BeliefService
	recalc     *service.Recalculator
	network    *service.NetworkAnalyzer
	detector   *service.RedundancyDetector
	confidence *service.ConfidenceEngine
}

func NewBeliefHandler(svc *service.BeliefService, recalc *service.Recalculator, network *service.NetworkAnalyzer, detector *service.RedundancyDetector, confidence *service.ConfidenceEngine) *BeliefHandler {
	return &BeliefHandler{
		svc:        svc,
		recalc:     recalc,
		network:    network,
		detector:   detector,
		confidence: confidence,
	}
}

type createBeliefRequest struct {
	Statement   string  `json:"statement" validate:"required"`
	Status      string  `json:"status" validate:"omitempty,oneof=proposed accepted rejected debated archived"`
	Author      string  `json:"author"`
	Specificity float64 `json:"specificity" validate:"min=0,max=1"`
	Sentiment   float64 `json:"sentiment" validate:"min=0,max=1"`
}

func (h *BeliefHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBeliefRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	status := domain.BeliefStatus(req.Status)
	if status == "" {
		status = domain.BeliefProposed
	}

	belief := &domain.Belief{
		Statement: req.Statement,
		Status:    status,
		Author:    req.Author,
		Dimensions: domain.Dimensions{
			Specificity: req.Specificity,
			Sentiment:   req.Sentiment,
		},
	}

	if err := h.svc.Create(r.Context(), belief); err != nil {
		switch {
		case errors.Is(err, service.ErrStatementEmpty),
			errors.Is(err, service.ErrInvalidBeliefStatus),
			errors.Is(err, service.ErrDimensionsOutOfRange):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to create belief")
		}
		return
	}

	writeJSON(w, http.StatusCreated, belief)
}

func (h *BeliefHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid belief id")
		return
	}

	belief, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrBeliefNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get belief")
		return
	}

	writeJSON(w, http.StatusOK, belief)
}

type similarBeliefsResponse struct {
	Query   string                   `json:"query"`
	Results []domain.BeliefWithScore `json:"results"`
	Count   int                      `json:"count"`
}

func (h *BeliefHandler) FindSimilar(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter is required")
		return
	}

	limit := 10
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}

	results, err := h.detector.FindSimilar(r.Context(), query, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to search beliefs")
		return
	}
	if results == nil {
		results = []domain.BeliefWithScore{}
	}

	writeJSON(w, http.StatusOK, similarBeliefsResponse{
		Query:   query,
		Results: results,
		Count:   len(results),
	})
}

type detectDuplicateRequest struct {
	Statement string `json:"statement" validate:"required"`
}

func (h *BeliefHandler) DetectDuplicate(w http.ResponseWriter, r *http.Request) {
	var req detectDuplicateRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	verdict, err := h.detector.DetectDuplicate(r.Context(), req.Statement)
	if err != nil {
		if errors.Is(err, service.ErrQueryEmpty) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to check for duplicates")
		return
	}

	writeJSON(w, http.StatusOK, verdict)
}

type addArgumentRequest struct {
	ChildBeliefID   string  `json:"child_belief_id" validate:"required,uuid"`
	Side            string  `json:"side" validate:"required,oneof=pro con"`
	Statement       string  `json:"statement" validate:"required"`
	TruthScore      float64 `json:"truth_score" validate:"min=0,max=100"`
	LinkageScore    float64 `json:"linkage_score" validate:"min=0,max=1"`
	ImportanceScore float64 `json:"importance_score" validate:"min=0,max=1"`
	CertifyingAgent string  `json:"certifying_agent"`
}

type addArgumentResponse struct {
	Argument  *domain.Argument        `json:"argument"`
	Breakdown *service.ScoreBreakdown `json:"breakdown"`
}

func (h *BeliefHandler) AddArgument(w http.ResponseWriter, r *http.Request) {
	parentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid belief id")
		return
	}

	var req addArgumentRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	childID, err := uuid.Parse(req.ChildBeliefID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid child_belief_id")
		return
	}

	arg := &domain.Argument{
		ParentBeliefID:  parentID,
		ChildBeliefID:   childID,
		Side:            domain.Side(req.Side),
		Statement:       req.Statement,
		TruthScore:      req.TruthScore,
		LinkageScore:    req.LinkageScore,
		ImportanceScore: req.ImportanceScore,
		CertifyingAgent: req.CertifyingAgent,
	}

	breakdown, err := h.svc.AddArgument(r.Context(), arg)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBeliefNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrConcurrencyConflict):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrInvalidSide),
			errors.Is(err, service.ErrStatementEmpty),
			errors.Is(err, service.ErrSelfArgument),
			errors.Is(err, service.ErrTruthScoreOutOfRange),
			errors.Is(err, service.ErrUnitScoreOutOfRange):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to add argument")
		}
		return
	}

	writeJSON(w, http.StatusCreated, addArgumentResponse{
		Argument:  arg,
		Breakdown: breakdown,
	})
}

type addEvidenceRequest struct {
	Side                     string  `json:"side" validate:"required,oneof=supporting weakening"`
	Tier                     string  `json:"tier" validate:"required,oneof=T1 T2 T3 T4"`
	Title                    string  `json:"title" validate:"required"`
	SourceURL                string  `json:"source_url"`
	SourceIndependenceWeight float64 `json:"source_independence_weight" validate:"min=0,max=1"`
	ReplicationQuantity      int     `json:"replication_quantity" validate:"min=0"`
	ReplicationPercentage    float64 `json:"replication_percentage" validate:"min=0,max=100"`
	ConclusionRelevance      float64 `json:"conclusion_relevance" validate:"min=0,max=1"`
}

type addEvidenceResponse struct {
	Evidence  *domain.Evidence        `json:"evidence"`
	Breakdown *service.ScoreBreakdown `json:"breakdown"`
}

func (h *BeliefHandler) AddEvidence(w http.ResponseWriter, r *http.Request) {
	beliefID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid belief id")
		return
	}

	var req addEvidenceRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ev := &domain.Evidence{
		BeliefID:                 beliefID,
		Side:                     domain.EvidenceSide(req.Side),
		Tier:                     domain.EvidenceTier(req.Tier),
		Title:                    req.Title,
		SourceURL:                req.SourceURL,
		SourceIndependenceWeight: req.SourceIndependenceWeight,
		ReplicationQuantity:      req.ReplicationQuantity,
		ReplicationPercentage:    req.ReplicationPercentage,
		ConclusionRelevance:      req.ConclusionRelevance,
	}

	breakdown, err := h.svc.AddEvidence(r.Context(), ev)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBeliefNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrConcurrencyConflict):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrInvalidEvidenceSide),
			errors.Is(err, service.ErrInvalidEvidenceTier),
			errors.Is(err, service.ErrEvidenceOutOfRange):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to add evidence")
		}
		return
	}

	writeJSON(w, http.StatusCreated, addEvidenceResponse{
		Evidence:  ev,
		Breakdown: breakdown,
	})
}

func (h *BeliefHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid belief id")
		return
	}

	breakdown, err := h.recalc.Recalculate(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBeliefNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrConcurrencyConflict):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to recalculate belief")
		}
		return
	}

	writeJSON(w, http.StatusOK, breakdown)
}

func (h *BeliefHandler) Breakdown(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid belief id")
		return
	}

	breakdown, err := h.recalc.Breakdown(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrBeliefNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get breakdown")
		return
	}

	writeJSON(w, http.StatusOK, breakdown)
}

func (h *BeliefHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid belief id")
		return
	}

	export, err := h.recalc.Export(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrBeliefNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to export belief")
		return
	}

	writeJSON(w, http.StatusOK, export)
}

func (h *BeliefHandler) Network(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid belief id")
		return
	}

	metrics, err := h.network.Metrics(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrBeliefNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get network metrics")
		return
	}

	writeJSON(w, http.StatusOK, metrics)
}

type createLinkRequest struct {
	TargetID     string  `json:"target_id" validate:"required,uuid"`
	LinkType     string  `json:"link_type" validate:"required,oneof=SUPPORTS OPPOSES"`
	LinkStrength float64 `json:"link_strength" validate:"min=0,max=1"`
}

func (h *BeliefHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	sourceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid belief id")
		return
	}

	var req createLinkRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	targetID, err := uuid.Parse(req.TargetID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid target_id")
		return
	}

	link := &domain.BeliefLink{
		SourceID:     sourceID,
		TargetID:     targetID,
		LinkType:     domain.LinkType(req.LinkType),
		LinkStrength: req.LinkStrength,
		IsActive:     true,
	}

	if err := h.network.CreateLink(r.Context(), link); err != nil {
		switch {
		case errors.Is(err, service.ErrBeliefNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrSelfLink),
			errors.Is(err, service.ErrInvalidLinkType),
			errors.Is(err, service.ErrLinkStrength):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to create link")
		}
		return
	}

	writeJSON(w, http.StatusCreated, link)
}

type mergeRequest struct {
	CanonicalID string `json:"canonical_id" validate:"required,uuid"`
	DuplicateID string `json:"duplicate_id" validate:"required,uuid"`
}

func (h *BeliefHandler) Merge(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	canonicalID, err := uuid.Parse(req.CanonicalID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid canonical_id")
		return
	}
	duplicateID, err := uuid.Parse(req.DuplicateID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid duplicate_id")
		return
	}

	result, err := h.detector.Merge(r.Context(), canonicalID, duplicateID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBeliefNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrSelfMerge):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrConcurrencyConflict):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to merge beliefs")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type recordChallengeRequest struct {
	Type       string  `json:"type" validate:"required,oneof=challenge_survived challenge_upheld expert_review redundancy_flag"`
	ScoreDelta float64 `json:"score_delta"`
	Notes      string  `json:"notes"`
}

func (h *BeliefHandler) RecordChallenge(w http.ResponseWriter, r *http.Request) {
	beliefID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid belief id")
		return
	}

	var req recordChallengeRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	event := &domain.ChallengeEvent{
		BeliefID:   beliefID,
		Type:       domain.ChallengeEventType(req.Type),
		ScoreDelta: req.ScoreDelta,
		Notes:      req.Notes,
	}

	interval, err := h.confidence.RecordChallenge(r.Context(), event)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBeliefNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidChallengeType):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrConcurrencyConflict):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to record challenge")
		}
		return
	}

	writeJSON(w, http.StatusCreated, interval)
}

func (h *BeliefHandler) MarkUnfalsifiable(w http.ResponseWriter, r *http.Request) {
	beliefID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid belief id")
		return
	}

	interval, err := h.confidence.MarkUnfalsifiable(r.Context(), beliefID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBeliefNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrConcurrencyConflict):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to update knowability")
		}
		return
	}

	writeJSON(w, http.StatusOK, interval)
}
