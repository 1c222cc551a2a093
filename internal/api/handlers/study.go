package handlers

import (
	"errors"
	"net/http"

	"github.com/credencehq/credence/internal/domain"
	"github.com/credencehq/credence/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type StudyHandler struct {
	svc *service.CitationService
}

func NewStudyHandler(svc *service.CitationService) *StudyHandler {
	return &StudyHandler{svc: svc}
}

type createStudyRequest struct {
	Title string `json:"title" validate:"required"`
	DOI   string `json:"doi"`
}

func (h *StudyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createStudyRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	study := &domain.Study{
		Title: req.Title,
		DOI:   req.DOI,
	}

	if err := h.svc.CreateStudy(r.Context(), study); err != nil {
		if errors.Is(err, service.ErrStudyTitleEmpty) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create study")
		return
	}

	writeJSON(w, http.StatusCreated, study)
}

func (h *StudyHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid study id")
		return
	}

	study, err := h.svc.GetStudy(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrStudyNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get study")
		return
	}

	writeJSON(w, http.StatusOK, study)
}

type addReferenceRequest struct {
	CitedID string `json:"cited_id" validate:"required,uuid"`
}

func (h *StudyHandler) AddReference(w http.ResponseWriter, r *http.Request) {
	citingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid study id")
		return
	}

	var req addReferenceRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	citedID, err := uuid.Parse(req.CitedID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid cited_id")
		return
	}

	if err := h.svc.AddReference(r.Context(), citingID, citedID); err != nil {
		switch {
		case errors.Is(err, service.ErrStudyNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrSelfCitation):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to add reference")
		}
		return
	}

	study, err := h.svc.GetStudy(r.Context(), citingID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reload study")
		return
	}

	writeJSON(w, http.StatusOK, study)
}

type recordStanceRequest struct {
	BeliefID        string  `json:"belief_id" validate:"required,uuid"`
	Position        string  `json:"position" validate:"required,oneof=supporting opposing neutral inconclusive"`
	Relevance       float64 `json:"relevance" validate:"min=0,max=1"`
	EvidenceQuality float64 `json:"evidence_quality" validate:"min=0,max=1"`
}

func (h *StudyHandler) RecordStance(w http.ResponseWriter, r *http.Request) {
	studyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid study id")
		return
	}

	var req recordStanceRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	beliefID, err := uuid.Parse(req.BeliefID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid belief_id")
		return
	}

	stance := &domain.StudyStance{
		StudyID:         studyID,
		BeliefID:        beliefID,
		Position:        domain.StancePosition(req.Position),
		Relevance:       req.Relevance,
		EvidenceQuality: req.EvidenceQuality,
	}

	if err := h.svc.RecordStance(r.Context(), stance); err != nil {
		switch {
		case errors.Is(err, service.ErrStudyNotFound),
			errors.Is(err, service.ErrBeliefNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidStance),
			errors.Is(err, service.ErrStanceOutOfRange):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to record stance")
		}
		return
	}

	writeJSON(w, http.StatusCreated, stance)
}

type rankCitationsRequest struct {
	StudyIDs   []string `json:"study_ids" validate:"required,min=1,dive,uuid"`
	Damping    float64  `json:"damping" validate:"min=0,max=1"`
	Iterations int      `json:"iterations" validate:"min=0"`
}

type rankCitationsResponse struct {
	Scores     map[uuid.UUID]float64 `json:"scores"`
	Damping    float64               `json:"damping"`
	Iterations int                   `json:"iterations"`
}

func (h *StudyHandler) Rank(w http.ResponseWriter, r *http.Request) {
	var req rankCitationsRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ids := make([]uuid.UUID, 0, len(req.StudyIDs))
	for _, s := range req.StudyIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid study id: "+s)
			return
		}
		ids = append(ids, id)
	}

	scores, err := h.svc.Rank(r.Context(), ids, req.Damping, req.Iterations)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoStudiesToRank),
			errors.Is(err, service.ErrInvalidDamping),
			errors.Is(err, service.ErrInvalidIterations):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to rank citations")
		}
		return
	}

	writeJSON(w, http.StatusOK, rankCitationsResponse{
		Scores:     scores,
		Damping:    req.Damping,
		Iterations: req.Iterations,
	})
}
