package handlers

import (
	"errors"
	"net/http"

	"github.com/credencehq/credence/internal/domain"
	"github.com/credencehq/credence/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type CriteriaHandler struct {
	svc *service.CriteriaService
}

func NewCriteriaHandler(svc *service.CriteriaService) *CriteriaHandler {
	return &CriteriaHandler{svc: svc}
}

type createCriteriaRequest struct {
	TopicID     string `json:"topic_id" validate:"required,uuid"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (h *CriteriaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCriteriaRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	topicID, err := uuid.Parse(req.TopicID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid topic_id")
		return
	}

	criteria := &domain.ObjectiveCriteria{
		TopicID:     topicID,
		Name:        req.Name,
		Description: req.Description,
	}

	if err := h.svc.Create(r.Context(), criteria); err != nil {
		if errors.Is(err, service.ErrCriteriaNameEmpty) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create criteria")
		return
	}

	writeJSON(w, http.StatusCreated, criteria)
}

func (h *CriteriaHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid criteria id")
		return
	}

	criteria, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrCriteriaNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get criteria")
		return
	}

	writeJSON(w, http.StatusOK, criteria)
}

type addCriteriaArgumentRequest struct {
	Dimension       string  `json:"dimension" validate:"required,oneof=validity reliability independence linkage"`
	Direction       string  `json:"direction" validate:"required,oneof=supporting opposing"`
	Content         string  `json:"content" validate:"required"`
	EvidenceQuality float64 `json:"evidence_quality" validate:"min=0,max=100"`
	LogicalValidity float64 `json:"logical_validity" validate:"min=0,max=100"`
	Importance      float64 `json:"importance" validate:"min=0,max=100"`
}

type addCriteriaArgumentResponse struct {
	Argument  *domain.CriteriaArgument   `json:"argument"`
	Breakdown *service.CriteriaBreakdown `json:"breakdown"`
}

func (h *CriteriaHandler) AddArgument(w http.ResponseWriter, r *http.Request) {
	criteriaID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid criteria id")
		return
	}

	var req addCriteriaArgumentRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	arg := &domain.CriteriaArgument{
		CriteriaID:      criteriaID,
		Dimension:       domain.CriteriaDimension(req.Dimension),
		Direction:       domain.CriteriaDirection(req.Direction),
		Content:         req.Content,
		EvidenceQuality: req.EvidenceQuality,
		LogicalValidity: req.LogicalValidity,
		Importance:      req.Importance,
	}

	breakdown, err := h.svc.AddArgument(r.Context(), arg)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCriteriaNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrConcurrencyConflict):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrInvalidDimension),
			errors.Is(err, service.ErrInvalidDirection),
			errors.Is(err, service.ErrStatementEmpty),
			errors.Is(err, service.ErrCriteriaInputOutOfRange):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to add criteria argument")
		}
		return
	}

	writeJSON(w, http.StatusCreated, addCriteriaArgumentResponse{
		Argument:  arg,
		Breakdown: breakdown,
	})
}

func (h *CriteriaHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid criteria id")
		return
	}

	breakdown, err := h.svc.Rescore(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCriteriaNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrConcurrencyConflict):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to rescore criteria")
		}
		return
	}

	writeJSON(w, http.StatusOK, breakdown)
}
