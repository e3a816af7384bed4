package handlers

import (
	"net/http"

	"github.com/bookline/bookline-api/internal/domain"
	"github.com/bookline/bookline-api/internal/http/response"
)

func (h *Handlers) CreatePromotion(w http.ResponseWriter, r *http.Request) {
	var req domain.PromotionCreateRequest
	if !decode(r, &req) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	promotion, err := h.promotionService.Create(r.Context(), getActor(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, promotion)
}

func (h *Handlers) GetPromotion(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid promotion id")
		return
	}

	promotion, err := h.promotionService.Get(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, promotion)
}

// ListPromotions is the public listing; it only ever exposes active codes.
func (h *Handlers) ListPromotions(w http.ResponseWriter, r *http.Request) {
	limit, skip := parsePagination(r)

	promotions, err := h.promotionService.List(r.Context(),
		queryInt64(r, "business_id"), domain.PromotionActive, limit, skip)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, promotions)
}

func (h *Handlers) UpdatePromotion(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid promotion id")
		return
	}
	var patch domain.PromotionPatch
	if !decode(r, &patch) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	promotion, err := h.promotionService.Update(r.Context(), getActor(r), id, patch)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, promotion)
}

func (h *Handlers) DeletePromotion(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid promotion id")
		return
	}

	if err := h.promotionService.Delete(r.Context(), getActor(r), id); err != nil {
		response.FromError(w, err)
		return
	}
	response.NoContent(w)
}

func (h *Handlers) ValidatePromotion(w http.ResponseWriter, r *http.Request) {
	var req domain.PromotionValidateRequest
	if !decode(r, &req) {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if req.Code == "" {
		response.BadRequest(w, "code is required")
		return
	}

	result, err := h.promotionService.Validate(r.Context(), getActor(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}

func (h *Handlers) ApplyPromotion(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid promotion id")
		return
	}
	var req domain.PromotionApplyRequest
	if !decode(r, &req) {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	req.PromotionID = id

	usage, err := h.promotionService.Apply(r.Context(), getActor(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, usage)
}

func (h *Handlers) ListPromotionUsage(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid promotion id")
		return
	}
	limit, skip := parsePagination(r)

	usage, err := h.promotionService.ListUsage(r.Context(), getActor(r), id, limit, skip)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, usage)
}
