package handlers

import (
	"net/http"
	"time"

	"github.com/bookline/bookline-api/internal/domain"
	"github.com/bookline/bookline-api/internal/http/response"
)

func (h *Handlers) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req domain.TemplateCreateRequest
	if !decode(r, &req) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	template, err := h.availabilityService.CreateTemplate(r.Context(), getActor(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, template)
}

func (h *Handlers) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.availabilityService.ListTemplates(r.Context(),
		queryInt64(r, "service_id"), queryInt64(r, "resource_id"))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, templates)
}

func (h *Handlers) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid template id")
		return
	}
	var patch domain.TemplatePatch
	if !decode(r, &patch) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	template, err := h.availabilityService.UpdateTemplate(r.Context(), getActor(r), id, patch)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, template)
}

func (h *Handlers) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid template id")
		return
	}

	if err := h.availabilityService.DeleteTemplate(r.Context(), getActor(r), id); err != nil {
		response.FromError(w, err)
		return
	}
	response.NoContent(w)
}

type generateSlotsRequest struct {
	ServiceID  *int64    `json:"service_id,omitempty"`
	ResourceID *int64    `json:"resource_id,omitempty"`
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`
}

func (h *Handlers) GenerateSlots(w http.ResponseWriter, r *http.Request) {
	var req generateSlotsRequest
	if !decode(r, &req) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	created, err := h.availabilityService.GenerateSlots(r.Context(), getActor(r),
		req.ServiceID, req.ResourceID, req.From, req.To)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]int{"created": created})
}

func (h *Handlers) CreateSlot(w http.ResponseWriter, r *http.Request) {
	var req domain.SlotCreateRequest
	if !decode(r, &req) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	slot, err := h.availabilityService.CreateSlot(r.Context(), getActor(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, slot)
}

func (h *Handlers) ListSlots(w http.ResponseWriter, r *http.Request) {
	limit, skip := parsePagination(r)

	filter := domain.SlotFilter{
		ServiceID:  queryInt64(r, "service_id"),
		ResourceID: queryInt64(r, "resource_id"),
		From:       queryTime(r, "from"),
		To:         queryTime(r, "to"),
		Status:     domain.SlotStatus(r.URL.Query().Get("status")),
	}

	slots, err := h.availabilityService.ListSlots(r.Context(), filter, limit, skip)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, slots)
}

func (h *Handlers) UpdateSlot(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid slot id")
		return
	}
	var patch domain.SlotPatch
	if !decode(r, &patch) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	slot, err := h.availabilityService.UpdateSlot(r.Context(), getActor(r), id, patch)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, slot)
}

func (h *Handlers) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid slot id")
		return
	}

	if err := h.availabilityService.DeleteSlot(r.Context(), getActor(r), id); err != nil {
		response.FromError(w, err)
		return
	}
	response.NoContent(w)
}

func (h *Handlers) CreateBlockedTime(w http.ResponseWriter, r *http.Request) {
	var req domain.BlockedTimeCreateRequest
	if !decode(r, &req) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	block, err := h.availabilityService.CreateBlockedTime(r.Context(), getActor(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, block)
}

func (h *Handlers) ListBlockedTimes(w http.ResponseWriter, r *http.Request) {
	filter := domain.BlockedTimeFilter{
		BusinessID: queryInt64(r, "business_id"),
		ServiceID:  queryInt64(r, "service_id"),
		ResourceID: queryInt64(r, "resource_id"),
		From:       queryTime(r, "from"),
		To:         queryTime(r, "to"),
	}

	blocks, err := h.availabilityService.ListBlockedTimes(r.Context(), filter)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, blocks)
}

func (h *Handlers) UpdateBlockedTime(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid blocked time id")
		return
	}
	var patch domain.BlockedTimePatch
	if !decode(r, &patch) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	block, err := h.availabilityService.UpdateBlockedTime(r.Context(), getActor(r), id, patch)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, block)
}

func (h *Handlers) DeleteBlockedTime(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid blocked time id")
		return
	}

	if err := h.availabilityService.DeleteBlockedTime(r.Context(), getActor(r), id); err != nil {
		response.FromError(w, err)
		return
	}
	response.NoContent(w)
}
