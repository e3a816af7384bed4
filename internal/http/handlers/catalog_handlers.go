package handlers

import (
	"net/http"

	"github.com/bookline/bookline-api/internal/domain"
	"github.com/bookline/bookline-api/internal/http/response"
)

func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req domain.CategoryCreateRequest
	if !decode(r, &req) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	category, err := h.catalogService.CreateCategory(r.Context(), getActor(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, category)
}

func (h *Handlers) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid category id")
		return
	}

	category, err := h.catalogService.GetCategory(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, category)
}

func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalogService.ListCategories(r.Context(),
		queryInt64(r, "parent_id"), r.URL.Query().Get("include_inactive") != "true")
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, categories)
}

func (h *Handlers) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid category id")
		return
	}
	var patch domain.CategoryPatch
	if !decode(r, &patch) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	category, err := h.catalogService.UpdateCategory(r.Context(), getActor(r), id, patch)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, category)
}

func (h *Handlers) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid category id")
		return
	}

	if err := h.catalogService.DeactivateCategory(r.Context(), getActor(r), id); err != nil {
		response.FromError(w, err)
		return
	}
	response.NoContent(w)
}

func (h *Handlers) CreateService(w http.ResponseWriter, r *http.Request) {
	var req domain.ServiceCreateRequest
	if !decode(r, &req) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	svc, err := h.catalogService.CreateService(r.Context(), getActor(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, svc)
}

func (h *Handlers) GetService(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid service id")
		return
	}

	svc, err := h.catalogService.GetService(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, svc)
}

func (h *Handlers) ListServices(w http.ResponseWriter, r *http.Request) {
	limit, skip := parsePagination(r)

	filter := domain.ServiceFilter{
		BusinessID: queryInt64(r, "business_id"),
		CategoryID: queryInt64(r, "category_id"),
		Search:     r.URL.Query().Get("search"),
		MinPrice:   queryFloat(r, "min_price"),
		MaxPrice:   queryFloat(r, "max_price"),
		ActiveOnly: r.URL.Query().Get("include_inactive") != "true",
	}

	services, err := h.catalogService.ListServices(r.Context(), filter, limit, skip)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, services)
}

func (h *Handlers) UpdateService(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid service id")
		return
	}
	var patch domain.ServicePatch
	if !decode(r, &patch) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	svc, err := h.catalogService.UpdateService(r.Context(), getActor(r), id, patch)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, svc)
}

func (h *Handlers) DeleteService(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid service id")
		return
	}

	if err := h.catalogService.DeactivateService(r.Context(), getActor(r), id); err != nil {
		response.FromError(w, err)
		return
	}
	response.NoContent(w)
}

func (h *Handlers) CreatePricing(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid service id")
		return
	}
	var req domain.PricingCreateRequest
	if !decode(r, &req) {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	req.ServiceID = serviceID

	pricing, err := h.catalogService.CreatePricing(r.Context(), getActor(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, pricing)
}

func (h *Handlers) ListPricing(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid service id")
		return
	}

	pricing, err := h.catalogService.ListPricing(r.Context(), serviceID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, pricing)
}

func (h *Handlers) UpdatePricing(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid service id")
		return
	}
	pricingID, ok := urlID(r, "pricingID")
	if !ok {
		response.BadRequest(w, "invalid pricing id")
		return
	}
	var patch domain.PricingPatch
	if !decode(r, &patch) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	pricing, err := h.catalogService.UpdatePricing(r.Context(), getActor(r), serviceID, pricingID, patch)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, pricing)
}

func (h *Handlers) DeletePricing(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid service id")
		return
	}
	pricingID, ok := urlID(r, "pricingID")
	if !ok {
		response.BadRequest(w, "invalid pricing id")
		return
	}

	if err := h.catalogService.DeletePricing(r.Context(), getActor(r), serviceID, pricingID); err != nil {
		response.FromError(w, err)
		return
	}
	response.NoContent(w)
}

func (h *Handlers) CreateResource(w http.ResponseWriter, r *http.Request) {
	var req domain.ResourceCreateRequest
	if !decode(r, &req) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	resource, err := h.catalogService.CreateResource(r.Context(), getActor(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, resource)
}

func (h *Handlers) GetResource(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid resource id")
		return
	}

	resource, err := h.catalogService.GetResource(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, resource)
}

func (h *Handlers) ListResources(w http.ResponseWriter, r *http.Request) {
	limit, skip := parsePagination(r)

	filter := domain.ResourceFilter{
		BusinessID: queryInt64(r, "business_id"),
		Type:       domain.ResourceType(r.URL.Query().Get("type")),
		ActiveOnly: r.URL.Query().Get("include_inactive") != "true",
	}

	resources, err := h.catalogService.ListResources(r.Context(), filter, limit, skip)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, resources)
}

func (h *Handlers) UpdateResource(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid resource id")
		return
	}
	var patch domain.ResourcePatch
	if !decode(r, &patch) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	resource, err := h.catalogService.UpdateResource(r.Context(), getActor(r), id, patch)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, resource)
}

func (h *Handlers) DeleteResource(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid resource id")
		return
	}

	if err := h.catalogService.DeactivateResource(r.Context(), getActor(r), id); err != nil {
		response.FromError(w, err)
		return
	}
	response.NoContent(w)
}
