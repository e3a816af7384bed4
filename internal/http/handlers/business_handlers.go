package handlers

import (
	"net/http"

	"github.com/bookline/bookline-api/internal/domain"
	"github.com/bookline/bookline-api/internal/http/response"
)

func (h *Handlers) CreateBusiness(w http.ResponseWriter, r *http.Request) {
	var req domain.BusinessCreateRequest
	if !decode(r, &req) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	business, err := h.businessService.Create(r.Context(), getActor(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, business)
}

func (h *Handlers) GetBusiness(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid business id")
		return
	}

	business, err := h.businessService.Get(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, business)
}

func (h *Handlers) ListBusinesses(w http.ResponseWriter, r *http.Request) {
	limit, skip := parsePagination(r)

	filter := domain.BusinessFilter{
		Search:    r.URL.Query().Get("search"),
		Type:      domain.BusinessType(r.URL.Query().Get("type")),
		MinRating: queryFloat(r, "min_rating"),
	}
	if r.URL.Query().Get("featured") == "true" {
		featured := true
		filter.Featured = &featured
	}

	businesses, err := h.businessService.List(r.Context(), filter, limit, skip)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, businesses)
}

func (h *Handlers) ListMyBusinesses(w http.ResponseWriter, r *http.Request) {
	businesses, err := h.businessService.ListMine(r.Context(), getActor(r))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, businesses)
}

func (h *Handlers) UpdateBusiness(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid business id")
		return
	}
	var patch domain.BusinessPatch
	if !decode(r, &patch) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	business, err := h.businessService.Update(r.Context(), getActor(r), id, patch)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, business)
}

func (h *Handlers) CloseBusiness(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid business id")
		return
	}

	if err := h.businessService.Close(r.Context(), getActor(r), id); err != nil {
		response.FromError(w, err)
		return
	}
	response.NoContent(w)
}

func (h *Handlers) CreateBusinessAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid business id")
		return
	}
	var req domain.BusinessAddressCreateRequest
	if !decode(r, &req) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	addr, err := h.businessService.CreateAddress(r.Context(), getActor(r), id, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, addr)
}

func (h *Handlers) ListBusinessAddresses(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid business id")
		return
	}

	addresses, err := h.businessService.ListAddresses(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, addresses)
}

func (h *Handlers) UpdateBusinessAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid business id")
		return
	}
	addressID, ok := urlID(r, "addressID")
	if !ok {
		response.BadRequest(w, "invalid address id")
		return
	}
	var patch domain.BusinessAddressPatch
	if !decode(r, &patch) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	addr, err := h.businessService.UpdateAddress(r.Context(), getActor(r), id, addressID, patch)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, addr)
}

func (h *Handlers) DeleteBusinessAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid business id")
		return
	}
	addressID, ok := urlID(r, "addressID")
	if !ok {
		response.BadRequest(w, "invalid address id")
		return
	}

	if err := h.businessService.DeleteAddress(r.Context(), getActor(r), id, addressID); err != nil {
		response.FromError(w, err)
		return
	}
	response.NoContent(w)
}

func (h *Handlers) UpsertBusinessHours(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid business id")
		return
	}
	var req domain.BusinessHoursUpsertRequest
	if !decode(r, &req) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	hours, err := h.businessService.UpsertHours(r.Context(), getActor(r), id, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, hours)
}

func (h *Handlers) ListBusinessHours(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid business id")
		return
	}

	hours, err := h.businessService.ListHours(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, hours)
}
