package handlers

import (
	"net/http"

	"github.com/bookline/bookline-api/internal/domain"
	"github.com/bookline/bookline-api/internal/http/response"
)

func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req domain.BookingCreateRequest
	if !decode(r, &req) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	booking, err := h.bookingService.Create(r.Context(), getActor(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, booking)
}

func (h *Handlers) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid booking id")
		return
	}

	booking, err := h.bookingService.Get(r.Context(), getActor(r), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, booking)
}

func (h *Handlers) GetBookingByReference(w http.ResponseWriter, r *http.Request) {
	reference := r.URL.Query().Get("reference")
	if reference == "" {
		response.BadRequest(w, "reference is required")
		return
	}

	booking, err := h.bookingService.GetByReference(r.Context(), getActor(r), reference)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, booking)
}

func bookingFilter(r *http.Request) (domain.BookingFilter, bool) {
	filter := domain.BookingFilter{
		From: queryTime(r, "from"),
		To:   queryTime(r, "to"),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := domain.ParseBookingStatus(raw)
		if !ok {
			return filter, false
		}
		filter.Status = &status
	}
	return filter, true
}

func (h *Handlers) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	limit, skip := parsePagination(r)
	filter, ok := bookingFilter(r)
	if !ok {
		response.BadRequest(w, "invalid status parameter")
		return
	}

	bookings, err := h.bookingService.ListMine(r.Context(), getActor(r), filter, limit, skip)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, bookings)
}

func (h *Handlers) ListBusinessBookings(w http.ResponseWriter, r *http.Request) {
	businessID, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid business id")
		return
	}
	limit, skip := parsePagination(r)
	filter, ok := bookingFilter(r)
	if !ok {
		response.BadRequest(w, "invalid status parameter")
		return
	}

	bookings, err := h.bookingService.ListForBusiness(r.Context(), getActor(r), businessID, filter, limit, skip)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, bookings)
}

func (h *Handlers) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid booking id")
		return
	}
	var patch domain.BookingPatch
	if !decode(r, &patch) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	booking, err := h.bookingService.Update(r.Context(), getActor(r), id, patch)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, booking)
}

func (h *Handlers) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid booking id")
		return
	}
	var req domain.BookingCancelRequest
	// A missing body is an empty cancellation reason, not an error.
	decode(r, &req)

	booking, err := h.bookingService.Cancel(r.Context(), getActor(r), id, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, booking)
}

func (h *Handlers) AddParticipant(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid booking id")
		return
	}
	var req domain.ParticipantCreateRequest
	if !decode(r, &req) {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	req.BookingID = bookingID

	participant, err := h.bookingService.AddParticipant(r.Context(), getActor(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, participant)
}

func (h *Handlers) ListParticipants(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid booking id")
		return
	}

	participants, err := h.bookingService.ListParticipants(r.Context(), getActor(r), bookingID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, participants)
}

func (h *Handlers) UpdateParticipant(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid booking id")
		return
	}
	participantID, ok := urlID(r, "participantID")
	if !ok {
		response.BadRequest(w, "invalid participant id")
		return
	}
	var patch domain.ParticipantPatch
	if !decode(r, &patch) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	participant, err := h.bookingService.UpdateParticipant(r.Context(), getActor(r), bookingID, participantID, patch)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, participant)
}

func (h *Handlers) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid booking id")
		return
	}
	participantID, ok := urlID(r, "participantID")
	if !ok {
		response.BadRequest(w, "invalid participant id")
		return
	}

	if err := h.bookingService.RemoveParticipant(r.Context(), getActor(r), bookingID, participantID); err != nil {
		response.FromError(w, err)
		return
	}
	response.NoContent(w)
}

func (h *Handlers) ListBookingHistory(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid booking id")
		return
	}

	history, err := h.bookingService.ListHistory(r.Context(), getActor(r), bookingID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, history)
}
