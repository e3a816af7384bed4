package handlers

import (
	"net/http"

	"github.com/bookline/bookline-api/internal/domain"
	"github.com/bookline/bookline-api/internal/http/response"
)

func (h *Handlers) CreatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req domain.PaymentMethodCreateRequest
	if !decode(r, &req) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	method, err := h.paymentService.CreateMethod(r.Context(), getActor(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, method)
}

func (h *Handlers) ListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.paymentService.ListMethods(r.Context(), getActor(r))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, methods)
}

func (h *Handlers) UpdatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "methodID")
	if !ok {
		response.BadRequest(w, "invalid payment method id")
		return
	}
	var patch domain.PaymentMethodPatch
	if !decode(r, &patch) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	method, err := h.paymentService.UpdateMethod(r.Context(), getActor(r), id, patch)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, method)
}

func (h *Handlers) DeletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "methodID")
	if !ok {
		response.BadRequest(w, "invalid payment method id")
		return
	}

	if err := h.paymentService.DeactivateMethod(r.Context(), getActor(r), id); err != nil {
		response.FromError(w, err)
		return
	}
	response.NoContent(w)
}

func (h *Handlers) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req domain.PaymentCreateRequest
	if !decode(r, &req) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	payment, err := h.paymentService.CreatePayment(r.Context(), getActor(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, payment)
}

func (h *Handlers) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid payment id")
		return
	}

	payment, err := h.paymentService.GetPayment(r.Context(), getActor(r), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, payment)
}

func (h *Handlers) ListBookingPayments(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid booking id")
		return
	}

	payments, err := h.paymentService.ListPaymentsByBooking(r.Context(), getActor(r), bookingID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, payments)
}

func (h *Handlers) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid payment id")
		return
	}
	var patch domain.PaymentPatch
	if !decode(r, &patch) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	payment, err := h.paymentService.UpdatePayment(r.Context(), getActor(r), id, patch)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, payment)
}

func (h *Handlers) CreateRefund(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid payment id")
		return
	}
	var req domain.RefundCreateRequest
	if !decode(r, &req) {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	req.PaymentID = paymentID

	refund, err := h.paymentService.CreateRefund(r.Context(), getActor(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, refund)
}

func (h *Handlers) ListRefunds(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid payment id")
		return
	}

	refunds, err := h.paymentService.ListRefundsByPayment(r.Context(), getActor(r), paymentID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, refunds)
}

func (h *Handlers) CompleteRefund(w http.ResponseWriter, r *http.Request) {
	refundID, ok := urlID(r, "refundID")
	if !ok {
		response.BadRequest(w, "invalid refund id")
		return
	}

	refund, err := h.paymentService.CompleteRefund(r.Context(), getActor(r), refundID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, refund)
}
