package handlers

import (
	"net/http"
	"strconv"

	"github.com/bookline/bookline-api/internal/domain"
	"github.com/bookline/bookline-api/internal/http/response"
)

func (h *Handlers) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req domain.ReviewCreateRequest
	if !decode(r, &req) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	review, err := h.reviewService.Create(r.Context(), getActor(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, review)
}

func (h *Handlers) GetReview(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid review id")
		return
	}

	review, err := h.reviewService.Get(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, review)
}

func reviewFilter(r *http.Request) domain.ReviewFilter {
	var filter domain.ReviewFilter
	if v := r.URL.Query().Get("min_rating"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.MinRating = &n
		}
	}
	if v := r.URL.Query().Get("max_rating"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.MaxRating = &n
		}
	}
	return filter
}

// ListBusinessReviews is the public read path, limited to approved reviews.
func (h *Handlers) ListBusinessReviews(w http.ResponseWriter, r *http.Request) {
	businessID, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid business id")
		return
	}
	limit, skip := parsePagination(r)

	reviews, err := h.reviewService.ListApproved(r.Context(), businessID, reviewFilter(r), limit, skip)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, reviews)
}

// ListAllBusinessReviews exposes every moderation status to the owner.
func (h *Handlers) ListAllBusinessReviews(w http.ResponseWriter, r *http.Request) {
	businessID, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid business id")
		return
	}
	limit, skip := parsePagination(r)

	filter := reviewFilter(r)
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := domain.ParseReviewStatus(raw)
		if !ok {
			response.BadRequest(w, "invalid status parameter")
			return
		}
		filter.Status = status
	}

	reviews, err := h.reviewService.ListAll(r.Context(), getActor(r), businessID, filter, limit, skip)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, reviews)
}

func (h *Handlers) ListMyReviews(w http.ResponseWriter, r *http.Request) {
	limit, skip := parsePagination(r)
	reviews, err := h.reviewService.ListMine(r.Context(), getActor(r), limit, skip)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, reviews)
}

func (h *Handlers) UpdateReview(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid review id")
		return
	}
	var patch domain.ReviewPatch
	if !decode(r, &patch) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	review, err := h.reviewService.Update(r.Context(), getActor(r), id, patch)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, review)
}

type moderateRequest struct {
	Status string `json:"status"`
}

func (h *Handlers) ModerateReview(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid review id")
		return
	}
	var req moderateRequest
	if !decode(r, &req) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	review, err := h.reviewService.Moderate(r.Context(), getActor(r), id, domain.ReviewStatus(req.Status))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, review)
}

func (h *Handlers) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid review id")
		return
	}

	if err := h.reviewService.Delete(r.Context(), getActor(r), id); err != nil {
		response.FromError(w, err)
		return
	}
	response.NoContent(w)
}

func (h *Handlers) MarkReviewHelpful(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid review id")
		return
	}

	if err := h.reviewService.MarkHelpful(r.Context(), id); err != nil {
		response.FromError(w, err)
		return
	}
	response.NoContent(w)
}

func (h *Handlers) RespondToReview(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid review id")
		return
	}
	var req domain.ReviewResponseCreateRequest
	if !decode(r, &req) {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	req.ReviewID = id

	resp, err := h.reviewService.Respond(r.Context(), getActor(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, resp)
}

func (h *Handlers) GetReviewResponse(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid review id")
		return
	}

	resp, err := h.reviewService.GetResponse(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, resp)
}

type responsePatch struct {
	Text string `json:"text"`
}

func (h *Handlers) UpdateReviewResponse(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid review id")
		return
	}
	var req responsePatch
	if !decode(r, &req) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	resp, err := h.reviewService.UpdateResponse(r.Context(), getActor(r), id, req.Text)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, resp)
}
