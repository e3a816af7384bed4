package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bookline/bookline-api/internal/domain"
	"github.com/bookline/bookline-api/internal/http/response"
	"github.com/bookline/bookline-api/internal/service"
	"github.com/bookline/bookline-api/pkg/logger"
)

type Handlers struct {
	authService         service.AuthService
	userService         service.UserService
	businessService     service.BusinessService
	catalogService      service.CatalogService
	availabilityService service.AvailabilityService
	bookingService      service.BookingService
	paymentService      service.PaymentService
	promotionService    service.PromotionService
	reviewService       service.ReviewService
}

func New(
	authService service.AuthService,
	userService service.UserService,
	businessService service.BusinessService,
	catalogService service.CatalogService,
	availabilityService service.AvailabilityService,
	bookingService service.BookingService,
	paymentService service.PaymentService,
	promotionService service.PromotionService,
	reviewService service.ReviewService,
) *Handlers {
	return &Handlers{
		authService:         authService,
		userService:         userService,
		businessService:     businessService,
		catalogService:      catalogService,
		availabilityService: availabilityService,
		bookingService:      bookingService,
		paymentService:      paymentService,
		promotionService:    promotionService,
		reviewService:       reviewService,
	}
}

type contextKey string

const actorKey contextKey = "actor"

// RequireAuth resolves the bearer token into a fully loaded actor and stores
// it in the request context. Missing or invalid tokens end the request with
// 401; suspended accounts with 403.
func (h *Handlers) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			response.Unauthorized(w, "missing or invalid authorization header")
			return
		}

		actor, err := h.authService.Resolve(r.Context(), strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			response.FromError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), actorKey, actor)
		ctx = context.WithValue(ctx, logger.UserIDKey, actor.ID())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getActor(r *http.Request) *domain.Actor {
	if actor, ok := r.Context().Value(actorKey).(*domain.Actor); ok {
		return actor
	}
	return nil
}

func decode(r *http.Request, v any) bool {
	return json.NewDecoder(r.Body).Decode(v) == nil
}

// urlID parses the named chi URL parameter as an int64 id.
func urlID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

// parsePagination reads skip/limit query parameters with sane bounds.
func parsePagination(r *http.Request) (limit, skip int) {
	limit = 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("skip"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			skip = n
		}
	}
	return limit, skip
}

func queryInt64(r *http.Request, name string) *int64 {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return &n
		}
	}
	return nil
}

func queryFloat(r *http.Request, name string) *float64 {
	if v := r.URL.Query().Get(name); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return &f
		}
	}
	return nil
}

func queryTime(r *http.Request, name string) *time.Time {
	if v := r.URL.Query().Get(name); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return &t
		}
		if t, err := time.Parse("2006-01-02", v); err == nil {
			return &t
		}
	}
	return nil
}
