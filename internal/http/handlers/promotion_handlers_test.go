package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bookline/bookline-api/internal/domain"
	"github.com/bookline/bookline-api/internal/http/handlers"
)

type memIdempotencyStore struct {
	values map[string]string
}

func (s *memIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	return s.values[key], nil
}

func (s *memIdempotencyStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	s.values[key] = value
	return nil
}

// stubAuthService resolves fixed tokens to preloaded actors.
type stubAuthService struct {
	actors map[string]*domain.Actor
}

func (s *stubAuthService) Register(context.Context, *domain.RegisterRequest) (*domain.User, error) {
	return nil, nil
}

func (s *stubAuthService) Login(context.Context, *domain.LoginRequest) (*domain.LoginResponse, error) {
	return nil, nil
}

func (s *stubAuthService) Resolve(_ context.Context, token string) (*domain.Actor, error) {
	actor, ok := s.actors[token]
	if !ok {
		return nil, domain.Unauthenticatedf("invalid token")
	}
	return actor, nil
}

// stubPromotionService keeps promotions in a map and tracks which bookings
// already redeemed one.
type stubPromotionService struct {
	promotions map[int64]*domain.Promotion
	applied    map[int64]bool
}

func (s *stubPromotionService) Create(_ context.Context, actor *domain.Actor, req *domain.PromotionCreateRequest) (*domain.Promotion, error) {
	if !actor.IsAdmin() {
		return nil, domain.Forbiddenf("not allowed to create this promotion")
	}
	p := &domain.Promotion{ID: int64(len(s.promotions) + 1), Code: req.Code, Title: req.Title, Status: domain.PromotionActive}
	s.promotions[p.ID] = p
	return p, nil
}

func (s *stubPromotionService) Get(_ context.Context, id int64) (*domain.Promotion, error) {
	p, ok := s.promotions[id]
	if !ok {
		return nil, domain.NotFoundf("promotion %d", id)
	}
	return p, nil
}

func (s *stubPromotionService) List(context.Context, *int64, domain.PromotionStatus, int, int) ([]domain.Promotion, error) {
	var out []domain.Promotion
	for _, p := range s.promotions {
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubPromotionService) Update(_ context.Context, actor *domain.Actor, id int64, patch domain.PromotionPatch) (*domain.Promotion, error) {
	p, err := s.Get(context.Background(), id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, domain.Forbiddenf("not allowed to update promotion %d", id)
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	return p, nil
}

func (s *stubPromotionService) Delete(_ context.Context, actor *domain.Actor, id int64) error {
	if _, err := s.Get(context.Background(), id); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return domain.Forbiddenf("not allowed to delete promotion %d", id)
	}
	s.promotions[id].Status = domain.PromotionInactive
	return nil
}

func (s *stubPromotionService) Validate(_ context.Context, _ *domain.Actor, req *domain.PromotionValidateRequest) (*domain.PromotionValidateResponse, error) {
	for _, p := range s.promotions {
		if p.Code == req.Code && p.Status == domain.PromotionActive {
			return &domain.PromotionValidateResponse{IsValid: true, Promotion: p, DiscountAmount: 10}, nil
		}
	}
	return &domain.PromotionValidateResponse{IsValid: false, ErrorMessage: "promotion code not found"}, nil
}

func (s *stubPromotionService) Apply(_ context.Context, actor *domain.Actor, req *domain.PromotionApplyRequest) (*domain.PromotionUsage, error) {
	if _, err := s.Get(context.Background(), req.PromotionID); err != nil {
		return nil, err
	}
	if s.applied[req.BookingID] {
		return nil, domain.Conflictf("booking %d already has a promotion applied", req.BookingID)
	}
	s.applied[req.BookingID] = true
	return &domain.PromotionUsage{ID: 1, PromotionID: req.PromotionID, BookingID: req.BookingID, UserID: actor.ID(), DiscountAmount: 10}, nil
}

func (s *stubPromotionService) ListUsage(context.Context, *domain.Actor, int64, int, int) ([]domain.PromotionUsage, error) {
	return nil, nil
}

func newPromotionTestServer(t *testing.T) (*httptest.Server, *stubPromotionService) {
	t.Helper()

	auth := &stubAuthService{actors: map[string]*domain.Actor{
		"customer-token": {User: &domain.User{ID: 7, Status: domain.UserActive}, Roles: []string{domain.RoleCustomer}},
		"admin-token":    {User: &domain.User{ID: 1, Status: domain.UserActive}, Roles: []string{domain.RoleAdmin}},
	}}
	promos := &stubPromotionService{
		promotions: map[int64]*domain.Promotion{
			1: {ID: 1, Code: "SAVE10", Title: "Ten percent off", Status: domain.PromotionActive},
		},
		applied: map[int64]bool{},
	}

	h := handlers.New(auth, nil, nil, nil, nil, nil, nil, promos, nil)
	r := chi.NewRouter()
	h.Routes(r, &memIdempotencyStore{values: map[string]string{}})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, promos
}

func doJSON(t *testing.T, method, url, token string, body interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
}

func TestGetPromotionHandler(t *testing.T) {
	srv, _ := newPromotionTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/promotions/1", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var promo domain.Promotion
	decodeBody(t, resp, &promo)
	if promo.Code != "SAVE10" {
		t.Fatalf("expected code SAVE10, got %q", promo.Code)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/promotions/999", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/promotions/abc", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for a non-numeric id, got %d", resp.StatusCode)
	}
}

func TestApplyPromotionHandler(t *testing.T) {
	srv, _ := newPromotionTestServer(t)
	body := domain.PromotionApplyRequest{BookingID: 55}

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/promotions/1/apply", "", body)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/promotions/1/apply", "customer-token", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var usage domain.PromotionUsage
	decodeBody(t, resp, &usage)
	if usage.BookingID != 55 || usage.PromotionID != 1 {
		t.Fatalf("unexpected usage %+v", usage)
	}

	// The same booking cannot redeem twice.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/promotions/1/apply", "customer-token", body)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 on the second apply, got %d", resp.StatusCode)
	}
}

func TestValidatePromotionHandler(t *testing.T) {
	srv, _ := newPromotionTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/promotions/validate", "customer-token",
		domain.PromotionValidateRequest{Code: "SAVE10", Amount: 100})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var result domain.PromotionValidateResponse
	decodeBody(t, resp, &result)
	if !result.IsValid {
		t.Fatalf("expected a valid code, got %+v", result)
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/promotions/validate", "customer-token",
		domain.PromotionValidateRequest{Amount: 100})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for a missing code, got %d", resp.StatusCode)
	}
}

func TestDeletePromotionHandler(t *testing.T) {
	srv, promos := newPromotionTestServer(t)

	resp := doJSON(t, http.MethodDelete, srv.URL+"/api/promotions/1", "customer-token", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for a customer, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/promotions/1", "admin-token", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if promos.promotions[1].Status != domain.PromotionInactive {
		t.Fatalf("expected the promotion to be deactivated, got %s", promos.promotions[1].Status)
	}
}
