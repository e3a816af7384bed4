package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bookline/bookline-api/pkg/logger"
)

type memStore struct {
	values map[string]string
	setErr error
}

func newMemStore() *memStore {
	return &memStore{values: make(map[string]string)}
}

func (s *memStore) Get(_ context.Context, key string) (string, error) {
	return s.values[key], nil
}

func (s *memStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.values[key] = value
	return nil
}

// asUser simulates the auth middleware placing the caller's id in the
// request context.
func asUser(id int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), logger.UserIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func postWithKey(t *testing.T, handler http.Handler, key, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestIdempotencyReplaysForSameUser(t *testing.T) {
	store := newMemStore()
	calls := 0
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":1}`)
	})
	handler := asUser(7, IdempotencyMiddleware(store)(inner))

	first := postWithKey(t, handler, "key-1", `{"business_id":1}`)
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", first.Code)
	}

	second := postWithKey(t, handler, "key-1", `{"business_id":1}`)
	if second.Code != http.StatusOK {
		t.Fatalf("expected the cached replay, got %d", second.Code)
	}
	if second.Body.String() != `{"id":1}` {
		t.Fatalf("unexpected replayed body %q", second.Body.String())
	}
	if calls != 1 {
		t.Fatalf("expected 1 handler call, got %d", calls)
	}
}

func TestIdempotencyIsScopedPerUserAndBody(t *testing.T) {
	store := newMemStore()
	calls := 0
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"ok":true}`)
	})
	mw := IdempotencyMiddleware(store)

	postWithKey(t, asUser(7, mw(inner)), "shared-key", `{"business_id":1}`)

	// Another user reusing the same key must not receive user 7's response.
	other := postWithKey(t, asUser(8, mw(inner)), "shared-key", `{"business_id":1}`)
	if other.Code != http.StatusCreated {
		t.Fatalf("expected a fresh 201 for the other user, got %d", other.Code)
	}

	// The same user with the same key but a different payload starts over too.
	changed := postWithKey(t, asUser(7, mw(inner)), "shared-key", `{"business_id":2}`)
	if changed.Code != http.StatusCreated {
		t.Fatalf("expected a fresh 201 for a changed body, got %d", changed.Code)
	}

	if calls != 3 {
		t.Fatalf("expected 3 handler calls, got %d", calls)
	}
}

func TestIdempotencyLeavesBodyReadable(t *testing.T) {
	store := newMemStore()
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body in handler: %v", err)
		}
		seen = string(data)
		w.WriteHeader(http.StatusCreated)
	})

	postWithKey(t, asUser(7, IdempotencyMiddleware(store)(inner)), "key-2", `{"participants":3}`)
	if seen != `{"participants":3}` {
		t.Fatalf("handler saw body %q", seen)
	}
}

func TestIdempotencyStoreFailureDoesNotBreakResponse(t *testing.T) {
	store := newMemStore()
	store.setErr = errors.New("redis down")
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":9}`)
	})
	handler := asUser(7, IdempotencyMiddleware(store)(inner))

	rec := postWithKey(t, handler, "key-3", `{}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 despite the store failure, got %d", rec.Code)
	}
	if rec.Body.String() != `{"id":9}` {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}
