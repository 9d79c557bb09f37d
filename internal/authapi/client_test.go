package authapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lms-client/internal/domain"
)

func discard() *slog.Logger { return slog.New(slog.DiscardHandler) }

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := New(srv.URL, 5*time.Second, discard())
	c.Retry.MaxAttempts = 1
	return c, srv
}

func TestLoginSuccess(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" || r.Method != http.MethodPost {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "a@b.c" {
			t.Errorf("Expected email in payload, got %v", body)
		}
		json.NewEncoder(w).Encode(map[string]string{"token": "tok-1"})
	}))
	defer srv.Close()

	token, err := c.Login(t.Context(), "a@b.c", "pw")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if token != "tok-1" {
		t.Errorf("Expected token 'tok-1', got %q", token)
	}
}

func TestLoginRejectedCarriesServiceMessage(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "Invalid email or password"})
	}))
	defer srv.Close()

	_, err := c.Login(t.Context(), "a@b.c", "wrong")
	var authErr *domain.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Expected AuthError, got %v", err)
	}
	if authErr.Message != "Invalid email or password" {
		t.Errorf("Expected service message, got %q", authErr.Message)
	}
}

func TestLoginMissingToken(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	_, err := c.Login(t.Context(), "a@b.c", "pw")
	var authErr *domain.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Expected AuthError for missing token, got %v", err)
	}
}

func TestResolveSessionSendsBearer(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Expected bearer header, got %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id": 7, "name": "Ada", "email": "a@b.c", "role": "faculty",
			"enrolledCourses": []string{"c1"},
		})
	}))
	defer srv.Close()

	u, err := c.ResolveSession(t.Context(), "tok-1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if u.ID != "7" || u.Role != domain.RoleFaculty {
		t.Errorf("Expected normalized profile, got %+v", u)
	}
	if len(u.EnrolledCourseIDs) != 1 || u.EnrolledCourseIDs[0] != "c1" {
		t.Errorf("Expected enrolled ids, got %v", u.EnrolledCourseIDs)
	}
}

func TestResolveSessionRejected(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := c.ResolveSession(t.Context(), "stale")
	var authErr *domain.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Expected AuthError, got %v", err)
	}
}

func TestResolveSessionMalformed(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"name": "no id"})
	}))
	defer srv.Close()

	_, err := c.ResolveSession(t.Context(), "tok")
	var authErr *domain.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Expected AuthError for malformed response, got %v", err)
	}
}

func TestRegisterRejectedIsValidationError(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "Email already registered"})
	}))
	defer srv.Close()

	err := c.Register(t.Context(), "Ada", "a@b.c", "pw", domain.RoleStudent)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if verr.Message != "Email already registered" {
		t.Errorf("Expected service message, got %q", verr.Message)
	}
}

func TestNetworkErrorDistinctFromRejection(t *testing.T) {
	c := New("http://127.0.0.1:1", time.Second, discard())
	c.Retry.MaxAttempts = 1

	_, err := c.Login(t.Context(), "a@b.c", "pw")
	var nerr *domain.NetworkError
	if !errors.As(err, &nerr) {
		t.Fatalf("Expected NetworkError for transport failure, got %v", err)
	}
}

func TestListFaculty(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/faculty" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "t1", "name": "Grace", "role": "faculty"},
			{"id": "t2", "name": "Alan", "role": "teacher"},
		})
	}))
	defer srv.Close()

	users, err := c.ListFaculty(t.Context())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("Expected 2 users, got %d", len(users))
	}
	if users[1].Role != domain.RoleFaculty {
		t.Errorf("Expected 'teacher' mapped to faculty role, got %q", users[1].Role)
	}
}
