// Package courseapi is the client for the catalog/enrollment service. The
// service is independently versioned from the auth service and still
// answers with legacy field spellings (name/type/level); responses are
// returned raw so the caller can run them through internal/normalize.
package courseapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"lms-client/internal/httpx"
	"lms-client/internal/normalize"
)

const contentTypeJSON = "application/json"

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Retry   httpx.RetryConfig

	logger *slog.Logger
}

func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: timeout},
		Retry:   httpx.DefaultRetryConfig(),
		logger:  logger.With(slog.String("component", "course_client")),
	}
}

// CreateCourseRequest is the wire shape the catalog expects on create.
// Note the legacy spellings: name, type, level.
type CreateCourseRequest struct {
	Name        string `json:"name"`
	Duration    string `json:"duration"`
	Type        string `json:"type"`
	Level       string `json:"level"`
	Description string `json:"description"`
}

// EnrollmentRequest is the denormalized payload the enrollment service
// expects: it is schema-agnostic toward the catalog, so the caller supplies
// the redundant course fields itself.
type EnrollmentRequest struct {
	StudentID   string `json:"studentId"`
	StudentName string `json:"studentName"`
	Name        string `json:"name"`
	Duration    string `json:"duration"`
	Type        string `json:"type"`
	Level       string `json:"level"`
	Description string `json:"description"`
}

// ListCourses fetches the full catalog.
func (c *Client) ListCourses(ctx context.Context) ([]normalize.RawCourse, error) {
	var out []normalize.RawCourse
	if err := httpx.DoJSON(ctx, c.HTTP, c.get("/courses"), &out, c.Retry); err != nil {
		return nil, err
	}
	c.logger.Debug("courses listed", slog.Int("count", len(out)))
	return out, nil
}

// CreateCourse adds a catalog entry and returns the service's view of it.
// The response omits relationship collections (lessons, students).
func (c *Client) CreateCourse(ctx context.Context, req CreateCourseRequest) (normalize.RawCourse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return normalize.RawCourse{}, err
	}

	var out normalize.RawCourse
	if err := httpx.DoJSON(ctx, c.HTTP, c.post("/courses/add", body), &out, c.Retry); err != nil {
		return normalize.RawCourse{}, err
	}
	return out, nil
}

// DeleteCourse removes a catalog entry by id.
func (c *Client) DeleteCourse(ctx context.Context, id string) error {
	return httpx.DoJSON(ctx, c.HTTP, func(ctx context.Context) (*http.Request, error) {
		u, err := url.JoinPath(c.BaseURL, "/courses/delete", id)
		if err != nil {
			return nil, err
		}
		return http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	}, nil, c.Retry)
}

// ListEnrollments fetches all enrollment records for one student.
func (c *Client) ListEnrollments(ctx context.Context, studentID string) ([]normalize.RawEnrollment, error) {
	var out []normalize.RawEnrollment
	err := httpx.DoJSON(ctx, c.HTTP, c.getJoined("/enrollments/student", studentID), &out, c.Retry)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListAllEnrollments fetches every enrollment record the service holds.
// Used by the roster export, not by the per-user synchronizer.
func (c *Client) ListAllEnrollments(ctx context.Context) ([]normalize.RawEnrollment, error) {
	var out []normalize.RawEnrollment
	if err := httpx.DoJSON(ctx, c.HTTP, c.get("/enrollments"), &out, c.Retry); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateEnrollment writes one (student, course) record. Uniqueness of the
// pair is enforced by the service, not here.
func (c *Client) CreateEnrollment(ctx context.Context, courseID string, req EnrollmentRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return httpx.DoJSON(ctx, c.HTTP, func(ctx context.Context) (*http.Request, error) {
		u, err := url.JoinPath(c.BaseURL, "/enrollments/course", courseID)
		if err != nil {
			return nil, err
		}
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", contentTypeJSON)
		return r, nil
	}, nil, c.Retry)
}

func (c *Client) get(path string) func(context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
		if err != nil {
			return nil, err
		}
		r.Header.Set("Accept", contentTypeJSON)
		return r, nil
	}
}

func (c *Client) getJoined(path, id string) func(context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		u, err := url.JoinPath(c.BaseURL, path, id)
		if err != nil {
			return nil, err
		}
		r, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		r.Header.Set("Accept", contentTypeJSON)
		return r, nil
	}
}

func (c *Client) post(path string, body []byte) func(context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", contentTypeJSON)
		r.Header.Set("Accept", contentTypeJSON)
		return r, nil
	}
}
