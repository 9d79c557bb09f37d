// Package catalog owns the in-memory list of normalized catalog entries
// and the create/delete mutations against the catalog service.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"lms-client/internal/courseapi"
	"lms-client/internal/domain"
	"lms-client/internal/normalize"
)

// ErrBusy is returned when a mutation is attempted while another mutation
// is still outstanding. Overlapping mutations are rejected deterministically
// instead of racing; FetchAll is not serialized by this guard.
var ErrBusy = errors.New("catalog: another mutation is in flight")

// RefreshStrategy selects how the cache is brought up to date after a
// successful create: append the service's response locally (low-latency
// feedback) or re-run a full fetch (server-confirmed freshness).
type RefreshStrategy int

const (
	RefreshAppend RefreshStrategy = iota
	RefreshRefetch
)

// API is the slice of the catalog service the cache depends on.
type API interface {
	ListCourses(ctx context.Context) ([]normalize.RawCourse, error)
	CreateCourse(ctx context.Context, req courseapi.CreateCourseRequest) (normalize.RawCourse, error)
	DeleteCourse(ctx context.Context, id string) error
}

// Cache is constructed once per process and injected into consumers.
type Cache struct {
	api    API
	logger *slog.Logger

	mu      sync.Mutex
	courses []domain.Course
	lastErr error
	gen     uint64

	busy atomic.Bool
}

func New(api API, logger *slog.Logger) *Cache {
	return &Cache{
		api:    api,
		logger: logger.With(slog.String("component", "catalog")),
	}
}

// Courses returns a copy of the cached list.
func (c *Cache) Courses() []domain.Course {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Course(nil), c.courses...)
}

// LastError reports the most recent read-path failure, so consumers can
// surface staleness instead of silently showing old data. Cleared by the
// next successful fetch.
func (c *Cache) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Busy reports whether a mutation is outstanding, for disabling the
// triggering affordance.
func (c *Cache) Busy() bool { return c.busy.Load() }

// FetchAll replaces the cache wholesale with the normalized remote list.
// On failure the previous contents stay intact and the error is both
// recorded and returned.
func (c *Cache) FetchAll(ctx context.Context) error {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	raw, err := c.api.ListCourses(ctx)
	if err != nil {
		cerr := &domain.CatalogError{Op: "list", Err: err}
		c.mu.Lock()
		if c.gen == gen {
			c.lastErr = cerr
		}
		c.mu.Unlock()
		c.logger.Warn("catalog fetch failed, keeping cached list", slog.String("error", err.Error()))
		return cerr
	}

	courses := make([]domain.Course, 0, len(raw))
	for _, r := range raw {
		courses = append(courses, normalize.Course(r))
	}

	c.mu.Lock()
	if c.gen == gen {
		c.courses = courses
		c.lastErr = nil
	}
	c.mu.Unlock()
	c.logger.Debug("catalog fetched", slog.Int("count", len(courses)))
	return nil
}

// Create translates the canonical input into the service's wire shape and
// adds the entry. With RefreshAppend the returned entry is built from the
// service's response (not the input), normalized, with empty relationship
// collections (nested lessons fall back to the input's when the response
// omits them); with RefreshRefetch the whole catalog is re-fetched and the
// created entry is looked up in the fresh list.
func (c *Cache) Create(ctx context.Context, input domain.CourseInput, strategy RefreshStrategy) (domain.Course, error) {
	if !c.busy.CompareAndSwap(false, true) {
		return domain.Course{}, ErrBusy
	}
	defer c.busy.Store(false)

	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	raw, err := c.api.CreateCourse(ctx, courseapi.CreateCourseRequest{
		Name:        input.Title,
		Duration:    input.Duration,
		Type:        input.Category,
		Level:       input.Difficulty,
		Description: input.Description,
	})
	if err != nil {
		return domain.Course{}, &domain.CatalogError{Op: "create", Err: err}
	}

	created := normalize.Course(raw)
	if len(created.Lessons) == 0 && len(input.Lessons) > 0 {
		// The add endpoint drops nested lessons; keep the caller's.
		created.Lessons = append([]domain.Lesson(nil), input.Lessons...)
	}
	if created.Lessons == nil {
		created.Lessons = []domain.Lesson{}
	}
	if created.StudentIDs == nil {
		created.StudentIDs = []string{}
	}
	if created.TeacherIDs == nil {
		created.TeacherIDs = []string{}
	}

	switch strategy {
	case RefreshRefetch:
		if err := c.FetchAll(ctx); err != nil {
			// The entry exists remotely; report the stale read, not a
			// failed create.
			return created, nil
		}
		c.mu.Lock()
		for _, cached := range c.courses {
			if cached.ID == created.ID {
				created = cached
				break
			}
		}
		c.mu.Unlock()
	default:
		c.mu.Lock()
		if c.gen == gen {
			c.courses = append(c.courses, created)
		}
		c.mu.Unlock()
	}

	c.logger.Info("course created", slog.String("course_id", created.ID), slog.String("title", created.Title))
	return created, nil
}

// Remove deletes the entry remotely, then drops it from the cache by id.
// On failure the cache is unchanged.
func (c *Cache) Remove(ctx context.Context, id string) error {
	if !c.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer c.busy.Store(false)

	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	if err := c.api.DeleteCourse(ctx, id); err != nil {
		return &domain.CatalogError{Op: "delete", Err: err}
	}

	c.mu.Lock()
	if c.gen == gen {
		kept := c.courses[:0:0]
		for _, course := range c.courses {
			if course.ID != id {
				kept = append(kept, course)
			}
		}
		c.courses = kept
	}
	c.mu.Unlock()

	c.logger.Info("course removed", slog.String("course_id", id))
	return nil
}

// Reset drops the cached list and invalidates in-flight completions.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.gen++
	c.courses = nil
	c.lastErr = nil
	c.mu.Unlock()
}
