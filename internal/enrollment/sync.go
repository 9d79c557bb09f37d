// Package enrollment keeps the per-user enrollment records consistent with
// both the session's enrolled-course-id set and the catalog's view of the
// same fact. The enrollment service is versioned independently from the
// catalog, so reconciliation is one-directional and eventual: after a
// successful reconcile the session's set equals the courseId projection of
// the user's records, but the two may transiently disagree between an
// enroll write and the fetch that follows it.
package enrollment

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

// ErrBusy is returned when an enroll is attempted while another is still
// outstanding.
var ErrBusy = errors.New("enrollment: another enroll is in flight")

// API is the slice of the enrollment service the synchronizer depends on.
type API interface {
	ListEnrollments(ctx context.Context, studentID string) ([]normalize.RawEnrollment, error)
	CreateEnrollment(ctx context.Context, courseID string, req courseapi.EnrollmentRequest) error
}

// Session is the slice of the session store the synchronizer writes into.
type Session interface {
	AddEnrolledCourse(ctx context.Context, courseID string) error
}

// Synchronizer reacts to session user changes and owns the local
// enrollment record list consumed by views.
type Synchronizer struct {
	api     API
	session Session
	logger  *slog.Logger

	mu      sync.Mutex
	records []domain.EnrollmentRecord
	lastErr error
	gen     uint64

	busy atomic.Bool
}

func New(api API, session Session, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		api:     api,
		session: session,
		logger:  logger.With(slog.String("component", "enrollment")),
	}
}

// Records returns a copy of the local enrollment list.
func (s *Synchronizer) Records() []domain.EnrollmentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.EnrollmentRecord(nil), s.records...)
}

// LastError reports the most recent read-path failure. Cleared by the next
// successful reconcile.
func (s *Synchronizer) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Busy reports whether an enroll write is outstanding.
func (s *Synchronizer) Busy() bool { return s.busy.Load() }

// OnUserChanged is the session store's change callback. A transition to
// no-user clears the local list and invalidates in-flight completions; an
// authenticated user triggers a reconcile.
func (s *Synchronizer) OnUserChanged(ctx context.Context, user *domain.User) {
	if user == nil {
		s.mu.Lock()
		s.gen++
		s.records = nil
		s.lastErr = nil
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	if err := s.reconcile(ctx, user.ID, gen); err != nil {
		s.logger.Warn("enrollment reconcile failed, keeping local list",
			slog.String("user_id", user.ID), slog.String("error", err.Error()))
	}
}

// reconcile fetches the user's records, replaces the local list wholesale
// and folds every courseId into the session's enrolled set. It only adds
// ids, never removes: the platform treats enrollment as permanent, so the
// session's set grows monotonically from this source.
func (s *Synchronizer) reconcile(ctx context.Context, studentID string, gen uint64) error {
	raw, err := s.api.ListEnrollments(ctx, studentID)
	if err != nil {
		eerr := &domain.EnrollmentError{Op: "list", Err: err}
		s.mu.Lock()
		if s.gen == gen {
			s.lastErr = eerr
		}
		s.mu.Unlock()
		return eerr
	}

	records := make([]domain.EnrollmentRecord, 0, len(raw))
	for _, r := range raw {
		records = append(records, normalize.Enrollment(r))
	}

	s.mu.Lock()
	if s.gen != gen {
		// The user logged out (or switched) while the fetch was in
		// flight; drop the result.
		s.mu.Unlock()
		return nil
	}
	s.records = records
	s.lastErr = nil
	s.mu.Unlock()

	for _, rec := range records {
		if rec.CourseID == "" {
			continue
		}
		if err := s.session.AddEnrolledCourse(ctx, rec.CourseID); err != nil {
			s.logger.Warn("enrolled-set update failed", slog.String("course_id", rec.CourseID), slog.String("error", err.Error()))
		}
	}
	s.logger.Debug("enrollments reconciled", slog.String("user_id", studentID), slog.Int("count", len(records)))
	return nil
}

// Enroll writes a denormalized snapshot of (course, user) to the
// enrollment service, then re-fetches the user's records before returning.
// The caller's "already enrolled" check is only accurate once that
// re-fetch has resolved, not on the write's success alone.
func (s *Synchronizer) Enroll(ctx context.Context, course domain.Course, user domain.User) error {
	if !s.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer s.busy.Store(false)

	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	req := courseapi.EnrollmentRequest{
		StudentID:   user.ID,
		StudentName: user.Name,
		Name:        course.Title,
		Duration:    course.Duration,
		Type:        course.Category,
		Level:       course.Difficulty,
		Description: course.Description,
	}
	if err := s.api.CreateEnrollment(ctx, course.ID, req); err != nil {
		return &domain.EnrollmentError{Op: "create", Err: err}
	}

	s.mu.Lock()
	stale := s.gen != gen
	s.mu.Unlock()
	if stale {
		// Logged out while the write was in flight. The record exists
		// remotely; nothing local may be touched for the absent user.
		return nil
	}

	s.logger.Info("enrolled", slog.String("course_id", course.ID), slog.String("user_id", user.ID))
	return s.reconcile(ctx, user.ID, gen)
}
