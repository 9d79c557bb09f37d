// Package normalize maps the heterogeneous wire shapes of the two backend
// services into the canonical in-memory model. The catalog service renamed
// several course fields over time (name/type/level vs title/category/
// difficulty) and different deployments still answer with either spelling;
// every mapping here applies a fixed fallback chain per field, exactly once.
//
// All functions are pure. Normalizing an already-canonical record returns
// an equal value.
package normalize

import (
	"fmt"
	"net/url"
	"strings"

	"lms-client/internal/domain"
)

const (
	defaultTitle      = "Untitled"
	defaultCategory   = "General"
	defaultDifficulty = "Beginner"
)

// RawCourse is a catalog record as the service serializes it. The id may
// arrive as id, course_id or courseId depending on the endpoint.
type RawCourse struct {
	ID        FlexID `json:"id"`
	CourseID  FlexID `json:"course_id"`
	CourseID2 FlexID `json:"courseId"`

	Title string `json:"title"`
	Name  string `json:"name"`

	Category string `json:"category"`
	Type     string `json:"type"`

	Difficulty string `json:"difficulty"`
	Level      string `json:"level"`

	Description string `json:"description"`
	Duration    string `json:"duration"`
	Thumbnail   string `json:"thumbnail"`

	Lessons  []RawLesson `json:"lessons"`
	Students []string    `json:"students"`
	Teachers []string    `json:"teachers"`
}

// RawLesson is a lesson as nested inside a RawCourse.
type RawLesson struct {
	ID          FlexID   `json:"id"`
	Title       string   `json:"title"`
	Duration    string   `json:"duration"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	CompletedBy []string `json:"completedBy"`
}

// RawEnrollment is a record as the enrollment service serializes it.
// Course fields use the legacy spellings (name/type/level).
type RawEnrollment struct {
	CourseID    FlexID `json:"courseId"`
	CourseIDAlt FlexID `json:"course_id"`
	StudentID   FlexID `json:"studentId"`
	StudentName string `json:"studentName"`

	Name  string `json:"name"`
	Title string `json:"title"`

	Type     string `json:"type"`
	Category string `json:"category"`

	Level      string `json:"level"`
	Difficulty string `json:"difficulty"`

	Duration    string `json:"duration"`
	Description string `json:"description"`
}

// RawUser is a profile as the auth service serializes it.
type RawUser struct {
	ID              FlexID   `json:"id"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Role            string   `json:"role"`
	EnrolledCourses []FlexID `json:"enrolledCourses"`
	Avatar          string   `json:"avatar"`
}

// Course maps a raw catalog record into the canonical shape. The five
// scalar fields are non-empty afterwards.
func Course(r RawCourse) domain.Course {
	c := domain.Course{
		ID:          firstNonEmpty(string(r.ID), string(r.CourseID), string(r.CourseID2)),
		Title:       strings.TrimSpace(firstNonEmpty(r.Title, r.Name, defaultTitle)),
		Category:    firstNonEmpty(r.Category, r.Type, defaultCategory),
		Difficulty:  firstNonEmpty(r.Difficulty, r.Level, defaultDifficulty),
		Description: firstNonEmpty(r.Description, "-"),
		Duration:    firstNonEmpty(r.Duration, "-"),
		Thumbnail:   strings.TrimSpace(r.Thumbnail),
		StudentIDs:  r.Students,
		TeacherIDs:  r.Teachers,
	}
	if len(r.Lessons) > 0 {
		c.Lessons = make([]domain.Lesson, 0, len(r.Lessons))
		for _, l := range r.Lessons {
			c.Lessons = append(c.Lessons, Lesson(l))
		}
	}
	return c
}

// Lesson maps a nested lesson record.
func Lesson(r RawLesson) domain.Lesson {
	return domain.Lesson{
		ID:          string(r.ID),
		Title:       strings.TrimSpace(r.Title),
		Duration:    strings.TrimSpace(r.Duration),
		Type:        lessonType(r.Type),
		Description: r.Description,
		CompletedBy: r.CompletedBy,
	}
}

// Enrollment maps a raw enrollment record into the canonical snapshot.
func Enrollment(r RawEnrollment) domain.EnrollmentRecord {
	return domain.EnrollmentRecord{
		CourseID:    firstNonEmpty(string(r.CourseID), string(r.CourseIDAlt)),
		StudentID:   string(r.StudentID),
		StudentName: strings.TrimSpace(r.StudentName),
		Title:       strings.TrimSpace(firstNonEmpty(r.Title, r.Name)),
		Category:    firstNonEmpty(r.Category, r.Type, defaultCategory),
		Difficulty:  firstNonEmpty(r.Difficulty, r.Level, defaultDifficulty),
		Duration:    firstNonEmpty(r.Duration, "-"),
		Description: r.Description,
	}
}

// User maps a raw profile. A missing avatar falls back to a generated
// initials image, matching what the views expect.
func User(r RawUser) domain.User {
	u := domain.User{
		ID:        string(r.ID),
		Name:      strings.TrimSpace(r.Name),
		Email:     strings.TrimSpace(r.Email),
		Role:      domain.ParseRole(r.Role),
		AvatarURL: strings.TrimSpace(r.Avatar),
	}
	if u.AvatarURL == "" {
		u.AvatarURL = "https://ui-avatars.com/api/?name=" + url.QueryEscape(u.Name)
	}
	if len(r.EnrolledCourses) > 0 {
		u.EnrolledCourseIDs = make([]string, 0, len(r.EnrolledCourses))
		for _, id := range r.EnrolledCourses {
			if id != "" {
				u.EnrolledCourseIDs = append(u.EnrolledCourseIDs, string(id))
			}
		}
	}
	return u
}

func lessonType(s string) domain.LessonType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "article", "reading", "text":
		return domain.LessonArticle
	case "quiz", "assessment":
		return domain.LessonQuiz
	default:
		return domain.LessonVideo
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// FlexID tolerates ids serialized as JSON strings or numbers. The course
// service hands out numeric ids while seeded catalog data uses strings.
type FlexID string

func (f *FlexID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		*f = ""
		return nil
	}
	if s[0] == '"' {
		*f = FlexID(strings.Trim(s, `"`))
		return nil
	}
	// bare number
	*f = FlexID(s)
	return nil
}

func (f FlexID) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", string(f))), nil
}
