package domain

import "strings"

// Role is the platform role attached to a user account.
type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleAdmin   Role = "admin"
)

// ParseRole maps a wire role value onto a known Role.
// Unknown or empty values fall back to RoleStudent.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "faculty", "teacher", "instructor":
		return RoleFaculty
	case "admin", "administrator":
		return RoleAdmin
	default:
		return RoleStudent
	}
}

// LessonType classifies the content of a lesson.
type LessonType string

const (
	LessonVideo   LessonType = "video"
	LessonArticle LessonType = "article"
	LessonQuiz    LessonType = "quiz"
)

// User is the authenticated account held by the session store.
// EnrolledCourseIDs has set semantics; insertion order is preserved.
type User struct {
	ID                string
	Name              string
	Email             string
	Role              Role
	EnrolledCourseIDs []string
	AvatarURL         string
}

// HasEnrolled reports whether courseID is already in the user's enrolled set.
func (u *User) HasEnrolled(courseID string) bool {
	for _, id := range u.EnrolledCourseIDs {
		if id == courseID {
			return true
		}
	}
	return false
}

// Lesson is nested inside a Course; its lifecycle is tied to the parent.
type Lesson struct {
	ID          string
	Title       string
	Duration    string
	Type        LessonType
	Description string
	CompletedBy []string
}

// Course is the canonical catalog entry. After normalization Title,
// Category, Difficulty, Description and Duration are non-empty.
type Course struct {
	ID          string
	Title       string
	Category    string
	Difficulty  string
	Description string
	Duration    string
	Thumbnail   string
	Lessons     []Lesson
	StudentIDs  []string
	TeacherIDs  []string
}

// CourseInput is the canonical shape accepted when creating a catalog entry.
type CourseInput struct {
	Title       string
	Category    string
	Difficulty  string
	Description string
	Duration    string
	Lessons     []Lesson
}

// EnrollmentRecord is the denormalized snapshot held by the enrollment
// service: it carries redundant course fields captured at enroll time
// rather than a foreign-key reference into the catalog.
type EnrollmentRecord struct {
	CourseID    string
	StudentID   string
	StudentName string
	Title       string
	Duration    string
	Category    string
	Difficulty  string
	Description string
}
