// Package export writes enrollment roster feeds for offline consumers
// (reporting, registrar imports).
package export

import (
	"encoding/csv"
	"io"

	"github.com/andybalholm/brotli"

	"lms-client/internal/domain"
)

// Keep header order EXACT; downstream imports match columns by position.
var rosterHeader = []string{
	"COURSE_ID",
	"COURSE_TITLE",
	"STUDENT_ID",
	"STUDENT_NAME",
	"CATEGORY",
	"DIFFICULTY",
	"DURATION",
	"DESCRIPTION",
}

// WriteRosterCSV writes enrollment records in the roster import format.
func WriteRosterCSV(w io.Writer, records []domain.EnrollmentRecord) error {
	cw := csv.NewWriter(w)
	// match typical import templates
	cw.UseCRLF = true

	if err := cw.Write(rosterHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.CourseID,
			r.Title,
			r.StudentID,
			r.StudentName,
			r.Category,
			r.Difficulty,
			r.Duration,
			r.Description,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRosterCSVBrotli writes the same feed brotli-compressed (.csv.br),
// the format the drop endpoint prefers for large rosters.
func WriteRosterCSVBrotli(w io.Writer, records []domain.EnrollmentRecord) error {
	bw := brotli.NewWriterLevel(w, brotli.BestCompression)
	if err := WriteRosterCSV(bw, records); err != nil {
		bw.Close()
		return err
	}
	return bw.Close()
}
