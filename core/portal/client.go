package portal

import (
	"context"

	"github.com/trezcool/marksboard/core/marks"
	"github.com/trezcool/marksboard/core/student"
)

// Client is the marks service as seen by the screens.
// All computation (total, selection, rank) happens behind it.
type Client interface {
	RegisterStudent(ctx context.Context, reg student.Registration) (student.Student, error)
	LoginStudent(ctx context.Context, creds student.Credentials) (student.Student, error)

	// AddOrUpdateMarks creates the marks record of the student, or updates it when it already exists.
	AddOrUpdateMarks(ctx context.Context, studentID string, scores marks.Scores) (marks.Record, error)
	// GetMarks never fails on a missing record: an empty Record is returned instead.
	GetMarks(ctx context.Context, studentID string) (marks.Record, error)
	GetDashboardData(ctx context.Context) ([]marks.Row, error)
	UpdateStudentMarks(ctx context.Context, studentID string, scores marks.Scores) (marks.Record, error)
}
