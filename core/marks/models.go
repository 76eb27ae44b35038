package marks

import (
	"encoding/json"
	"strconv"

	"github.com/trezcool/marksboard/core/student"
)

// Scores are the three term scores a student submits.
type Scores struct {
	TR1 float64 `json:"tr1"`
	TR2 float64 `json:"tr2"`
	TR3 float64 `json:"tr3"`
}

// Record is the marks record of one student.
// Total, Selected and Rank are computed by the marks service and may be nil
// right after a submission, while the rank is being computed.
type Record struct {
	ID        string   `json:"id,omitempty"`
	StudentID string   `json:"studentId"`
	TR1       *float64 `json:"tr1"`
	TR2       *float64 `json:"tr2"`
	TR3       *float64 `json:"tr3"`
	Total     *float64 `json:"total"`
	Selected  *bool    `json:"selected"`
	Rank      *int     `json:"rank"`
}

// UnmarshalJSON also accepts the nested `student` object some endpoints return instead of `studentId`.
func (r *Record) UnmarshalJSON(data []byte) error {
	type record Record
	var raw struct {
		record
		Student *student.Student `json:"student"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Record(raw.record)
	if r.StudentID == "" && raw.Student != nil {
		r.StudentID = raw.Student.ID
	}
	return nil
}

// Empty reports whether no score was ever submitted.
func (r Record) Empty() bool {
	return r.TR1 == nil && r.TR2 == nil && r.TR3 == nil
}

// Ranked reports whether the marks service already computed the rank.
func (r Record) Ranked() bool {
	return r.Rank != nil
}

// Row is one line of the dashboard listing: a Record plus the identity of its owner.
type Row struct {
	Record
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (r *Row) UnmarshalJSON(data []byte) error {
	var ident struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(data, &ident); err != nil {
		return err
	}
	if err := json.Unmarshal(data, &r.Record); err != nil {
		return err
	}
	r.Name, r.Email = ident.Name, ident.Email
	return nil
}

// FormatScore renders an optional score the way the dashboards display it ("-" when absent).
func FormatScore(f *float64) string {
	if f == nil {
		return "-"
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

// FormatRank renders an optional rank ("#3"), or `fallback` when absent.
func FormatRank(rank *int, fallback string) string {
	if rank == nil {
		return fallback
	}
	return "#" + strconv.Itoa(*rank)
}

// Float, Bool and Int return pointers to their argument.
func Float(f float64) *float64 { return &f }
func Bool(b bool) *bool        { return &b }
func Int(i int) *int           { return &i }
