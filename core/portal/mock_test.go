package portal

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/marksboard/core/marks"
	"github.com/trezcool/marksboard/core/student"
)

// apiErr mimics the error of a rejected API call.
type apiErr struct{ msg string }

func (e apiErr) Error() string       { return "api: " + e.msg }
func (e apiErr) UserMessage() string { return e.msg }

type call struct {
	op        string
	studentID string
	scores    marks.Scores
}

// clientMock is a scriptable Client recording every call.
type clientMock struct {
	mu    sync.Mutex
	calls []call

	register  func(reg student.Registration) (student.Student, error)
	login     func(creds student.Credentials) (student.Student, error)
	upsert    func(studentID string, scores marks.Scores) (marks.Record, error)
	getMarks  func(studentID string) (marks.Record, error)
	dashboard func() ([]marks.Row, error)
	update    func(studentID string, scores marks.Scores) (marks.Record, error)
}

var _ Client = (*clientMock)(nil)

var errNotScripted = errors.New("call not scripted")

func (c *clientMock) record(cl call) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, cl)
}

func (c *clientMock) Calls(op string) []call {
	c.mu.Lock()
	defer c.mu.Unlock()
	var calls []call
	for _, cl := range c.calls {
		if cl.op == op {
			calls = append(calls, cl)
		}
	}
	return calls
}

func (c *clientMock) RegisterStudent(_ context.Context, reg student.Registration) (student.Student, error) {
	c.record(call{op: "register"})
	if c.register == nil {
		return student.Student{}, errNotScripted
	}
	return c.register(reg)
}

func (c *clientMock) LoginStudent(_ context.Context, creds student.Credentials) (student.Student, error) {
	c.record(call{op: "login"})
	if c.login == nil {
		return student.Student{}, errNotScripted
	}
	return c.login(creds)
}

func (c *clientMock) AddOrUpdateMarks(_ context.Context, studentID string, scores marks.Scores) (marks.Record, error) {
	c.record(call{op: "upsert", studentID: studentID, scores: scores})
	if c.upsert == nil {
		return marks.Record{}, errNotScripted
	}
	return c.upsert(studentID, scores)
}

func (c *clientMock) GetMarks(_ context.Context, studentID string) (marks.Record, error) {
	c.record(call{op: "get", studentID: studentID})
	if c.getMarks == nil {
		return marks.Record{StudentID: studentID}, nil
	}
	return c.getMarks(studentID)
}

func (c *clientMock) GetDashboardData(_ context.Context) ([]marks.Row, error) {
	c.record(call{op: "dashboard"})
	if c.dashboard == nil {
		return nil, errNotScripted
	}
	return c.dashboard()
}

func (c *clientMock) UpdateStudentMarks(_ context.Context, studentID string, scores marks.Scores) (marks.Record, error) {
	c.record(call{op: "update", studentID: studentID, scores: scores})
	if c.update == nil {
		return marks.Record{}, errNotScripted
	}
	return c.update(studentID, scores)
}

var (
	ada = student.Student{ID: "s1", Name: "Ada", Email: "ada@test.cd"}
	bob = student.Student{ID: "s2", Name: "Bob", Email: "bob@test.cd"}
)

func newRecord(studentID string, tr1, tr2, tr3 float64, rank *int) marks.Record {
	total := tr1 + tr2 + tr3
	return marks.Record{
		StudentID: studentID,
		TR1:       marks.Float(tr1),
		TR2:       marks.Float(tr2),
		TR3:       marks.Float(tr3),
		Total:     marks.Float(total),
		Selected:  marks.Bool(total/3 > 35),
		Rank:      rank,
	}
}

func newRow(stu student.Student, tr1, tr2, tr3 float64, rank int) marks.Row {
	return marks.Row{Record: newRecord(stu.ID, tr1, tr2, tr3, marks.Int(rank)), Name: stu.Name, Email: stu.Email}
}

func fillForm(set func(marks.Field, string) error, tr1, tr2, tr3 string) {
	_ = set(marks.TR1, tr1)
	_ = set(marks.TR2, tr2)
	_ = set(marks.TR3, tr3)
}
