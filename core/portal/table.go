package portal

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/marksboard/core"
	"github.com/trezcool/marksboard/core/marks"
	"github.com/trezcool/marksboard/core/student"
)

// Table is the multi-student dashboard: the ranking of all students, an "add marks" form
// for a student without marks, and inline editing of the student's own row.
// The listing is never patched locally: it is reloaded after every mutation.
type Table struct {
	client    Client
	student   student.Student
	logger    core.Logger
	noticeTTL time.Duration

	mu       sync.Mutex
	rows     []marks.Row
	loaded   bool
	loadErr  string
	showAdd  bool
	addForm  marks.Form
	adding   bool
	editing  string // student ID of the row in edit mode
	editForm marks.Form
	updating bool
	notice   Notice
}

func newTable(client Client, stu student.Student, opts Options) *Table {
	return &Table{
		client:    client,
		student:   stu,
		logger:    opts.Logger,
		noticeTTL: opts.NoticeTTL,
	}
}

// Reload replaces the listing with the one of the marks service.
// The add form is shown when the student has no row, or when the listing could not be loaded.
func (t *Table) Reload(ctx context.Context) error {
	rows, err := t.client.GetDashboardData(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.loaded = true
	if err != nil {
		t.loadErr = UserMessage(err, "Failed to load dashboard data")
		t.showAdd = true
		if t.logger != nil {
			t.logger.Warn("loading dashboard data", err, t.student)
		}
		return errors.Wrap(err, "loading dashboard data")
	}

	t.rows = rows
	t.loadErr = ""
	t.showAdd = !t.hasRow(t.student.ID)
	if t.editing != "" && !t.hasRow(t.editing) {
		t.editing = ""
		t.editForm.Reset()
	}
	return nil
}

func (t *Table) hasRow(studentID string) bool {
	_, ok := t.row(studentID)
	return ok
}

func (t *Table) row(studentID string) (marks.Row, bool) {
	for _, r := range t.rows {
		if r.StudentID == studentID {
			return r, true
		}
	}
	return marks.Row{}, false
}

// Rows returns a copy of the current listing.
func (t *Table) Rows() []marks.Row {
	t.mu.Lock()
	defer t.mu.Unlock()
	rows := make([]marks.Row, len(t.rows))
	copy(rows, t.rows)
	return rows
}

// ShowAdd reports whether the add form is displayed.
func (t *Table) ShowAdd() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.showAdd
}

// OpenAddForm re-opens the add form manually.
func (t *Table) OpenAddForm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.showAdd = true
}

// CloseAddForm hides the add form and discards its values.
func (t *Table) CloseAddForm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.showAdd = false
	t.addForm.Reset()
}

func (t *Table) SetAddField(field marks.Field, raw string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.addForm.Set(field, raw)
}

// Add submits the add form, then reloads the listing.
func (t *Table) Add(ctx context.Context) error {
	t.mu.Lock()
	if t.adding || t.updating {
		t.mu.Unlock()
		return ErrBusy
	}
	if !t.addForm.Submittable() {
		t.notice = errorNotice("Please fix all errors before submitting")
		t.mu.Unlock()
		return ErrInvalidForm
	}
	scores, err := t.addForm.Scores()
	if err != nil {
		t.mu.Unlock()
		return errors.Wrap(err, "parsing scores")
	}
	t.adding = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.adding = false
		t.mu.Unlock()
	}()

	if _, err := t.client.AddOrUpdateMarks(ctx, t.student.ID, scores); err != nil {
		t.setNotice(errorNotice(UserMessage(err, "Failed to add marks")))
		return errors.Wrap(err, "adding marks")
	}
	_ = t.Reload(ctx) // a failed reload only shows up as the load error

	t.mu.Lock()
	defer t.mu.Unlock()
	t.addForm.Reset()
	t.showAdd = false
	t.notice = successNotice("Marks added successfully!").expiring(t.noticeTTL)
	return nil
}

// StartEdit puts the row of `studentID` in edit mode. Only the student's own row can be edited.
func (t *Table) StartEdit(studentID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if studentID != t.student.ID {
		t.notice = errorNotice(ErrNotOwner.Error())
		return ErrNotOwner
	}
	r, ok := t.row(studentID)
	if !ok {
		return ErrRowNotFound
	}
	t.editing = studentID
	t.editForm = *marks.NewForm(r.Record)
	t.notice = Notice{}
	return nil
}

// Editing returns the student ID of the row in edit mode ("" when none).
func (t *Table) Editing() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.editing
}

func (t *Table) SetEditField(field marks.Field, raw string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.editing == "" {
		return ErrNotEditing
	}
	return t.editForm.Set(field, raw)
}

// CancelEdit discards the local edits without calling the marks service.
func (t *Table) CancelEdit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.editing = ""
	t.editForm.Reset()
	t.notice = Notice{}
}

// Save submits the edited row, then reloads the listing and leaves edit mode.
func (t *Table) Save(ctx context.Context) error {
	t.mu.Lock()
	if t.adding || t.updating {
		t.mu.Unlock()
		return ErrBusy
	}
	if t.editing == "" {
		t.mu.Unlock()
		return ErrNotEditing
	}
	if !t.editForm.Submittable() {
		t.notice = errorNotice("Please fix all errors before saving")
		t.mu.Unlock()
		return ErrInvalidForm
	}
	scores, err := t.editForm.Scores()
	if err != nil {
		t.mu.Unlock()
		return errors.Wrap(err, "parsing scores")
	}
	studentID := t.editing
	t.updating = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.updating = false
		t.mu.Unlock()
	}()

	if _, err := t.client.UpdateStudentMarks(ctx, studentID, scores); err != nil {
		t.setNotice(errorNotice(UserMessage(err, "Failed to update marks")))
		return errors.Wrap(err, "updating marks")
	}
	_ = t.Reload(ctx) // a failed reload only shows up as the load error

	t.mu.Lock()
	defer t.mu.Unlock()
	t.editing = ""
	t.editForm.Reset()
	t.notice = successNotice("Marks updated successfully!").expiring(t.noticeTTL)
	return nil
}

func (t *Table) setNotice(n Notice) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notice = n
}

func (t *Table) Notice() Notice {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.notice.current()
}

// TableView is a snapshot of the table for rendering.
type TableView struct {
	Student   student.Student
	Loaded    bool
	LoadError string
	Notice    Notice
	Rows      []RowView

	ShowAdd    bool
	AddFields  []FieldView
	CanAdd     bool
	Adding     bool
	Updating   bool
	EditFields []FieldView
	CanSave    bool
}

// RowView is one rendered line of the ranking.
type RowView struct {
	marks.Row
	Rank     string // "#3", or "-" when not ranked yet
	TR1      string
	TR2      string
	TR3      string
	Total    string
	Selected bool
	IsYou    bool
	Editing  bool
}

// Action is the control displayed at the end of the row: "Edit", "Save/Cancel" or "View Only".
func (r RowView) Action() string {
	switch {
	case r.Editing:
		return "Save/Cancel"
	case r.IsYou:
		return "Edit"
	}
	return "View Only"
}

func (t *Table) View() TableView {
	t.mu.Lock()
	defer t.mu.Unlock()

	view := TableView{
		Student:   t.student,
		Loaded:    t.loaded,
		LoadError: t.loadErr,
		Notice:    t.notice.current(),
		Rows:      make([]RowView, 0, len(t.rows)),
		ShowAdd:   t.showAdd,
		AddFields: fieldViews(&t.addForm),
		CanAdd:    !t.adding && t.addForm.Submittable(),
		Adding:    t.adding,
		Updating:  t.updating,
	}
	for _, r := range t.rows {
		view.Rows = append(view.Rows, RowView{
			Row:      r,
			Rank:     marks.FormatRank(r.Rank, "-"),
			TR1:      marks.FormatScore(r.TR1),
			TR2:      marks.FormatScore(r.TR2),
			TR3:      marks.FormatScore(r.TR3),
			Total:    marks.FormatScore(r.Total),
			Selected: r.Selected != nil && *r.Selected,
			IsYou:    r.StudentID == t.student.ID,
			Editing:  t.editing != "" && r.StudentID == t.editing,
		})
	}
	if t.editing != "" {
		view.EditFields = fieldViews(&t.editForm)
		view.CanSave = !t.updating && t.editForm.Submittable()
	}
	return view
}
