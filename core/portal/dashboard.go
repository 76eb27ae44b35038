package portal

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/marksboard/core"
	"github.com/trezcool/marksboard/core/marks"
	"github.com/trezcool/marksboard/core/student"
)

// Dashboard is the single-student dashboard: the student's own marks form and results row.
//
// Submitting marks whose rank is not computed yet puts the dashboard in the "calculating"
// state while a RankPoller re-fetches the record in the background.
type Dashboard struct {
	client  Client
	student student.Student
	poller  RankPoller
	logger  core.Logger

	// lifetime of the background poll; cancelled by Close
	ctx    context.Context
	cancel context.CancelFunc
	polls  sync.WaitGroup

	mu          sync.Mutex
	form        marks.Form
	record      *marks.Record
	notice      Notice
	submitting  bool
	calculating bool
}

func newDashboard(client Client, stu student.Student, opts Options) *Dashboard {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dashboard{
		client:  client,
		student: stu,
		poller:  opts.Poller,
		logger:  opts.Logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Load fetches the existing marks of the student.
// A failed or empty load means "no marks yet" and is not reported.
func (d *Dashboard) Load(ctx context.Context) {
	d.mu.Lock()
	busy := d.submitting || d.calculating
	d.mu.Unlock()
	if busy {
		return
	}

	rec, err := d.client.GetMarks(ctx, d.student.ID)
	if err != nil {
		d.debug("no marks found for student, starting fresh", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.submitting || d.calculating {
		return
	}
	if err != nil || rec.Empty() {
		d.record = nil
		return
	}
	d.record = &rec
}

// SetField stores and validates one score input.
func (d *Dashboard) SetField(field marks.Field, raw string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.form.Set(field, raw)
}

// CanSubmit reports whether the submit control is enabled.
func (d *Dashboard) CanSubmit() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.canSubmit()
}

func (d *Dashboard) canSubmit() bool {
	return !d.calculating && !d.submitting && d.form.Submittable()
}

// Submit saves the form scores. When the saved record has no rank yet, the rank is polled in the
// background and Calculating reports true until the poll settles.
func (d *Dashboard) Submit(ctx context.Context) error {
	d.mu.Lock()
	if d.submitting || d.calculating {
		d.mu.Unlock()
		return ErrBusy
	}
	if !d.form.Submittable() {
		d.notice = errorNotice("Please fix all errors before submitting")
		d.mu.Unlock()
		return ErrInvalidForm
	}
	scores, err := d.form.Scores()
	if err != nil {
		d.mu.Unlock()
		return errors.Wrap(err, "parsing scores")
	}
	d.submitting = true
	d.mu.Unlock()

	saved, err := d.client.AddOrUpdateMarks(ctx, d.student.ID, scores)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.submitting = false
	if err != nil {
		d.notice = errorNotice(UserMessage(err, "Failed to save marks"))
		return errors.Wrap(err, "saving marks")
	}

	d.record = &saved
	d.form.Reset()
	if saved.Ranked() {
		d.notice = successNotice("Marks saved successfully!")
		return nil
	}

	d.calculating = true
	d.notice = successNotice("Marks saved! Calculating rank...")
	d.polls.Add(1)
	go d.pollRank()
	return nil
}

func (d *Dashboard) pollRank() {
	defer d.polls.Done()

	rec, err := d.poller.Poll(d.ctx, func(ctx context.Context) (marks.Record, error) {
		return d.client.GetMarks(ctx, d.student.ID)
	})

	d.mu.Lock()
	defer d.mu.Unlock()
	d.calculating = false
	if err != nil {
		// keep showing the saved record
		d.debug("failed to reload marks for rank update", err)
		return
	}
	d.record = &rec
	d.notice = successNotice("Marks saved and rank updated!")
}

// Calculating reports whether a rank poll is pending.
func (d *Dashboard) Calculating() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calculating
}

// Record returns the displayed marks record, if any.
func (d *Dashboard) Record() (marks.Record, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.record == nil {
		return marks.Record{}, false
	}
	return *d.record, true
}

func (d *Dashboard) Notice() Notice {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.notice.current()
}

// Wait blocks until the pending rank poll, if any, has settled.
func (d *Dashboard) Wait() {
	d.polls.Wait()
}

// Close cancels the pending rank poll.
func (d *Dashboard) Close() {
	d.cancel()
}

// DashboardView is a snapshot of the dashboard for rendering.
type DashboardView struct {
	Student     student.Student
	Fields      []FieldView
	Record      *marks.Record
	Notice      Notice
	Calculating bool
	CanSubmit   bool
}

func (d *Dashboard) View() DashboardView {
	d.mu.Lock()
	defer d.mu.Unlock()

	view := DashboardView{
		Student:     d.student,
		Fields:      fieldViews(&d.form),
		Notice:      d.notice.current(),
		Calculating: d.calculating,
		CanSubmit:   d.canSubmit(),
	}
	if d.record != nil {
		rec := *d.record
		view.Record = &rec
	}
	return view
}

func (d *Dashboard) debug(msg string, args ...interface{}) {
	if d.logger != nil {
		d.logger.Debug(msg, append(args, d.student)...)
	}
}

// FieldView is one score input of a marks form.
type FieldView struct {
	Name  string
	Label string
	Value string
	Error string
}

func fieldViews(f *marks.Form) []FieldView {
	views := make([]FieldView, 0, len(marks.Fields))
	for _, fld := range marks.Fields {
		views = append(views, FieldView{
			Name:  fld.String(),
			Label: fld.Label(),
			Value: f.Value(fld),
			Error: f.Error(fld),
		})
	}
	return views
}
