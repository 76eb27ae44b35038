package portal

import (
	"context"
	"sync"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/marksboard/core"
	"github.com/trezcool/marksboard/core/student"
)

// Screen is the screen the shell currently displays.
type Screen int

const (
	ScreenSignup Screen = iota
	ScreenLogin
	ScreenDashboard
)

func (s Screen) String() string {
	switch s {
	case ScreenSignup:
		return "signup"
	case ScreenLogin:
		return "login"
	case ScreenDashboard:
		return "dashboard"
	}
	return "unknown"
}

type Options struct {
	Validate   *validator.Validate
	Translator ut.Translator
	Logger     core.Logger
	Poller     RankPoller
	NoticeTTL  time.Duration // how long success notices of the table stay visible
}

// OptionsFromConfig builds the shell options out of the portal config.
func OptionsFromConfig(conf *core.Config, logger core.Logger, validate *validator.Validate, translator ut.Translator) Options {
	return Options{
		Validate:   validate,
		Translator: translator,
		Logger:     logger,
		Poller: RankPoller{
			Delay:    conf.Portal.RankPollDelay,
			Attempts: conf.Portal.RankPollAttempts,
			Backoff:  conf.Portal.RankPollBackoff,
		},
		NoticeTTL: conf.Portal.NoticeTTL,
	}
}

// Shell holds the state of one student session: the current screen and the authenticated student.
// It is the only component keeping state across screens.
type Shell struct {
	client Client
	opts   Options

	mu        sync.Mutex
	screen    Screen
	student   *student.Student
	notice    Notice
	dashboard *Dashboard
	table     *Table
}

func NewShell(client Client, opts Options) *Shell {
	if opts.Validate == nil || opts.Translator == nil {
		opts.Validate, opts.Translator = core.NewValidator()
	}
	return &Shell{
		client: client,
		opts:   opts,
		screen: ScreenSignup,
	}
}

func (s *Shell) Screen() Screen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen
}

// Student returns the authenticated student, if any.
func (s *Shell) Student() (student.Student, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.student == nil {
		return student.Student{}, false
	}
	return *s.student, true
}

// Notice returns the message of the signup/login screens.
func (s *Shell) Notice() Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notice.current()
}

// Show switches between the signup and login screens.
// An authenticated student always stays on the dashboard.
func (s *Shell) Show(screen Screen) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.student != nil {
		s.screen = ScreenDashboard
		return nil
	}
	if screen == ScreenDashboard {
		return ErrNotAuthenticated
	}
	if screen != s.screen {
		s.notice = Notice{}
	}
	s.screen = screen
	return nil
}

// enter moves an authenticated student to the dashboard.
func (s *Shell) enter(stu student.Student, notice Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeDashboards()
	s.student = &stu
	s.screen = ScreenDashboard
	s.notice = notice
	s.dashboard = newDashboard(s.client, stu, s.opts)
	s.table = newTable(s.client, stu, s.opts)
}

func (s *Shell) fail(notice Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = notice
}

// Logout forgets the student and cancels any pending rank poll.
func (s *Shell) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeDashboards()
	s.student = nil
	s.screen = ScreenLogin
	s.notice = Notice{}
}

// Close releases the resources of the shell (the session ended).
func (s *Shell) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeDashboards()
}

func (s *Shell) closeDashboards() {
	if s.dashboard != nil {
		s.dashboard.Close()
		s.dashboard = nil
	}
	s.table = nil
}

// Dashboard returns the single-student dashboard of the authenticated student.
func (s *Shell) Dashboard() (*Dashboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.student == nil || s.dashboard == nil {
		return nil, ErrNotAuthenticated
	}
	return s.dashboard, nil
}

// Table returns the ranking table seen by the authenticated student.
func (s *Shell) Table() (*Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.student == nil || s.table == nil {
		return nil, ErrNotAuthenticated
	}
	return s.table, nil
}

func (s *Shell) logDebug(ctx context.Context, msg string, args ...interface{}) {
	if s.opts.Logger != nil && ctx.Err() == nil {
		s.opts.Logger.Debug(msg, args...)
	}
}
