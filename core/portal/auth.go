package portal

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/marksboard/core/student"
)

// Signup registers a new student and, on a valid identity, enters the dashboard.
// Field errors are returned as *core.ValidationError without calling the marks service.
func (s *Shell) Signup(ctx context.Context, reg student.Registration) error {
	if err := reg.Validate(s.opts.Validate, s.opts.Translator); err != nil {
		s.fail(Notice{})
		return err
	}

	stu, err := s.client.RegisterStudent(ctx, reg)
	if err != nil {
		s.fail(errorNotice(UserMessage(err, "Registration failed")))
		return errors.Wrap(err, "registering student")
	}
	if !stu.Valid() {
		s.fail(errorNotice("Registration failed"))
		return ErrInvalidIdentity
	}

	s.logDebug(ctx, "student registered", map[string]interface{}{"id": stu.ID}, stu)
	s.enter(stu, successNotice("Registration successful"))
	return nil
}

// Login authenticates a student and, on a valid identity, enters the dashboard.
func (s *Shell) Login(ctx context.Context, creds student.Credentials) error {
	if err := creds.Validate(s.opts.Validate, s.opts.Translator); err != nil {
		s.fail(Notice{})
		return err
	}

	stu, err := s.client.LoginStudent(ctx, creds)
	if err != nil {
		s.fail(errorNotice(UserMessage(err, "Login failed")))
		return errors.Wrap(err, "logging in")
	}
	if !stu.Valid() {
		s.fail(errorNotice("Invalid credentials"))
		return ErrInvalidIdentity
	}

	s.logDebug(ctx, "student logged in", map[string]interface{}{"id": stu.ID}, stu)
	s.enter(stu, successNotice("Login successful"))
	return nil
}
