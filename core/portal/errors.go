package portal

import (
	"github.com/pkg/errors"

	"github.com/trezcool/marksboard/core"
)

var (
	ErrNotAuthenticated = errors.New("student not authenticated")
	ErrInvalidIdentity  = errors.New("invalid identity returned by the marks service")
	ErrBusy             = errors.New("another request is in progress")
	ErrInvalidForm      = errors.New("form has errors")
	ErrNotOwner         = errors.New("You can only edit your own marks")
	ErrNotEditing       = errors.New("no row is being edited")
	ErrRowNotFound      = errors.New("row not found")
	ErrRankPending      = errors.New("rank not computed yet")
)

// userMessager is implemented by errors carrying a message meant for the student (e.g. API errors).
type userMessager interface {
	UserMessage() string
}

// UserMessage returns the text to display for `err`, or `fallback` when the error carries none.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var um userMessager
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	var vErr *core.ValidationError
	if errors.As(err, &vErr) {
		if msg := vErr.Error(); msg != "" {
			return msg
		}
	}
	return fallback
}
