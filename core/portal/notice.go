package portal

import "time"

var nowFunc = time.Now // mockable

type NoticeKind int

const (
	NoticeSuccess NoticeKind = iota + 1
	NoticeError
)

// Notice is a message shown on top of a screen. A Notice with an expiry clears itself.
type Notice struct {
	Kind    NoticeKind
	Text    string
	expires time.Time
}

func successNotice(text string) Notice { return Notice{Kind: NoticeSuccess, Text: text} }
func errorNotice(text string) Notice   { return Notice{Kind: NoticeError, Text: text} }

// expiring returns a copy of `n` that clears after `ttl` (never when ttl <= 0).
func (n Notice) expiring(ttl time.Duration) Notice {
	if ttl > 0 {
		n.expires = nowFunc().Add(ttl)
	}
	return n
}

// Active reports whether the notice should still be displayed.
func (n Notice) Active() bool {
	if n.Text == "" {
		return false
	}
	return n.expires.IsZero() || nowFunc().Before(n.expires)
}

func (n Notice) IsError() bool { return n.Kind == NoticeError }

// current returns `n` if it is still active, the zero Notice otherwise.
func (n Notice) current() Notice {
	if n.Active() {
		return n
	}
	return Notice{}
}
