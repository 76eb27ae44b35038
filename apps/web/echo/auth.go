package echoweb

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/marksboard/core"
	"github.com/trezcool/marksboard/core/portal"
	inmemdb "github.com/trezcool/marksboard/storage/inmem"
)

const (
	contextShellKey     = "shell"
	contextSessionIDKey = "sessionID"
	sessionAudience     = "marksboard-web"
)

var (
	nowFunc = time.Now // mockable

	errShellNotFoundInCtx = errors.New("shell not found in echo.Context")
	errInvalidSession     = errors.New("invalid session token")
)

// SessionClaims are the claims of the session cookie. The subject is the opaque session ID:
// the student's identity never leaves the server.
type SessionClaims struct {
	jwt.StandardClaims
}

// GenerateSessionToken signs a session token for the session `id`.
func GenerateSessionToken(conf *core.Config, id string) (string, error) {
	now := nowFunc()
	claims := &SessionClaims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   id,
			Audience:  sessionAudience,
			ExpiresAt: now.Add(conf.Server.SessionExpiration).Unix(),
			IssuedAt:  now.Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// ParseSessionToken verifies a session token and returns its session ID.
func ParseSessionToken(conf *core.Config, tokenString string) (string, error) {
	claims := new(SessionClaims)
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errInvalidSession
		}
		return []byte(conf.SecretKey), nil
	})
	if err != nil || !token.Valid {
		return "", errInvalidSession
	}
	if !claims.VerifyAudience(sessionAudience, true) || claims.Subject == "" {
		return "", errInvalidSession
	}
	return claims.Subject, nil
}

func setSessionCookie(ctx echo.Context, conf *core.Config, id string) error {
	token, err := GenerateSessionToken(conf, id)
	if err != nil {
		return err
	}
	ctx.SetCookie(&http.Cookie{
		Name:     conf.Server.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  nowFunc().Add(conf.Server.SessionExpiration),
		HttpOnly: true,
		Secure:   !(conf.Debug || conf.TestMode),
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// sessionMiddleware attaches the portal shell of the browser session to the context,
// starting a new session when the cookie is missing, invalid or expired.
func sessionMiddleware(conf *core.Config, sessions *inmemdb.SessionStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			var (
				id    string
				shell *portal.Shell
			)
			if cookie, err := ctx.Cookie(conf.Server.CookieName); err == nil {
				if id, err = ParseSessionToken(conf, cookie.Value); err == nil {
					shell, _ = sessions.Get(id)
				}
			}
			if shell == nil {
				var err error
				if id, shell, err = sessions.Create(); err != nil {
					if err == inmemdb.ErrStoreClosed {
						return core.NewShutdownError("session store closed")
					}
					return errors.Wrap(err, "creating session")
				}
			}
			// slide the cookie along with the session
			if err := setSessionCookie(ctx, conf, id); err != nil {
				return errors.Wrap(err, "setting session cookie")
			}

			ctx.Set(contextSessionIDKey, id)
			ctx.Set(contextShellKey, shell)
			return next(ctx)
		}
	}
}

// studentMiddleware redirects to the login screen when no student is authenticated.
func studentMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			shell, err := getContextShell(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context shell")
			}
			if _, ok := shell.Student(); !ok {
				return ctx.Redirect(http.StatusSeeOther, "/login")
			}
			return next(ctx)
		}
	}
}

func getContextShell(ctx echo.Context) (*portal.Shell, error) {
	if shell, ok := ctx.Get(contextShellKey).(*portal.Shell); ok {
		return shell, nil
	}
	return nil, errShellNotFoundInCtx
}
