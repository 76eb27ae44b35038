package echoweb

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/marksboard/core"
	"github.com/trezcool/marksboard/core/portal"
	backendsvc "github.com/trezcool/marksboard/services/backend"
	logsvc "github.com/trezcool/marksboard/services/logger"
	inmemdb "github.com/trezcool/marksboard/storage/inmem"
	"github.com/trezcool/marksboard/testutil"
)

func newTestConfig(backendURL string) *core.Config {
	return &core.Config{
		AppName:   "Marksboard",
		Env:       "TEST",
		TestMode:  true,
		SecretKey: "test-secret",
		Server: core.ServerConfig{
			CookieName:        "marksboard_session",
			SessionExpiration: time.Hour,
		},
		Backend: core.BackendConfig{
			BaseURL:     backendURL,
			Timeout:     5 * time.Second,
			ReadPaths:   core.DefaultReadPaths,
			UpdatePaths: core.DefaultUpdatePaths,
		},
		Portal: core.PortalConfig{
			Dashboard:        "table",
			RankPollDelay:    time.Millisecond,
			RankPollAttempts: 1,
			NoticeTTL:        3 * time.Second,
		},
	}
}

type testApp struct {
	conf     *core.Config
	backend  *testutil.Backend
	sessions *inmemdb.SessionStore
	srv      *Server
	server   *httptest.Server
}

// setup starts the web front end against a fake marks service.
// `configure` may adjust the config before the server is built.
func setup(t *testing.T, configure func(conf *core.Config), opts ...testutil.Option) *testApp {
	t.Helper()

	backend := testutil.NewBackend(opts...)
	t.Cleanup(backend.Close)

	conf := newTestConfig(backend.BaseURL())
	if configure != nil {
		configure(conf)
	}
	logger := logsvc.NewRollbarLogger(logsvc.NewStdLogger(io.Discard, ""), conf)
	client := backendsvc.New(conf.Backend, nil)
	shellOpts := portal.OptionsFromConfig(conf, logger, nil, nil)

	sessions := inmemdb.NewSessionStore(conf.Server.SessionExpiration, func() *portal.Shell {
		return portal.NewShell(client, shellOpts)
	})
	t.Cleanup(sessions.Close)

	srv := NewServer(ServerDeps{Conf: conf, Logger: logger, Sessions: sessions, DisableReqLogs: true})
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &testApp{conf: conf, backend: backend, sessions: sessions, srv: srv, server: ts}
}

// browser is an HTTP client keeping the session cookie and following redirects.
type browser struct {
	t      *testing.T
	app    *testApp
	client *http.Client
}

func (app *testApp) newBrowser(t *testing.T) *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{t: t, app: app, client: &http.Client{Jar: jar}}
}

func (b *browser) do(req *http.Request) (*http.Response, *goquery.Document) {
	b.t.Helper()
	res, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer res.Body.Close()

	doc, err := goquery.NewDocumentFromReader(res.Body)
	require.NoError(b.t, err)
	return res, doc
}

func (b *browser) get(path string) (*http.Response, *goquery.Document) {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodGet, b.app.server.URL+path, nil)
	require.NoError(b.t, err)
	return b.do(req)
}

func (b *browser) post(path string, form url.Values) (*http.Response, *goquery.Document) {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodPost, b.app.server.URL+path, strings.NewReader(form.Encode()))
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

// shell returns the portal shell of the browser session.
func (b *browser) shell() *portal.Shell {
	b.t.Helper()
	u, err := url.Parse(b.app.server.URL)
	require.NoError(b.t, err)

	for _, cookie := range b.client.Jar.Cookies(u) {
		if cookie.Name != b.app.conf.Server.CookieName {
			continue
		}
		id, err := ParseSessionToken(b.app.conf, cookie.Value)
		require.NoError(b.t, err)
		shell, err := b.app.sessions.Get(id)
		require.NoError(b.t, err)
		return shell
	}
	b.t.Fatal("no session cookie")
	return nil
}

func (b *browser) login(email, password string) (*http.Response, *goquery.Document) {
	b.t.Helper()
	return b.post("/login", url.Values{"email": {email}, "password": {password}})
}

func text(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().Text())
}

func marksForm(tr1, tr2, tr3 string) url.Values {
	return url.Values{"tr1": {tr1}, "tr2": {tr2}, "tr3": {tr3}}
}
