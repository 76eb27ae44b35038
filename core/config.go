package core

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address           string
		Host              string
		DebugHost         string
		CookieName        string
		ShutdownTimeout   time.Duration
		SessionExpiration time.Duration
	}

	BackendConfig struct {
		BaseURL     string
		Timeout     time.Duration
		ReadPaths   []string
		UpdatePaths []string
	}

	PortalConfig struct {
		Dashboard        string // "table" | "single"
		RankPollDelay    time.Duration
		RankPollAttempts int
		RankPollBackoff  float64
		NoticeTTL        time.Duration
	}

	Config struct {
		AppName      string
		Env          string
		Build        string
		Debug        bool
		TestMode     bool
		SecretKey    string
		RollbarToken string
		Server       ServerConfig
		Backend      BackendConfig
		Portal       PortalConfig
	}
)

// NewConfig loads the configuration of the current environment.
// Values are looked up in the environment (prefixed with the env name, e.g. DEV_BACKEND_BASEURL),
// then in `config/.env.<env>` if it exists, then fall back to the defaults below.
func NewConfig() (*Config, error) {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("appName", "Marksboard")
	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("secretKey", "h3k!x9v$2m-q7z=marks(board)w#p0r@8t&u1y")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.address", ":3000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.cookieName", "marksboard_session")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.sessionExpiration", 12*time.Hour)

	v.SetDefault("backend.baseURL", "http://localhost:8080/api")
	v.SetDefault("backend.timeout", 10*time.Second)
	v.SetDefault("backend.readPaths", DefaultReadPaths)
	v.SetDefault("backend.updatePaths", DefaultUpdatePaths)

	v.SetDefault("portal.dashboard", "table")
	v.SetDefault("portal.rankPollDelay", 1500*time.Millisecond)
	v.SetDefault("portal.rankPollAttempts", 1)
	v.SetDefault("portal.rankPollBackoff", 2.0)
	v.SetDefault("portal.noticeTTL", 3*time.Second)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	case "QA", "PROD":
		v.SetDefault("debug", false)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "stat %s", dotEnvPath)
	}
	v.AutomaticEnv()

	conf := &Config{
		AppName:      v.GetString("appName"),
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
		Server: ServerConfig{
			Address:           v.GetString("server.address"),
			Host:              v.GetString("server.host"),
			DebugHost:         v.GetString("server.debugHost"),
			CookieName:        v.GetString("server.cookieName"),
			ShutdownTimeout:   v.GetDuration("server.shutdownTimeout"),
			SessionExpiration: v.GetDuration("server.sessionExpiration"),
		},
		Backend: BackendConfig{
			BaseURL:     strings.TrimRight(v.GetString("backend.baseURL"), "/"),
			Timeout:     v.GetDuration("backend.timeout"),
			ReadPaths:   v.GetStringSlice("backend.readPaths"),
			UpdatePaths: v.GetStringSlice("backend.updatePaths"),
		},
		Portal: PortalConfig{
			Dashboard:        strings.ToLower(v.GetString("portal.dashboard")),
			RankPollDelay:    v.GetDuration("portal.rankPollDelay"),
			RankPollAttempts: v.GetInt("portal.rankPollAttempts"),
			RankPollBackoff:  v.GetFloat64("portal.rankPollBackoff"),
			NoticeTTL:        v.GetDuration("portal.noticeTTL"),
		},
	}
	if err := conf.check(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) check() error {
	if c.Backend.BaseURL == "" {
		return errors.New("backend.baseURL is required")
	}
	if len(c.Backend.ReadPaths) == 0 || len(c.Backend.UpdatePaths) == 0 {
		return errors.New("backend.readPaths and backend.updatePaths cannot be empty")
	}
	if c.Portal.RankPollAttempts < 1 {
		return errors.Errorf("portal.rankPollAttempts must be >= 1 (got %d)", c.Portal.RankPollAttempts)
	}
	switch c.Portal.Dashboard {
	case "table", "single":
	default:
		return errors.Errorf("portal.dashboard must be one of table|single (got %q)", c.Portal.Dashboard)
	}
	return nil
}

// Backend paths of the marks service. `{studentId}` is substituted with the escaped student ID.
var (
	DefaultReadPaths = []string{
		"/marks/student/{studentId}",
		"/marks/get?studentId={studentId}",
		"/marks/{studentId}",
	}
	DefaultUpdatePaths = []string{
		"/marks/update/{studentId}",
		"/marks/update?studentId={studentId}",
	}
)
