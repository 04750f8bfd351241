package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/financeai/internal/api"
	"github.com/nhle/financeai/internal/buildinfo"
	"github.com/nhle/financeai/internal/credential"
	"github.com/nhle/financeai/internal/logging"
	"github.com/nhle/financeai/internal/model"
	"github.com/nhle/financeai/internal/store"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	apiURL     string
	env        string
	logLevel   string
}

// deps are the seams tests replace.
type deps struct {
	openCredentials func(configDir string) (*credential.Store, error)
	openCache       func(path string) (store.Store, error)
}

func defaultDeps() deps {
	return deps{
		openCredentials: credential.Open,
		openCache: func(path string) (store.Store, error) {
			return store.NewSQLiteStore(path)
		},
	}
}

// env is everything a command needs, built from config and flags.
type env struct {
	cfg    *model.AppConfig
	logger zerolog.Logger
	creds  *credential.Store
	client *api.Client

	closers []io.Closer
}

func (f *globalFlags) load(d deps) (*env, error) {
	cfg, err := model.LoadConfig(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.env != "" {
		if f.env != model.EnvProduction && f.env != model.EnvLocal {
			return nil, fmt.Errorf("unknown environment %q", f.env)
		}
		cfg.API.Environment = f.env
	}
	if f.apiURL != "" {
		cfg.API.URL = f.apiURL
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}

	logger, logCloser, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, logger: logger, closers: []io.Closer{logCloser}}

	e.creds, err = d.openCredentials(filepath.Dir(f.configPath))
	if err != nil {
		e.Close()
		return nil, err
	}

	e.client = api.NewClient(cfg.API.BaseURL(), e.creds,
		api.WithTimeout(time.Duration(cfg.API.TimeoutSec)*time.Second),
		api.WithLogger(logger),
	)

	logger.Debug().
		Str("version", buildinfo.Version).
		Str("environment", cfg.API.Environment).
		Str("api", cfg.API.BaseURL()).
		Msg("environment loaded")

	return e, nil
}

// openCache opens the snapshot cache if enabled. A failure is logged and
// the app runs without a cache.
func (e *env) openCache(d deps) store.Store {
	if !e.cfg.Cache.Enabled || e.cfg.Cache.Path == "" {
		return nil
	}
	s, err := d.openCache(e.cfg.Cache.Path)
	if err != nil {
		e.logger.Warn().Err(err).Str("path", e.cfg.Cache.Path).Msg("cache unavailable")
		return nil
	}
	e.closers = append(e.closers, s)
	return s
}

// account is the logged-in user's email, or "" without a session.
func (e *env) account() string {
	user, err := e.creds.User()
	if err != nil {
		return ""
	}
	return user.Email
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		_ = e.closers[i].Close()
	}
}
