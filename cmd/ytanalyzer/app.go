package main

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"ytanalyzer/internal/catalog"
	"ytanalyzer/internal/credpool"
	"ytanalyzer/internal/duration"
	"ytanalyzer/internal/enumerate"
	"ytanalyzer/internal/storage"
)

// app wires the components a command needs from the loaded config.
type app struct {
	creds    *storage.Credentials
	pool     *credpool.Pool
	engine   *enumerate.Engine
	runner   *enumerate.Runner
	sessions *storage.SessionStore
}

// newApp builds the engine over the stored keys followed by any keys from
// the config or environment.
func newApp() (*app, error) {
	creds, err := storage.LoadCredentials(cfg.CredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	keys := append(append([]string(nil), creds.APIKeys...), cfg.APIKeys...)
	pool := credpool.New(keys, credpool.Config{
		Interval:     cfg.CallInterval,
		BulkInterval: cfg.BulkInterval,
		Factory:      credpool.DataAPIFactory(cfg.RequestTimeout),
	})
	if creds.CurrentKey > 0 {
		if err := pool.Select(creds.CurrentKey); err != nil {
			return nil, err
		}
	}

	tuning, thresholds := cfg.Tuning, cfg.Thresholds
	engine := enumerate.New(pool, catalog.New(duration.NewCodec(cfg.MemoSize), log.Logger), enumerate.Options{
		Tuning:     &tuning,
		Thresholds: &thresholds,
	})

	return &app{
		creds:    creds,
		pool:     pool,
		engine:   engine,
		runner:   enumerate.NewRunner(engine, cfg.ProgressBuffer),
		sessions: storage.NewSessionStore(cfg.SessionDir),
	}, nil
}

// persistActiveKey records the active key in the credentials file when it
// is one of the stored keys, so the next run starts where rotation left off.
func (a *app) persistActiveKey() {
	_, active := a.pool.Active()
	for i, k := range a.creds.APIKeys {
		if k != active || i == a.creds.CurrentKey {
			continue
		}
		a.creds.CurrentKey = i
		if err := storage.SaveCredentials(cfg.CredentialsPath, a.creds); err != nil {
			log.Warn().Err(err).Msg("could not save active key")
		}
		return
	}
}

// loadSession resolves a session argument: a file path, or "latest" for the
// newest stored session.
func (a *app) loadSession(ref string) (*storage.Session, string, error) {
	if ref == "" || ref == "latest" {
		return a.sessions.Latest("")
	}
	sess, err := a.sessions.Load(ref)
	return sess, ref, err
}
