package cli

import (
	"context"
	"sync"

	"github.com/ragify/ragify/internal/app"
	"github.com/ragify/ragify/internal/core/ports/driving"
)

// backend gives commands the services they drive. Settings never need
// the AI providers; the runtime does.
type backend interface {
	Settings() (driving.SettingsService, error)
	Runtime(ctx context.Context) (*app.Runtime, error)
	Close() error
}

// be is the backend used by all commands. Tests replace it.
var be backend = &appBackend{}

// appBackend loads the configuration and assembles the application on
// first use.
type appBackend struct {
	mu  sync.Mutex
	cfg *app.Config
	app *app.App
}

func (b *appBackend) config() (*app.Config, error) {
	if b.cfg != nil {
		return b.cfg, nil
	}
	cfg, err := app.LoadConfig(configDir)
	if err != nil {
		return nil, err
	}
	b.cfg = cfg
	return cfg, nil
}

func (b *appBackend) Settings() (driving.SettingsService, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cfg, err := b.config()
	if err != nil {
		return nil, err
	}
	return cfg.Settings, nil
}

func (b *appBackend) Runtime(ctx context.Context) (*app.Runtime, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.app != nil {
		return b.app.Runtime, nil
	}
	cfg, err := b.config()
	if err != nil {
		return nil, err
	}
	a, err := app.New(ctx, cfg, app.Options{Ephemeral: ephemeral})
	if err != nil {
		return nil, err
	}
	b.app = a
	return a.Runtime, nil
}

func (b *appBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.app == nil {
		return nil
	}
	err := b.app.Close()
	b.app = nil
	return err
}

// activeSession returns the runtime and its current session.
func activeSession(ctx context.Context) (*app.Runtime, *driving.Session, error) {
	if be == nil {
		return nil, nil, errNotConfigured
	}
	rt, err := be.Runtime(ctx)
	if err != nil {
		return nil, nil, err
	}
	sess, err := rt.Session(ctx)
	if err != nil {
		return nil, nil, err
	}
	return rt, sess, nil
}

// settingsService returns the settings service of the backend.
func settingsService() (driving.SettingsService, error) {
	if be == nil {
		return nil, errNotConfigured
	}
	return be.Settings()
}
