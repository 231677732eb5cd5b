package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"pmdesk/internal/config"
	"pmdesk/internal/filter"
	"pmdesk/internal/logging"
	"pmdesk/internal/persist"
	"pmdesk/internal/query"
	"pmdesk/internal/service"
	"pmdesk/internal/session"
	"pmdesk/internal/transport"
)

var ErrNotLoggedIn = errors.New(`not logged in, run "pmdesk login" first`)

// SnapshotName is the cache snapshot the CLI restores and saves.
const SnapshotName = "cli"

// App is everything a command needs, built once per invocation.
type App struct {
	Config    *config.Config
	Log       *logrus.Logger
	Client    *transport.Client
	Cookies   session.CookieStore
	Services  *service.Services
	Cache     *query.Cache
	Resources *query.Resources
	Session   *session.Session
	Snapshots persist.Store
	Views     *Views
}

// NewApp wires transport, services, cache and session from cfg and
// restores the cached snapshot.
func NewApp(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*App, error) {
	cookies := session.NewFileStore(cfg.Session.CookieFile)
	return newApp(ctx, cfg, log, cookies)
}

func newApp(ctx context.Context, cfg *config.Config, log *logrus.Logger, cookies session.CookieStore) (*App, error) {
	strategy, err := filter.ParseStrategy(cfg.Query.KeyStrategy)
	if err != nil {
		return nil, err
	}

	clog := logging.Component(log, "cli")
	client := transport.New(cfg.API.BaseURL,
		transport.WithTimeout(cfg.API.Timeout),
		transport.WithLogger(log),
		transport.WithTokenObserver(func(token string) {
			var err error
			if token == "" {
				err = cookies.Clear(context.Background())
			} else {
				err = cookies.SetToken(context.Background(), token)
			}
			if err != nil {
				clog.WithError(err).Warn("failed to store session cookie")
			}
		}),
	)

	services := service.NewServices(client, log)
	cache := query.NewCache(query.Options{
		StaleTime: cfg.Query.StaleTime,
		Retry:     cfg.Query.Retry,
		Logger:    log,
	})
	views, err := LoadViews(cfg.Session.ViewFile)
	if err != nil {
		return nil, err
	}
	resources := query.NewResources(cache, services, query.ResourceConfig{
		Strategy: strategy,
		View:     views.Filter,
		Logger:   log,
	})

	snapshots, err := persist.Open(ctx, cfg.Persist)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache store: %w", err)
	}
	n, err := persist.RestoreCache(ctx, snapshots, cache, SnapshotName)
	if err != nil {
		clog.WithError(err).Warn("failed to restore cache snapshot")
	} else if n > 0 {
		clog.WithField("entries", n).Debug("restored cache snapshot")
	}

	sess, err := session.Init(ctx, cookies, resources.AppUsers,
		session.WithLogger(log),
		session.WithTokenHolder(client),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}

	return &App{
		Config:    cfg,
		Log:       log,
		Client:    client,
		Cookies:   cookies,
		Services:  services,
		Cache:     cache,
		Resources: resources,
		Session:   sess,
		Snapshots: snapshots,
		Views:     views,
	}, nil
}

// Close saves the list views and the cache snapshot.
func (a *App) Close(ctx context.Context) error {
	if err := a.Views.Save(); err != nil {
		return err
	}
	if err := persist.SaveCache(ctx, a.Snapshots, a.Cache, SnapshotName); err != nil {
		return fmt.Errorf("failed to save cache snapshot: %w", err)
	}
	return nil
}

// requireLogin fails commands that need an authenticated session.
func (a *App) requireLogin() error {
	if !a.Session.IsAuthenticated() {
		return ErrNotLoggedIn
	}
	return nil
}
