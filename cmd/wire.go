package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/afero"

	"github.com/mohammad-safakhou/wildscan/config"
	"github.com/mohammad-safakhou/wildscan/internal/browser"
	"github.com/mohammad-safakhou/wildscan/internal/cache"
	"github.com/mohammad-safakhou/wildscan/internal/login"
	"github.com/mohammad-safakhou/wildscan/internal/orchestrator"
	"github.com/mohammad-safakhou/wildscan/internal/scanner"
	"github.com/mohammad-safakhou/wildscan/internal/session"
	"github.com/mohammad-safakhou/wildscan/internal/telemetry"
)

// app is the top-level dependency graph shared by the commands.
type app struct {
	cfg      *config.Config
	fs       afero.Fs
	metrics  *telemetry.Metrics
	launcher browser.Launcher
	sessions *session.Store
}

func newApp(cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:      cfg,
		fs:       afero.NewOsFs(),
		metrics:  telemetry.New(),
		launcher: browser.NewChromedp(),
	}
	a.sessions = session.NewStore(session.Options{
		Fs:              a.fs,
		Path:            cfg.Session.File,
		StaleAfter:      cfg.Session.StaleAfter,
		SiteHost:        cfg.Site.Host(),
		Launcher:        a.launcher,
		BrowserOptions:  a.browserOptions(),
		AccountURL:      cfg.Site.AccountURL(),
		LoginPath:       cfg.Site.LoginPath,
		ValidateTimeout: cfg.Browser.ValidateTimeout,
	})
	return a, nil
}

func (a *app) browserOptions() browser.Options {
	return browser.Options{
		Headless:  true,
		UserAgent: a.cfg.Site.UserAgent,
		Width:     a.cfg.Browser.WindowWidth,
		Height:    a.cfg.Browser.WindowHeight,
		NoSandbox: a.cfg.Browser.NoSandbox,
		ExecPath:  a.cfg.Browser.ExecPath,
	}
}

func (a *app) loginFlow() *login.Flow {
	site := a.cfg.Site
	return login.NewFlow(login.Options{
		Launcher:       a.launcher,
		BrowserOptions: a.browserOptions(),
		Sink:           a.sessions,
		LoginURL:       site.LoginURL(),
		LoggedIn:       login.URLPredicate(site.LoginURL(), []string{site.AccountPath, site.DashboardPath}),
		Observer: func(_, to login.State) {
			a.metrics.LoginTransition(string(to))
		},
	})
}

func (a *app) engine() *scanner.Engine {
	b := a.cfg.Browser
	return scanner.NewEngine(scanner.Options{
		Launcher:          a.launcher,
		Credentials:       a.sessions,
		BrowserOptions:    a.browserOptions(),
		SearchURL:         a.cfg.Site.SearchURL(),
		MaxSlots:          b.MaxSlots,
		NavigationTimeout: b.NavigationTimeout,
		SettleDelay:       b.SettleDelay,
		SelectorTimeout:   b.SelectorTimeout,
		Fs:                a.fs,
		DebugDir:          b.DebugDir,
		Metrics:           a.metrics,
	})
}

// openCache opens the configured store; the caller closes it.
func (a *app) openCache(ctx context.Context) (cache.Store, error) {
	store, err := cache.Open(ctx, a.cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return store, nil
}

func (a *app) orchestrator(store cache.Store) *orchestrator.Orchestrator {
	return orchestrator.New(orchestrator.Options{
		Engine:  a.engine(),
		Cache:   store,
		TTL:     a.cfg.Cache.TTL,
		Metrics: a.metrics,
	})
}

func closeStore(store cache.Store) {
	if err := store.Close(); err != nil {
		log.Printf("close cache: %v", err)
	}
}
