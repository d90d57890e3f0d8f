// Package browser drives real browser instances for the scanner and the login flow.
package browser

import (
	"context"
	"errors"

	"github.com/mohammad-safakhou/wildscan/models"
)

// ErrClosed is returned by Page methods once the tab or browser is gone.
var ErrClosed = errors.New("browser closed")

// Options configures a launched browser.
type Options struct {
	Headless  bool
	UserAgent string
	Width     int
	Height    int
	NoSandbox bool
	ExecPath  string
}

// Launcher starts browsers. Each Launch owns one browser process with one tab.
type Launcher interface {
	Launch(ctx context.Context, opts Options) (Page, error)
}

// Page is a single tab in a launched browser.
type Page interface {
	// Navigate loads url and returns once the network has gone quiet.
	Navigate(ctx context.Context, url string) error
	URL(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
	SetCookies(ctx context.Context, cookies []models.Cookie) error
	// Cookies returns every cookie held by the browser, not only the current url's.
	Cookies(ctx context.Context) ([]models.Cookie, error)
	Screenshot(ctx context.Context) ([]byte, error)
	// Alive is false once the tab was closed or crashed outside of Close.
	Alive() bool
	Close() error
}
