// Package browsertest provides in-memory browser fakes for tests.
package browsertest

import (
	"context"
	"errors"
	"sync"

	"github.com/mohammad-safakhou/wildscan/internal/browser"
	"github.com/mohammad-safakhou/wildscan/models"
)

// Launcher hands out fake pages and records every launch.
type Launcher struct {
	mu sync.Mutex

	// NewPage builds the page for each launch; nil yields an empty Page.
	NewPage func(opts browser.Options) *Page
	// Err fails every launch when set.
	Err error

	Launched []*Page
	Options  []browser.Options
}

func (l *Launcher) Launch(ctx context.Context, opts browser.Options) (browser.Page, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Options = append(l.Options, opts)
	if l.Err != nil {
		return nil, l.Err
	}
	var p *Page
	if l.NewPage != nil {
		p = l.NewPage(opts)
	}
	if p == nil {
		p = &Page{}
	}
	l.Launched = append(l.Launched, p)
	return p, nil
}

// Pages returns a snapshot of launched pages.
func (l *Launcher) Pages() []*Page {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Page(nil), l.Launched...)
}

// Page is a scriptable fake tab.
type Page struct {
	mu sync.Mutex

	// CurrentURL is what URL returns; Navigate sets it unless RedirectTo maps the target.
	CurrentURL string
	RedirectTo map[string]string
	// Documents are returned by successive HTML calls; the last one repeats.
	Documents []string
	PNG       []byte
	Jar       []models.Cookie

	NavigateErr error
	HTMLErr     error
	URLErr      error
	CookiesErr  error
	// OnNavigate runs before Navigate returns, e.g. to block on a channel.
	OnNavigate func(ctx context.Context, url string) error

	Visited  []string
	htmlCall int
	closed   bool
	gone     bool
	closes   int
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if p.OnNavigate != nil {
		if err := p.OnNavigate(ctx, url); err != nil {
			return err
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.gone {
		return browser.ErrClosed
	}
	p.Visited = append(p.Visited, url)
	if p.NavigateErr != nil {
		return p.NavigateErr
	}
	if to, ok := p.RedirectTo[url]; ok {
		p.CurrentURL = to
	} else {
		p.CurrentURL = url
	}
	return nil
}

func (p *Page) URL(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.gone {
		return "", browser.ErrClosed
	}
	return p.CurrentURL, p.URLErr
}

// SetURL simulates the user moving the tab somewhere else.
func (p *Page) SetURL(u string) {
	p.mu.Lock()
	p.CurrentURL = u
	p.mu.Unlock()
}

func (p *Page) HTML(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.HTMLErr != nil {
		return "", p.HTMLErr
	}
	if len(p.Documents) == 0 {
		return "<html><body></body></html>", nil
	}
	i := p.htmlCall
	if i >= len(p.Documents) {
		i = len(p.Documents) - 1
	}
	p.htmlCall++
	return p.Documents[i], nil
}

func (p *Page) SetCookies(ctx context.Context, cookies []models.Cookie) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Jar = append(p.Jar, cookies...)
	return nil
}

func (p *Page) Cookies(ctx context.Context) ([]models.Cookie, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.CookiesErr != nil {
		return nil, p.CookiesErr
	}
	return append([]models.Cookie(nil), p.Jar...), nil
}

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.PNG == nil {
		return nil, errors.New("no screenshot scripted")
	}
	return p.PNG, nil
}

func (p *Page) Alive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.closed && !p.gone
}

// Vanish simulates the user closing the window.
func (p *Page) Vanish() {
	p.mu.Lock()
	p.gone = true
	p.mu.Unlock()
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.closes++
	return nil
}

// Closed reports whether Close was called at least once.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closes > 0
}
