package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/inspector"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	"github.com/mohammad-safakhou/wildscan/models"
)

// Chromedp launches local Chrome/Chromium processes through chromedp.
type Chromedp struct{}

// NewChromedp returns the production launcher.
func NewChromedp() *Chromedp { return &Chromedp{} }

// Launch starts a browser process. The browser outlives ctx; only Close stops it.
func (Chromedp) Launch(ctx context.Context, opts Options) (Page, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if opts.NoSandbox {
		allocOpts = append(allocOpts,
			chromedp.NoSandbox,
			chromedp.Flag("disable-setuid-sandbox", true),
		)
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.Width > 0 && opts.Height > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.Width, opts.Height))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	actx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	tctx, cancelTab := chromedp.NewContext(actx)

	p := &chromedpPage{
		ctx:         tctx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		idle:        make(chan struct{}),
	}
	chromedp.ListenTarget(tctx, p.onEvent)

	// first Run allocates the browser; it must use the tab context itself
	if err := chromedp.Run(tctx, page.SetLifecycleEventsEnabled(true)); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	// a page target's main frame shares the target id
	if c := chromedp.FromContext(tctx); c != nil && c.Target != nil {
		p.mu.Lock()
		p.mainFrame = cdp.FrameID(c.Target.TargetID)
		p.mu.Unlock()
	}
	return p, nil
}

type chromedpPage struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc

	mu sync.Mutex
	// mainFrame is empty until the tab is attached; until then every frame counts.
	mainFrame cdp.FrameID
	idle      chan struct{}
	idleDone  bool
	gone      bool
	closed    bool
}

func (p *chromedpPage) onEvent(ev interface{}) {
	switch e := ev.(type) {
	case *page.EventLifecycleEvent:
		p.mu.Lock()
		if p.mainFrame != "" && e.FrameID != p.mainFrame {
			// iframes reach networkIdle on their own schedule
			p.mu.Unlock()
			return
		}
		switch e.Name {
		case "init":
			if p.idleDone {
				p.idle = make(chan struct{})
				p.idleDone = false
			}
		case "networkIdle":
			if !p.idleDone {
				close(p.idle)
				p.idleDone = true
			}
		}
		p.mu.Unlock()
	case *inspector.EventDetached, *inspector.EventTargetCrashed:
		p.mu.Lock()
		p.gone = true
		p.mu.Unlock()
	}
}

// run executes actions on the tab while honoring the caller's deadline and cancellation.
func (p *chromedpPage) run(ctx context.Context, actions ...chromedp.Action) error {
	if !p.Alive() {
		return ErrClosed
	}
	rctx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	if dl, ok := ctx.Deadline(); ok {
		var cancelDl context.CancelFunc
		rctx, cancelDl = context.WithDeadline(rctx, dl)
		defer cancelDl()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(rctx, actions...)
}

func (p *chromedpPage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	if p.idleDone {
		p.idle = make(chan struct{})
		p.idleDone = false
	}
	p.mu.Unlock()

	if err := p.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}

	p.mu.Lock()
	idle := p.idle
	p.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for network idle on %s: %w", url, ctx.Err())
	case <-p.ctx.Done():
		return ErrClosed
	}
}

func (p *chromedpPage) URL(ctx context.Context) (string, error) {
	var loc string
	if err := p.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

func (p *chromedpPage) HTML(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

func (p *chromedpPage) SetCookies(ctx context.Context, cookies []models.Cookie) error {
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		params = append(params, toCookieParam(c))
	}
	return p.run(ctx, network.SetCookies(params))
}

func (p *chromedpPage) Cookies(ctx context.Context) ([]models.Cookie, error) {
	var raw []*network.Cookie
	err := p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = storage.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, err
	}
	out := make([]models.Cookie, 0, len(raw))
	for _, c := range raw {
		out = append(out, fromNetworkCookie(c))
	}
	return out, nil
}

func (p *chromedpPage) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := p.run(ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return nil, err
	}
	return buf, nil
}

func (p *chromedpPage) Alive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.gone && !p.closed && p.ctx.Err() == nil
}

func (p *chromedpPage) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	cctx, cancel := context.WithTimeout(p.ctx, 5*time.Second)
	err := chromedp.Cancel(cctx)
	cancel()
	p.cancelTab()
	p.cancelAlloc()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}

func toCookieParam(c models.Cookie) *network.CookieParam {
	p := &network.CookieParam{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Secure:   c.Secure,
		HTTPOnly: c.HTTPOnly,
	}
	if c.SameSite != "" {
		p.SameSite = network.CookieSameSite(c.SameSite)
	}
	if c.Expires > 0 {
		sec := int64(c.Expires)
		nsec := int64((c.Expires - float64(sec)) * float64(time.Second))
		ts := cdp.TimeSinceEpoch(time.Unix(sec, nsec))
		p.Expires = &ts
	}
	return p
}

func fromNetworkCookie(c *network.Cookie) models.Cookie {
	expires := c.Expires
	if c.Session {
		expires = -1
	}
	return models.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Expires:  expires,
		HTTPOnly: c.HTTPOnly,
		Secure:   c.Secure,
		SameSite: string(c.SameSite),
	}
}
