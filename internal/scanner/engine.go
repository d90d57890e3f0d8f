// Package scanner drives a logged-in browser through the flight search and extracts the
// offers shown on the results page.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/afero"

	"github.com/mohammad-safakhou/wildscan/internal/browser"
	"github.com/mohammad-safakhou/wildscan/internal/session"
	"github.com/mohammad-safakhou/wildscan/internal/telemetry"
	"github.com/mohammad-safakhou/wildscan/models"
)

// CredentialSource supplies the stored session; session.Store satisfies it.
type CredentialSource interface {
	Get() (*session.Credential, error)
}

// Options configures an Engine. A zero SelectorTimeout probes the page once.
type Options struct {
	Launcher       browser.Launcher
	Credentials    CredentialSource
	BrowserOptions browser.Options
	// SearchURL is the results page without query, e.g. https://www.flyfrontier.com/flights.
	SearchURL string
	MaxSlots  int

	NavigationTimeout time.Duration
	SettleDelay       time.Duration
	SelectorTimeout   time.Duration
	PollInterval      time.Duration

	Strategies       []Strategy
	NoFlightsMarkers []string

	// Fs and DebugDir receive a page capture whenever no strategy matched.
	Fs       afero.Fs
	DebugDir string

	Metrics *telemetry.Metrics
	Logger  *log.Logger
	Now     func() time.Time
}

const (
	defaultNavigationTimeout = 60 * time.Second
	defaultPollInterval      = 500 * time.Millisecond
)

// Engine scans one route at a time per browser slot.
type Engine struct {
	opts   Options
	slots  *Slots
	logger *log.Logger
	now    func() time.Time
}

func NewEngine(opts Options) *Engine {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = defaultNavigationTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if len(opts.Strategies) == 0 {
		opts.Strategies = DefaultStrategies()
	}
	if opts.NoFlightsMarkers == nil {
		opts.NoFlightsMarkers = DefaultNoFlightsMarkers
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.MaxSlots <= 0 {
		opts.MaxSlots = 2
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[SCANNER] ", log.LstdFlags)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	slots := NewSlots(opts.MaxSlots)
	slots.onChange = opts.Metrics.SetSlotsInUse
	return &Engine{opts: opts, slots: slots, logger: logger, now: now}
}

// Slots exposes the browser slot pool.
func (e *Engine) Slots() *Slots { return e.slots }

// Scan searches one route. The only error returned is session.ErrNotAuthenticated; every
// other failure is reported through ScanResult.Error with no flights.
//
// Once a slot is held the scan ignores ctx cancellation and runs until it finishes or one
// of its own timeouts fires.
func (e *Engine) Scan(ctx context.Context, r models.Route) (models.ScanResult, error) {
	cred, err := e.opts.Credentials.Get()
	if errors.Is(err, session.ErrNotAuthenticated) {
		return models.ScanResult{}, err
	}

	start := e.now()
	result := models.NewScanResult(r, start)
	if err == nil {
		var flights []models.FlightResult
		flights, err = e.scan(ctx, r, cred)
		if flights != nil {
			result.Flights = flights
		}
	}
	result.ScannedAt = e.now().UnixMilli()

	switch {
	case err != nil:
		e.logger.Printf("error scanning %s: %v", r, err)
		result.Flights = []models.FlightResult{}
		result.Error = err.Error()
		e.opts.Metrics.ObserveScan(telemetry.OutcomeFailed, e.now().Sub(start))
	case len(result.Flights) == 0:
		e.opts.Metrics.ObserveScan(telemetry.OutcomeEmpty, e.now().Sub(start))
	default:
		e.opts.Metrics.ObserveScan(telemetry.OutcomeFlights, e.now().Sub(start))
	}
	return result, nil
}

func (e *Engine) scan(ctx context.Context, r models.Route, cred *session.Credential) ([]models.FlightResult, error) {
	if err := e.slots.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("wait for browser slot: %w", err)
	}
	defer e.slots.Release()
	ctx = context.WithoutCancel(ctx)

	bopts := e.opts.BrowserOptions
	bopts.Headless = true
	page, err := e.opts.Launcher.Launch(ctx, bopts)
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			e.logger.Printf("close browser: %v", err)
		}
	}()

	searchURL := SearchURL(e.opts.SearchURL, r)
	e.logger.Printf("searching %s", r)
	e.logger.Printf("url: %s", searchURL)

	navCtx, cancel := context.WithTimeout(ctx, e.opts.NavigationTimeout)
	defer cancel()
	if err := page.SetCookies(navCtx, cred.Cookies); err != nil {
		return nil, fmt.Errorf("attach session cookies: %w", err)
	}
	if err := page.Navigate(navCtx, searchURL); err != nil {
		return nil, fmt.Errorf("load search results: %w", err)
	}
	if err := sleep(ctx, e.opts.SettleDelay); err != nil {
		return nil, err
	}
	exCtx, cancelExtract := context.WithTimeout(ctx, e.opts.SelectorTimeout+e.opts.NavigationTimeout)
	defer cancelExtract()
	return e.extract(exCtx, page, r)
}

func (e *Engine) extract(ctx context.Context, page browser.Page, r models.Route) ([]models.FlightResult, error) {
	deadline := e.now().Add(e.opts.SelectorTimeout)
	checkedMarkers := false
	for {
		doc, err := snapshot(ctx, page)
		if err != nil {
			return nil, err
		}
		if !checkedMarkers {
			if hasMarker(doc, e.opts.NoFlightsMarkers) {
				e.logger.Printf("no flights found for %s", r)
				return []models.FlightResult{}, nil
			}
			checkedMarkers = true
		}
		if name, cards, ok := probe(doc, e.opts.Strategies); ok {
			e.logger.Printf("found %d flights using selector: %s", len(cards), name)
			return e.parseCards(cards, r), nil
		}
		if !e.now().Before(deadline) {
			break
		}
		if err := sleep(ctx, e.opts.PollInterval); err != nil {
			return nil, err
		}
	}

	e.logger.Printf("no flight cards found for %s", r)
	e.saveDebugCapture(ctx, page, r)
	return []models.FlightResult{}, nil
}

func (e *Engine) parseCards(cards []string, r models.Route) []models.FlightResult {
	flights := make([]models.FlightResult, 0, len(cards))
	for _, text := range cards {
		flights = append(flights, ParseCard(text, r))
	}
	return flights
}

func (e *Engine) saveDebugCapture(ctx context.Context, page browser.Page, r models.Route) {
	png, err := page.Screenshot(ctx)
	if err != nil {
		e.logger.Printf("debug screenshot failed: %v", err)
		return
	}
	if err := e.opts.Fs.MkdirAll(e.opts.DebugDir, 0o755); err != nil {
		e.logger.Printf("debug screenshot dir: %v", err)
		return
	}
	path := filepath.Join(e.opts.DebugDir, DebugCaptureName(r))
	if err := afero.WriteFile(e.opts.Fs, path, png, 0o644); err != nil {
		e.logger.Printf("debug screenshot write: %v", err)
		return
	}
	e.logger.Printf("debug screenshot saved to %s", path)
}

// DebugCaptureName is the file name of the page capture for a route.
func DebugCaptureName(r models.Route) string {
	return fmt.Sprintf("debug-%s-%s-%s.png", r.Origin, r.Destination, r.Date)
}

func snapshot(ctx context.Context, page browser.Page) (*goquery.Document, error) {
	html, err := page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("read results page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}
	return doc, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
