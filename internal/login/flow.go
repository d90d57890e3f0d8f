// Package login runs the human-in-the-loop login against the external site.
//
// A Flow owns at most one visible browser. Start opens it on the login page and returns;
// the caller then drives Poll at its own cadence until the user has logged in, and calls
// Cancel to give up. There is no background polling and no built-in overall timeout.
package login

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mohammad-safakhou/wildscan/internal/browser"
	"github.com/mohammad-safakhou/wildscan/models"
)

// State of the login flow.
type State string

const (
	StateIdle            State = "idle"
	StateLaunching       State = "launching"
	StateWaitingForLogin State = "waiting_for_login"
	StateLoggedIn        State = "logged_in"
	StateError           State = "error"
	StateCancelled       State = "cancelled"
)

// PollStatus is what a single Poll observed.
type PollStatus string

const (
	PollWaiting   PollStatus = "waiting"
	PollLoggedIn  PollStatus = "logged_in"
	PollError     PollStatus = "error"
	PollNoBrowser PollStatus = "no_browser"
)

// PollResult is returned from Poll.
type PollResult struct {
	Status  PollStatus `json:"status"`
	Message string     `json:"message"`
}

// StartResult is returned from Start.
type StartResult struct {
	ID     string `json:"id"`
	Status State  `json:"status"`
}

// Snapshot describes the flow without touching the browser.
type Snapshot struct {
	ID      string `json:"id,omitempty"`
	State   State  `json:"state"`
	Message string `json:"message,omitempty"`
}

// CookieSink receives the captured session; session.Store satisfies it.
type CookieSink interface {
	Save(cookies []models.Cookie) error
}

// Observer is notified on every state change.
type Observer func(from, to State)

// Options configures a Flow.
type Options struct {
	Launcher       browser.Launcher
	BrowserOptions browser.Options
	Sink           CookieSink
	LoginURL       string
	// LoggedIn decides from the tab's url whether login finished. Defaults to a predicate
	// built by URLPredicate for LoginURL's host.
	LoggedIn func(rawURL string) bool
	Observer Observer
	Logger   *log.Logger
}

// Flow is the single in-process login slot.
type Flow struct {
	opts   Options
	logger *log.Logger

	mu      sync.Mutex
	id      string
	state   State
	message string
	page    browser.Page
}

func NewFlow(opts Options) *Flow {
	if opts.LoggedIn == nil {
		opts.LoggedIn = URLPredicate(opts.LoginURL, nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[LOGIN] ", log.LstdFlags)
	}
	return &Flow{opts: opts, logger: logger, state: StateIdle}
}

// URLPredicate returns the default "is the user logged in" heuristic: the tab is on the
// login url's site but off its login path, or on one of the extra account paths.
func URLPredicate(loginURL string, accountPaths []string) func(string) bool {
	lu, _ := url.Parse(loginURL)
	host := ""
	loginPath := "/login"
	if lu != nil {
		host = strings.TrimPrefix(lu.Hostname(), "www.")
	}
	if len(accountPaths) == 0 {
		accountPaths = []string{"/myfrontier/my-account", "/myfrontier/dashboard"}
	}
	return func(raw string) bool {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return false
		}
		for _, p := range accountPaths {
			if strings.HasPrefix(u.Path, p) {
				return true
			}
		}
		h := u.Hostname()
		onSite := host != "" && (h == host || strings.HasSuffix(h, "."+host))
		return onSite && !strings.Contains(u.Path, loginPath)
	}
}

func (f *Flow) setState(to State, msg string) {
	from := f.state
	f.state = to
	f.message = msg
	if from != to && f.opts.Observer != nil {
		f.opts.Observer(from, to)
	}
}

func (f *Flow) closePage() {
	if f.page == nil {
		return
	}
	if err := f.page.Close(); err != nil {
		f.logger.Printf("close login browser: %v", err)
	}
	f.page = nil
}

// Start tears down any previous flow and opens a visible browser on the login page. It
// returns once the page is loaded; it never waits for the human.
func (f *Flow) Start(ctx context.Context) (StartResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closePage()
	f.id = uuid.NewString()
	f.setState(StateLaunching, "")

	opts := f.opts.BrowserOptions
	opts.Headless = false
	page, err := f.opts.Launcher.Launch(ctx, opts)
	if err != nil {
		f.setState(StateError, err.Error())
		return StartResult{ID: f.id, Status: f.state}, fmt.Errorf("start login flow: %w", err)
	}
	f.page = page
	if err := page.Navigate(ctx, f.opts.LoginURL); err != nil {
		f.setState(StateError, err.Error())
		return StartResult{ID: f.id, Status: f.state}, fmt.Errorf("open login page: %w", err)
	}
	f.setState(StateWaitingForLogin, "")
	f.logger.Printf("login flow %s waiting for user at %s", f.id, f.opts.LoginURL)
	return StartResult{ID: f.id, Status: f.state}, nil
}

// Poll checks once whether the user has finished logging in. On success the cookies are
// handed to the sink and the browser is closed.
func (f *Flow) Poll(ctx context.Context) PollResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.page == nil {
		return PollResult{Status: PollNoBrowser, Message: "No login session in progress"}
	}
	if !f.page.Alive() {
		f.closePage()
		f.setState(StateIdle, "")
		return PollResult{Status: PollNoBrowser, Message: "Login browser was closed"}
	}
	if f.state != StateWaitingForLogin {
		// error state keeps the browser open until Cancel
		return PollResult{Status: PollError, Message: f.message}
	}

	current, err := f.page.URL(ctx)
	if err != nil {
		f.setState(StateError, err.Error())
		return PollResult{Status: PollError, Message: err.Error()}
	}
	if !f.opts.LoggedIn(current) {
		return PollResult{Status: PollWaiting, Message: "Please log in in the browser window"}
	}

	cookies, err := f.page.Cookies(ctx)
	if err != nil {
		f.setState(StateError, err.Error())
		return PollResult{Status: PollError, Message: err.Error()}
	}
	if err := f.opts.Sink.Save(cookies); err != nil {
		f.setState(StateError, err.Error())
		return PollResult{Status: PollError, Message: err.Error()}
	}
	f.closePage()
	f.setState(StateLoggedIn, "")
	f.logger.Printf("login flow %s completed, %d cookies saved", f.id, len(cookies))
	return PollResult{Status: PollLoggedIn, Message: "Login successful! Cookies saved."}
}

// Cancel closes any open browser and returns the flow to idle. It is a no-op when idle.
func (f *Flow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closePage()
	if f.state != StateIdle {
		f.setState(StateCancelled, "")
		f.setState(StateIdle, "")
	}
}

// Snapshot returns the current state.
func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Snapshot{ID: f.id, State: f.state, Message: f.message}
}
