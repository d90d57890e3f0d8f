package login

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"

	"github.com/mohammad-safakhou/wildscan/internal/browser"
	"github.com/mohammad-safakhou/wildscan/internal/browser/browsertest"
	"github.com/mohammad-safakhou/wildscan/models"
)

const loginURL = "https://www.flyfrontier.com/myfrontier/login"

type sinkStub struct {
	mu    sync.Mutex
	saved [][]models.Cookie
	err   error
}

func (s *sinkStub) Save(cookies []models.Cookie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, cookies)
	return nil
}

func newTestFlow(launcher *browsertest.Launcher, sink *sinkStub, transitions *[]State) *Flow {
	opts := Options{
		Launcher: launcher,
		Sink:     sink,
		LoginURL: loginURL,
		Logger:   log.New(io.Discard, "", 0),
	}
	if transitions != nil {
		opts.Observer = func(from, to State) { *transitions = append(*transitions, to) }
	}
	return NewFlow(opts)
}

func TestCancelWithoutFlowIsNoop(t *testing.T) {
	f := newTestFlow(&browsertest.Launcher{}, &sinkStub{}, nil)
	f.Cancel()
	f.Cancel()
	if s := f.Snapshot(); s.State != StateIdle {
		t.Fatalf("expected idle, got %s", s.State)
	}
}

func TestPollWithoutFlowReportsNoBrowser(t *testing.T) {
	f := newTestFlow(&browsertest.Launcher{}, &sinkStub{}, nil)
	if res := f.Poll(context.Background()); res.Status != PollNoBrowser {
		t.Fatalf("expected no_browser, got %+v", res)
	}
}

func TestStartOpensVisibleBrowserOnLoginPage(t *testing.T) {
	launcher := &browsertest.Launcher{}
	var transitions []State
	f := newTestFlow(launcher, &sinkStub{}, &transitions)

	res, err := f.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if res.Status != StateWaitingForLogin || res.ID == "" {
		t.Fatalf("unexpected start result %+v", res)
	}
	if launcher.Options[0].Headless {
		t.Fatalf("login browser must be visible")
	}
	if v := launcher.Pages()[0].Visited; len(v) != 1 || v[0] != loginURL {
		t.Fatalf("expected login page visit, got %v", v)
	}
	want := []State{StateLaunching, StateWaitingForLogin}
	if len(transitions) != len(want) || transitions[0] != want[0] || transitions[1] != want[1] {
		t.Fatalf("unexpected transitions %v", transitions)
	}
}

func TestStartTwiceTearsDownFirstBrowser(t *testing.T) {
	launcher := &browsertest.Launcher{}
	f := newTestFlow(launcher, &sinkStub{}, nil)

	first, err := f.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	firstPage := launcher.Pages()[0]
	if firstPage.Closed() {
		t.Fatalf("first browser closed too early")
	}
	second, err := f.Start(context.Background())
	if err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if !firstPage.Closed() {
		t.Fatalf("first browser must be closed before the second starts")
	}
	if launcher.Pages()[1].Closed() {
		t.Fatalf("second browser must stay open")
	}
	if first.ID == second.ID {
		t.Fatalf("expected a fresh flow id")
	}
}

func TestPollWaitsUntilLoggedIn(t *testing.T) {
	launcher := &browsertest.Launcher{
		NewPage: func(browser.Options) *browsertest.Page {
			return &browsertest.Page{Jar: []models.Cookie{{Name: "auth_token", Value: "t", Domain: ".flyfrontier.com"}}}
		},
	}
	sink := &sinkStub{}
	f := newTestFlow(launcher, sink, nil)
	if _, err := f.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	page := launcher.Pages()[0]

	if res := f.Poll(context.Background()); res.Status != PollWaiting {
		t.Fatalf("expected waiting while on login page, got %+v", res)
	}
	if len(sink.saved) != 0 {
		t.Fatalf("nothing should be saved yet")
	}

	page.SetURL("https://www.flyfrontier.com/myfrontier/my-account")
	res := f.Poll(context.Background())
	if res.Status != PollLoggedIn {
		t.Fatalf("expected logged_in, got %+v", res)
	}
	if len(sink.saved) != 1 || sink.saved[0][0].Name != "auth_token" {
		t.Fatalf("expected cookies to be saved, got %+v", sink.saved)
	}
	if !page.Closed() {
		t.Fatalf("browser must be closed after login")
	}
	if s := f.Snapshot(); s.State != StateLoggedIn {
		t.Fatalf("expected logged_in state, got %s", s.State)
	}
	if res := f.Poll(context.Background()); res.Status != PollNoBrowser {
		t.Fatalf("expected no_browser after completion, got %+v", res)
	}
}

func TestPollReportsVanishedBrowser(t *testing.T) {
	launcher := &browsertest.Launcher{}
	f := newTestFlow(launcher, &sinkStub{}, nil)
	if _, err := f.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	launcher.Pages()[0].Vanish()
	if res := f.Poll(context.Background()); res.Status != PollNoBrowser {
		t.Fatalf("expected no_browser, got %+v", res)
	}
	if s := f.Snapshot(); s.State != StateIdle {
		t.Fatalf("expected idle, got %s", s.State)
	}
}

func TestPollErrorKeepsBrowserForCancel(t *testing.T) {
	launcher := &browsertest.Launcher{
		NewPage: func(browser.Options) *browsertest.Page {
			return &browsertest.Page{URLErr: errors.New("cdp: target crashed")}
		},
	}
	sink := &sinkStub{}
	f := newTestFlow(launcher, sink, nil)
	if _, err := f.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	res := f.Poll(context.Background())
	if res.Status != PollError || res.Message == "" {
		t.Fatalf("expected error with message, got %+v", res)
	}
	if s := f.Snapshot(); s.State != StateError {
		t.Fatalf("expected error state, got %s", s.State)
	}
	page := launcher.Pages()[0]
	if page.Closed() {
		t.Fatalf("browser must not be assumed closed on error")
	}
	f.Cancel()
	if !page.Closed() {
		t.Fatalf("cancel must close the browser")
	}
	if s := f.Snapshot(); s.State != StateIdle {
		t.Fatalf("expected idle after cancel, got %s", s.State)
	}
	if len(sink.saved) != 0 {
		t.Fatalf("session store must not be touched on error")
	}
}

func TestSaveFailureMovesToError(t *testing.T) {
	launcher := &browsertest.Launcher{}
	f := newTestFlow(launcher, &sinkStub{err: errors.New("disk full")}, nil)
	if _, err := f.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	launcher.Pages()[0].SetURL("https://www.flyfrontier.com/")
	if res := f.Poll(context.Background()); res.Status != PollError {
		t.Fatalf("expected error, got %+v", res)
	}
}

func TestStartLaunchFailure(t *testing.T) {
	f := newTestFlow(&browsertest.Launcher{Err: errors.New("chrome not found")}, &sinkStub{}, nil)
	if _, err := f.Start(context.Background()); err == nil {
		t.Fatalf("expected launch error")
	}
	if s := f.Snapshot(); s.State != StateError || s.Message == "" {
		t.Fatalf("expected error state with message, got %+v", s)
	}
	f.Cancel()
	if s := f.Snapshot(); s.State != StateIdle {
		t.Fatalf("expected idle after cancel, got %s", s.State)
	}
}

func TestCancelFromWaiting(t *testing.T) {
	launcher := &browsertest.Launcher{}
	var transitions []State
	f := newTestFlow(launcher, &sinkStub{}, &transitions)
	if _, err := f.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	f.Cancel()
	if !launcher.Pages()[0].Closed() {
		t.Fatalf("expected browser closed")
	}
	last := transitions[len(transitions)-2:]
	if last[0] != StateCancelled || last[1] != StateIdle {
		t.Fatalf("expected cancelled then idle, got %v", transitions)
	}
}

func TestURLPredicate(t *testing.T) {
	loggedIn := URLPredicate(loginURL, nil)
	cases := map[string]bool{
		"https://www.flyfrontier.com/myfrontier/login":         false,
		"https://www.flyfrontier.com/myfrontier/login?error=1": false,
		"https://www.flyfrontier.com/myfrontier/my-account":    true,
		"https://www.flyfrontier.com/myfrontier/dashboard":     true,
		"https://www.flyfrontier.com/":                         true,
		"https://booking.flyfrontier.com/flights":              true,
		"https://accounts.google.com/o/oauth2/auth":            false,
		"about:blank":                  false,
		"https://evilflyfrontier.com/": false,
	}
	for raw, want := range cases {
		if got := loggedIn(raw); got != want {
			t.Fatalf("URLPredicate(%q) = %v, want %v", raw, got, want)
		}
	}
}
