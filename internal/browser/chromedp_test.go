package browser

import (
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"

	"github.com/mohammad-safakhou/wildscan/models"
)

func TestToCookieParamKeepsExpiryAndFlags(t *testing.T) {
	p := toCookieParam(models.Cookie{
		Name: "session", Value: "abc", Domain: ".flyfrontier.com", Path: "/",
		Expires: 1700000000.5, HTTPOnly: true, Secure: true, SameSite: "Lax",
	})
	if p.Expires == nil {
		t.Fatalf("expected expiry to be set")
	}
	got := time.Time(*p.Expires)
	if got.Unix() != 1700000000 || got.Nanosecond() != int(500*time.Millisecond) {
		t.Fatalf("unexpected expiry %v", got)
	}
	if p.SameSite != network.CookieSameSiteLax || !p.HTTPOnly || !p.Secure {
		t.Fatalf("flags not carried over: %+v", p)
	}
}

func TestToCookieParamSessionCookieHasNoExpiry(t *testing.T) {
	p := toCookieParam(models.Cookie{Name: "s", Value: "v", Expires: -1})
	if p.Expires != nil {
		t.Fatalf("session cookie must not carry an expiry")
	}
	if p.SameSite != "" {
		t.Fatalf("empty same-site must stay unset, got %q", p.SameSite)
	}
}

func TestFromNetworkCookieMarksSessionCookies(t *testing.T) {
	c := fromNetworkCookie(&network.Cookie{Name: "auth", Value: "x", Domain: "flyfrontier.com", Path: "/", Expires: 0, Session: true, SameSite: network.CookieSameSiteNone})
	if c.Expires != -1 {
		t.Fatalf("expected -1 expiry for session cookie, got %v", c.Expires)
	}
	if c.SameSite != "None" {
		t.Fatalf("unexpected same-site %q", c.SameSite)
	}
}

func idleClosed(p *chromedpPage) bool {
	p.mu.Lock()
	idle := p.idle
	p.mu.Unlock()
	select {
	case <-idle:
		return true
	default:
		return false
	}
}

func TestLifecycleEventsFromSubframesAreIgnored(t *testing.T) {
	p := &chromedpPage{idle: make(chan struct{}), mainFrame: "main"}

	p.onEvent(&page.EventLifecycleEvent{FrameID: "ad-iframe", Name: "networkIdle"})
	if idleClosed(p) {
		t.Fatalf("subframe networkIdle must not mark the page idle")
	}
	p.onEvent(&page.EventLifecycleEvent{FrameID: "main", Name: "networkIdle"})
	if !idleClosed(p) {
		t.Fatalf("expected main frame networkIdle to mark the page idle")
	}
	p.onEvent(&page.EventLifecycleEvent{FrameID: "ad-iframe", Name: "init"})
	if !idleClosed(p) {
		t.Fatalf("subframe init must not reset idle")
	}
	p.onEvent(&page.EventLifecycleEvent{FrameID: "main", Name: "init"})
	if idleClosed(p) {
		t.Fatalf("expected main frame init to reset idle")
	}
}

func TestLifecycleEventsBeforeAttachCountForAnyFrame(t *testing.T) {
	p := &chromedpPage{idle: make(chan struct{})}
	p.onEvent(&page.EventLifecycleEvent{FrameID: "whatever", Name: "networkIdle"})
	if !idleClosed(p) {
		t.Fatalf("expected networkIdle to count while the main frame is unknown")
	}
}
