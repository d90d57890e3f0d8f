// Package session persists the cookie jar of the externally authenticated account.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/mohammad-safakhou/wildscan/internal/browser"
	"github.com/mohammad-safakhou/wildscan/models"
)

// ErrNotAuthenticated means no usable credential is stored; a human has to log in.
var ErrNotAuthenticated = errors.New("not logged in: please log in first")

// Credential is the stored cookie jar plus the time it was captured.
type Credential struct {
	Cookies []models.Cookie `json:"cookies"`
	SavedAt int64           `json:"savedAt"` // epoch milliseconds
}

// SavedTime returns SavedAt as a time.
func (c Credential) SavedTime() time.Time { return time.UnixMilli(c.SavedAt) }

// Validation is the outcome of checking the credential against the live site.
type Validation struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"message"`
}

// Status summarises the stored credential without contacting the site.
type Status struct {
	LoggedIn    bool   `json:"loggedIn"`
	SavedAt     *int64 `json:"savedAt"` // epoch milliseconds
	CookieCount int    `json:"cookieCount"`
	Stale       bool   `json:"stale"`
}

// Options configures a Store.
type Options struct {
	Fs   afero.Fs
	Path string
	// StaleAfter only triggers a warning; stale credentials still count as present.
	StaleAfter time.Duration
	// SiteHost is used for the session-cookie sanity warning, e.g. "flyfrontier.com".
	SiteHost string

	Launcher        browser.Launcher
	BrowserOptions  browser.Options
	AccountURL      string
	LoginPath       string
	ValidateTimeout time.Duration

	Logger *log.Logger
	Now    func() time.Time
}

// Store reads and writes the credential file. Writes replace the whole file through a
// rename so concurrent readers never observe a partial credential.
type Store struct {
	opts   Options
	logger *log.Logger
	now    func() time.Time
}

func NewStore(opts Options) *Store {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.LoginPath == "" {
		opts.LoginPath = "/login"
	}
	if opts.ValidateTimeout <= 0 {
		opts.ValidateTimeout = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[SESSION] ", log.LstdFlags)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{opts: opts, logger: logger, now: now}
}

func (s *Store) read() (*Credential, error) {
	data, err := afero.ReadFile(s.opts.Fs, s.opts.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("read credential: %w", err)
	}
	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("%w: credential file unreadable: %v", ErrNotAuthenticated, err)
	}
	if len(cred.Cookies) == 0 {
		return nil, ErrNotAuthenticated
	}
	return &cred, nil
}

// HasValidCredential reports whether a parseable credential with at least one cookie exists.
// It never contacts the site.
func (s *Store) HasValidCredential() bool {
	cred, err := s.read()
	if err != nil {
		return false
	}
	if s.isStale(*cred) {
		s.logger.Printf("session is older than %s, may be expired", s.opts.StaleAfter)
	}
	if !s.hasSessionCookie(*cred) {
		s.logger.Printf("warning: no obvious session cookie found")
	}
	return true
}

// Get returns the stored credential or ErrNotAuthenticated.
func (s *Store) Get() (*Credential, error) {
	return s.read()
}

// Status reports presence, age and size of the stored credential.
func (s *Store) Status() Status {
	cred, err := s.read()
	if err != nil {
		return Status{}
	}
	saved := cred.SavedAt
	return Status{
		LoggedIn:    true,
		SavedAt:     &saved,
		CookieCount: len(cred.Cookies),
		Stale:       s.isStale(*cred),
	}
}

func (s *Store) isStale(cred Credential) bool {
	if s.opts.StaleAfter <= 0 || cred.SavedAt == 0 {
		return false
	}
	return s.now().Sub(cred.SavedTime()) > s.opts.StaleAfter
}

func (s *Store) hasSessionCookie(cred Credential) bool {
	for _, c := range cred.Cookies {
		if s.opts.SiteHost != "" && !strings.Contains(c.Domain, s.opts.SiteHost) {
			continue
		}
		name := strings.ToLower(c.Name)
		if strings.Contains(name, "session") || strings.Contains(name, "auth") || strings.Contains(name, "token") {
			return true
		}
	}
	return false
}

// Save replaces the stored credential with cookies stamped with the current time.
func (s *Store) Save(cookies []models.Cookie) error {
	cred := Credential{Cookies: cookies, SavedAt: s.now().UnixMilli()}
	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}
	dir := filepath.Dir(s.opts.Path)
	if err := s.opts.Fs.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}
	tmp, err := afero.TempFile(s.opts.Fs, dir, ".cookies-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp credential: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = s.opts.Fs.Remove(tmpName)
		return fmt.Errorf("write temp credential: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.opts.Fs.Remove(tmpName)
		return fmt.Errorf("close temp credential: %w", err)
	}
	if err := s.opts.Fs.Rename(tmpName, s.opts.Path); err != nil {
		_ = s.opts.Fs.Remove(tmpName)
		return fmt.Errorf("replace credential: %w", err)
	}
	s.logger.Printf("saved %d cookies", len(cookies))
	return nil
}

// Delete removes the stored credential. Deleting a missing credential is not an error.
func (s *Store) Delete() error {
	err := s.opts.Fs.Remove(s.opts.Path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// Validate loads the account page in a hidden browser with the stored cookies. A redirect
// to the login page deletes the credential so later checks report not-authenticated.
func (s *Store) Validate(ctx context.Context) Validation {
	cred, err := s.read()
	if err != nil {
		return Validation{Valid: false, Reason: "Not logged in. Please log in first."}
	}
	if s.opts.Launcher == nil {
		return Validation{Valid: false, Reason: "no browser available for validation"}
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.ValidateTimeout)
	defer cancel()

	bopts := s.opts.BrowserOptions
	bopts.Headless = true
	page, err := s.opts.Launcher.Launch(ctx, bopts)
	if err != nil {
		return Validation{Valid: false, Reason: err.Error()}
	}
	defer func() {
		if err := page.Close(); err != nil {
			s.logger.Printf("close validation browser: %v", err)
		}
	}()

	if err := page.SetCookies(ctx, cred.Cookies); err != nil {
		return Validation{Valid: false, Reason: err.Error()}
	}
	if err := page.Navigate(ctx, s.opts.AccountURL); err != nil {
		return Validation{Valid: false, Reason: err.Error()}
	}
	current, err := page.URL(ctx)
	if err != nil {
		return Validation{Valid: false, Reason: err.Error()}
	}
	if strings.Contains(current, s.opts.LoginPath) {
		if err := s.Delete(); err != nil {
			s.logger.Printf("delete expired credential: %v", err)
		}
		s.logger.Printf("session expired (redirected to %s), credential removed", current)
		return Validation{Valid: false, Reason: "Session expired. Please log in again."}
	}
	return Validation{Valid: true, Reason: "Session is valid"}
}
