package account

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"

	"golang.org/x/net/publicsuffix"
)

// SessionFile keeps the portal session cookies between CLI invocations. The
// cookies are opaque; only their names and values are stored, and an expired
// session shows up as [portal.ErrUnauthorized] on the next request.
type SessionFile struct {
	path string
	base *url.URL
	jar  *cookiejar.Jar
}

type sessionCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type sessionData struct {
	BaseURL string          `json:"base_url"`
	Cookies []sessionCookie `json:"cookies"`
}

// OpenSession returns a session for baseURL backed by the file at path. A
// missing file, or one saved for another portal, yields an empty session.
func OpenSession(path, baseURL string) (*SessionFile, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("account: parse base url: %w", err)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("account: create cookie jar: %w", err)
	}
	s := &SessionFile{path: path, base: base, jar: jar}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("account: read session: %w", err)
	}
	var data sessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("account: decode session %s: %w", path, err)
	}
	if data.BaseURL != base.String() {
		return s, nil
	}
	cookies := make([]*http.Cookie, 0, len(data.Cookies))
	for _, c := range data.Cookies {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	s.jar.SetCookies(base, cookies)
	return s, nil
}

// Jar returns the cookie jar to hand to the portal client.
func (s *SessionFile) Jar() http.CookieJar { return s.jar }

// Path returns the backing file.
func (s *SessionFile) Path() string { return s.path }

// Save writes the current cookies with mode 0600.
func (s *SessionFile) Save() error {
	data := sessionData{BaseURL: s.base.String()}
	for _, c := range s.jar.Cookies(s.base) {
		data.Cookies = append(data.Cookies, sessionCookie{Name: c.Name, Value: c.Value})
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("account: encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("account: save session: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("account: save session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("account: save session: %w", err)
	}
	return nil
}

// Clear expires every cookie in the jar and removes the file.
func (s *SessionFile) Clear() error {
	var expired []*http.Cookie
	for _, c := range s.jar.Cookies(s.base) {
		expired = append(expired, &http.Cookie{Name: c.Name, Path: "/", MaxAge: -1})
	}
	s.jar.SetCookies(s.base, expired)
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("account: clear session: %w", err)
	}
	return nil
}
