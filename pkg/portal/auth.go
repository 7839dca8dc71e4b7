package portal

import (
	"context"
	"fmt"
	"net/http"
)

type userResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

// Login signs in with email and password. On success the session cookie is
// stored in the client's jar.
func (c *Client) Login(ctx context.Context, cred Credentials) (User, error) {
	var resp userResponse
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("/api/auth/login/", nil), cred, &resp); err != nil {
		return User{}, fmt.Errorf("portal: login: %w", err)
	}
	return resp.User, nil
}

// Register creates a new account. The portal marks the standard as selected.
// It does not sign the user in.
func (c *Client) Register(ctx context.Context, reg Registration) (User, error) {
	var resp userResponse
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("/api/auth/register/", nil), reg, &resp); err != nil {
		return User{}, fmt.Errorf("portal: register: %w", err)
	}
	resp.User.Standard = reg.Standard
	resp.User.StandardSelected = true
	return resp.User, nil
}

// Logout ends the session.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("/api/auth/logout/", nil), nil, nil); err != nil {
		return fmt.Errorf("portal: logout: %w", err)
	}
	return nil
}

// UserInfo returns the signed-in user's profile. Returns an error matching
// [ErrUnauthorized] when there is no valid session.
func (c *Client) UserInfo(ctx context.Context) (User, error) {
	var resp userResponse
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("/api/auth/user-info/", nil), nil, &resp); err != nil {
		return User{}, fmt.Errorf("portal: user info: %w", err)
	}
	return resp.User, nil
}

// SelectStandard sets the student's standard (class).
func (c *Client) SelectStandard(ctx context.Context, standard string) error {
	body := map[string]string{"standard": standard}
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("/api/auth/select-standard/", nil), body, nil); err != nil {
		return fmt.Errorf("portal: select standard: %w", err)
	}
	return nil
}

// UpdateSettings changes the standard and/or preferred language.
func (c *Client) UpdateSettings(ctx context.Context, s Settings) error {
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("/api/auth/update-settings/", nil), s, nil); err != nil {
		return fmt.Errorf("portal: update settings: %w", err)
	}
	return nil
}
