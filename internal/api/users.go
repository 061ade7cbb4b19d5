package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Veraticus/expensy/internal/model"
)

// User endpoints.
const (
	PathLogin           = "/api/users/login"
	PathRegister        = "/api/users/register"
	PathSetupUser       = "/api/users/setup-user"
	PathTestCredentials = "/api/users/test-cc-credentials"
	PathUserData        = "/api/users/get-user-data"
)

// userData is the data of the user endpoints. Older servers answer login
// and register with the token alone.
type userData struct {
	User        *model.User `json:"user"`
	AccessToken string      `json:"access_token"`
}

// Login signs in and keeps the returned access token for later requests.
func (c *Client) Login(ctx context.Context, req model.LoginRequest) (*model.User, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, err
	}
	return c.signIn(ctx, PathLogin, req, req.Email)
}

// Register creates an account and signs in to it.
func (c *Client) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, err
	}
	return c.signIn(ctx, PathRegister, req, req.Email)
}

func (c *Client) signIn(ctx context.Context, path string, body any, email string) (*model.User, error) {
	var data userData
	if err := c.do(ctx, request{method: http.MethodPost, path: path, body: body}, &data); err != nil {
		return nil, err
	}

	user := data.User
	if user == nil {
		if data.AccessToken == "" {
			return nil, fmt.Errorf("%w: %s returned no user", ErrNetwork, path)
		}
		user = &model.User{Email: email, AccessToken: data.AccessToken}
	}
	if user.AccessToken == "" {
		user.AccessToken = data.AccessToken
	}
	c.SetAccessToken(user.AccessToken)
	return user, nil
}

// GetUserData refreshes the signed-in user.
func (c *Client) GetUserData(ctx context.Context) (*model.User, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodGet, path: PathUserData, auth: true}, &raw); err != nil {
		return nil, err
	}
	return c.decodeUser(raw)
}

// SetupUser completes the account setup. The response replaces the user.
func (c *Client) SetupUser(ctx context.Context, req model.SetupRequest) (*model.User, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodPost, path: PathSetupUser, body: req, auth: true}, &raw); err != nil {
		return nil, err
	}
	return c.decodeUser(raw)
}

// TestCreditCardCredentials asks the server to try logging in to the credit
// card site. A nil error means the credentials work.
func (c *Client) TestCreditCardCredentials(ctx context.Context, creds model.Credentials) error {
	if err := c.validate.Struct(creds); err != nil {
		return err
	}
	return c.do(ctx, request{method: http.MethodPost, path: PathTestCredentials, body: creds, auth: true}, nil)
}

// decodeUser accepts either {"user": {...}} or the user itself. The current
// token is kept when the response omits it.
func (c *Client) decodeUser(raw json.RawMessage) (*model.User, error) {
	var wrapped userData
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil {
		return c.withToken(wrapped.User), nil
	}

	var user model.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("%w: decode user: %w", ErrNetwork, err)
	}
	return c.withToken(&user), nil
}

func (c *Client) withToken(u *model.User) *model.User {
	if u.AccessToken == "" {
		u.AccessToken = c.AccessToken()
	} else {
		c.SetAccessToken(u.AccessToken)
	}
	return u
}
