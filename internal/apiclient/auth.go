package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"torresegura/internal/models"
)

const (
	pathToken        = "/api/token/"
	pathTokenRefresh = "/api/token/refresh/"
	pathMe           = "/api/me/"
)

// ObtainToken exchanges credentials for an access/refresh pair.
func (c *Client) ObtainToken(ctx context.Context, username, password string) (models.TokenPair, error) {
	var pair models.TokenPair
	payload := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, pathToken, "", payload, &pair, "authentication failed"); err != nil {
		return models.TokenPair{}, err
	}
	if pair.Access == "" {
		return models.TokenPair{}, errors.New("authentication response carried no access token")
	}
	return pair, nil
}

// RefreshToken trades a refresh token for a new access token. Backends
// that rotate refresh tokens return the new one too.
func (c *Client) RefreshToken(ctx context.Context, refresh string) (models.TokenPair, error) {
	if refresh == "" {
		return models.TokenPair{}, ErrNoSession
	}
	var pair models.TokenPair
	payload := map[string]string{"refresh": refresh}
	if err := c.do(ctx, http.MethodPost, pathTokenRefresh, "", payload, &pair, "token refresh failed"); err != nil {
		return models.TokenPair{}, err
	}
	if pair.Access == "" {
		return models.TokenPair{}, errors.New("refresh response carried no access token")
	}
	if pair.Refresh == "" {
		pair.Refresh = refresh
	}
	return pair, nil
}

// Me fetches the profile of the token's owner.
func (c *Client) Me(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, ErrNoSession
	}
	var user models.User
	if err := c.do(ctx, http.MethodGet, pathMe, token, nil, &user, "could not fetch user profile"); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Login obtains a token pair and then the profile it belongs to.
func (c *Client) Login(ctx context.Context, username, password string) (models.Session, error) {
	pair, err := c.ObtainToken(ctx, username, password)
	if err != nil {
		return models.Session{}, err
	}
	user, err := c.Me(ctx, pair.Access)
	if err != nil {
		return models.Session{}, fmt.Errorf("could not fetch user profile: %w", err)
	}
	if user.Username == "" {
		user.Username = username
	}
	return models.Session{User: user, Token: pair.Access, RefreshToken: pair.Refresh}, nil
}
