package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

var ErrIdentityRejected = errors.New("identity token rejected")

// Identity is the verified result of a third-party sign-in token.
type Identity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// IdentityProvider verifies an external sign-in token.
type IdentityProvider interface {
	Verify(ctx context.Context, idToken string) (Identity, error)
}

// GoogleProvider verifies Google ID tokens against the tokeninfo endpoint.
type GoogleProvider struct {
	clientID string
	endpoint string
	client   *http.Client
}

const googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// NewGoogleProvider constructs a GoogleProvider. An empty endpoint uses the
// public tokeninfo URL.
func NewGoogleProvider(clientID, endpoint string) *GoogleProvider {
	if endpoint == "" {
		endpoint = googleTokenInfoURL
	}
	return &GoogleProvider{
		clientID: clientID,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify checks the ID token's signature and audience via Google.
func (p *GoogleProvider) Verify(ctx context.Context, idToken string) (Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.endpoint+"?id_token="+url.QueryEscape(idToken), nil)
	if err != nil {
		return Identity{}, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("tokeninfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Identity{}, ErrIdentityRejected
	}

	var info struct {
		Sub     string `json:"sub"`
		Aud     string `json:"aud"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Identity{}, err
	}
	if info.Sub == "" || info.Email == "" {
		return Identity{}, ErrIdentityRejected
	}
	if p.clientID != "" && info.Aud != p.clientID {
		return Identity{}, ErrIdentityRejected
	}

	return Identity{
		Subject: info.Sub,
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}
