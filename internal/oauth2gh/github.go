// Package oauth2gh implements the GitHub sign-in routes (C1's front door): redirecting
// to GitHub's authorize endpoint and exchanging the returned code for a
// GitHub user id, which the identity store then binds to a session token.
// Grounded on original_source/src/route/oauth2/{auth,register}.rs, ported
// from reqwest+a hand-rolled BasicClient onto golang.org/x/oauth2, the
// stdlib OAuth2 client the example pack's manifests name for this exact
// GitHub code-exchange shape.
package oauth2gh

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rybkr/gitphantom/internal/apperr"
	"github.com/rybkr/gitphantom/internal/logging"
	"github.com/rybkr/gitphantom/internal/types"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// Identity is the subset of store.Users the registration route needs.
type Identity interface {
	Register(ctx context.Context, userID types.UserID) (types.SessionToken, error)
}

// Credentials holds the registered GitHub OAuth app's client id/secret.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Handler serves the two GitHub sign-in routes.
type Handler struct {
	Credentials Credentials
	Identity    Identity
	// HTTPClient is used for the token exchange and user-info lookup;
	// overridable in tests to avoid a real network call.
	HTTPClient *http.Client
	// Endpoint overrides the OAuth2 authorize/token URLs; defaults to
	// GitHub's when zero.
	Endpoint oauth2.Endpoint
	// APIBaseURL overrides the GitHub REST API origin; defaults to
	// https://api.github.com when empty.
	APIBaseURL string
}

func (h *Handler) httpClient() *http.Client {
	if h.HTTPClient != nil {
		return h.HTTPClient
	}
	return http.DefaultClient
}

func (h *Handler) config() *oauth2.Config {
	endpoint := h.Endpoint
	if endpoint == (oauth2.Endpoint{}) {
		endpoint = github.Endpoint
	}
	return &oauth2.Config{
		ClientID:     h.Credentials.ClientID,
		ClientSecret: h.Credentials.ClientSecret,
		Endpoint:     endpoint,
	}
}

func (h *Handler) apiBaseURL() string {
	if h.APIBaseURL != "" {
		return h.APIBaseURL
	}
	return "https://api.github.com"
}

// Auth redirects the browser to GitHub's authorize URL.
func (h *Handler) Auth(w http.ResponseWriter, r *http.Request) {
	url := h.config().AuthCodeURL(uuid.NewString())
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// Register exchanges the GitHub-issued code for an access token, resolves
// the caller's GitHub user id, and mints a session token for it.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logf := func(format string, args ...any) {
		logging.Error(ctx, fmt.Sprintf(format, args...))
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		apperr.WriteHTTP(w, apperr.New(apperr.KindMissingAuthCode), nil)
		return
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, h.httpClient())
	cfg := h.config()
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		apperr.WriteHTTP(w, apperr.Wrap(apperr.KindFailedConnectGithubAPI, err), logf)
		return
	}

	userID, err := h.fetchGithubID(ctx, token)
	if err != nil {
		apperr.WriteHTTP(w, err, logf)
		return
	}

	sessionToken, err := h.Identity.Register(ctx, userID)
	if err != nil {
		apperr.WriteHTTP(w, err, logf)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte(sessionToken.String()))
}

func (h *Handler) fetchGithubID(ctx context.Context, token *oauth2.Token) (types.UserID, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.apiBaseURL()+"/user", nil)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindFailedConnectGithubAPI, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	token.SetAuthHeader(req)

	resp, err := h.httpClient().Do(req)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindFailedConnectGithubAPI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, apperr.Wrap(apperr.KindFailedConnectGithubAPI,
			fmt.Errorf("github api returned status %d", resp.StatusCode))
	}

	var payload struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, apperr.Wrap(apperr.KindFailedConnectGithubAPI, err)
	}

	return types.UserID(payload.ID), nil
}
