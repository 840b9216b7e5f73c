// Package identity resolves user IDs to email addresses via the
// external identity provider. Lookups fail open: when the provider is
// unreachable or returns garbage, callers get a readable placeholder
// instead of an error, so invitation flows never stall on a directory
// outage.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/scribehub/scribe-server/pkg/logger"
)

// Resolver resolves a user ID to a display email.
type Resolver interface {
	ResolveEmail(ctx context.Context, userID string) string
}

// Config holds identity provider client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// HTTPResolver looks up user profiles over HTTP.
type HTTPResolver struct {
	baseURL string
	client  *http.Client
	logger  *logger.Logger
}

// NewHTTPResolver creates a resolver against the identity provider.
func NewHTTPResolver(cfg *Config, log *logger.Logger) *HTTPResolver {
	if log == nil {
		log = logger.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPResolver{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  log.WithComponent("identity"),
	}
}

type profileResponse struct {
	Email string `json:"email"`
}

// ResolveEmail returns the email for userID, or a placeholder derived
// from the ID when the lookup fails for any reason.
func (r *HTTPResolver) ResolveEmail(ctx context.Context, userID string) string {
	url := fmt.Sprintf("%s/api/users/profile/%s", r.baseURL, userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Fallback(userID)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn("identity lookup failed", "user_id", userID, "error", err)
		return Fallback(userID)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.logger.Warn("identity lookup returned non-200", "user_id", userID, "status", resp.StatusCode)
		return Fallback(userID)
	}

	var profile profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		r.logger.Warn("identity lookup returned invalid body", "user_id", userID, "error", err)
		return Fallback(userID)
	}
	if profile.Email == "" {
		return Fallback(userID)
	}

	return profile.Email
}

// Fallback builds the placeholder shown when no email can be resolved.
func Fallback(userID string) string {
	if len(userID) > 8 {
		userID = userID[:8]
	}
	return "User " + userID
}
