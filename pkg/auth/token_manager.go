package auth

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/run-bigpig/apitools/pkg/logging"
)

// defaultExpiryBuffer is subtracted from a token's expiry so near-expiry
// tokens are refreshed instead of racing the issuer's clock
const defaultExpiryBuffer = 30 * time.Second

// TokenManager acquires and refreshes an OAuth2 client-credentials bearer
// token. One manager owns one token; all mutation goes through it.
type TokenManager struct {
	config     clientcredentials.Config
	buffer     time.Duration
	httpClient *http.Client
	logger     logging.Logger
	clock      func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time
	valid  bool
}

// Option represents an option for configuring the token manager
type Option func(*TokenManager)

// WithExpiryBuffer sets how long before expiry a token stops being reused
func WithExpiryBuffer(buffer time.Duration) Option {
	return func(m *TokenManager) {
		m.buffer = buffer
	}
}

// WithScopes sets the scopes requested during the exchange
func WithScopes(scopes ...string) Option {
	return func(m *TokenManager) {
		m.config.Scopes = scopes
	}
}

// WithHTTPClient sets the HTTP client used for the token exchange
func WithHTTPClient(client *http.Client) Option {
	return func(m *TokenManager) {
		m.httpClient = client
	}
}

// WithLogger sets the logger
func WithLogger(logger logging.Logger) Option {
	return func(m *TokenManager) {
		m.logger = logger
	}
}

// WithClock overrides the time source, for tests
func WithClock(clock func() time.Time) Option {
	return func(m *TokenManager) {
		m.clock = clock
	}
}

// NewTokenManager creates a token manager for the given issuer base URL and
// client credential pair. The token endpoint is {baseURL}/token and the
// exchange authenticates with HTTP Basic auth.
func NewTokenManager(baseURL, clientID, clientSecret string, options ...Option) *TokenManager {
	manager := &TokenManager{
		config: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     strings.TrimRight(baseURL, "/") + "/token",
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		buffer: defaultExpiryBuffer,
		clock:  time.Now,
	}

	for _, option := range options {
		option(manager)
	}

	return manager
}

// Token returns a valid bearer token, reusing the stored one while it is
// comfortably inside its lifetime and performing a fresh client-credentials
// exchange otherwise.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.valid && (m.expiry.IsZero() || m.clock().Before(m.expiry.Add(-m.buffer))) {
		return m.token, nil
	}

	if m.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	}

	token, err := m.config.Token(ctx)
	if err != nil {
		m.valid = false
		m.token = ""
		return "", classifyExchangeError(err)
	}

	m.token = token.AccessToken
	m.expiry = token.Expiry // zero when the issuer gave no lifetime
	m.valid = true

	if m.logger != nil {
		m.logger.Debug(ctx, "acquired access token", map[string]interface{}{
			"expiry": m.expiry,
		})
	}

	return m.token, nil
}

// classifyExchangeError sorts a failed exchange into the error taxonomy.
// A non-2xx token response and a response that cannot be used as a token are
// both AuthError; NetworkError is reserved for receiving no response at all.
func classifyExchangeError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return &AuthError{
			StatusCode: retrieveErr.Response.StatusCode,
			Detail:     string(retrieveErr.Body),
		}
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return &NetworkError{Err: err}
	}

	return &AuthError{Detail: err.Error()}
}

// Invalidate discards the stored token. The next Token call performs a fresh
// exchange. Call sites receiving a 401 from a downstream API use this so a
// stale token cannot be served again.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.valid = false
	m.token = ""
	m.expiry = time.Time{}
}
