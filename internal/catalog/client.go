package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/metrics"
)

// refreshSkew renews the token shortly before it actually expires.
const refreshSkew = 30 * time.Second

// Client reads variant stock from the remote catalog API using
// client-credentials tokens.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	http         *http.Client
	logger       *log.Logger
	metrics      *metrics.Metrics
	now          func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

type Options struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
	Logger       *log.Logger
	Metrics      *metrics.Metrics
}

func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		clientID:     opts.ClientID,
		clientSecret: opts.ClientSecret,
		http:         httpClient,
		logger:       logger,
		metrics:      opts.Metrics,
		now:          time.Now,
	}
}

var errUnauthorized = errors.New("catalog: unauthorized")

// Variant fetches one variant. A 401 triggers one token refresh and one retry;
// a second 401 means the session cannot be recovered.
func (c *Client) Variant(ctx context.Context, productID, variantID string) (*domain.Variant, error) {
	token, err := c.currentToken(ctx)
	if err != nil {
		return nil, err
	}
	v, err := c.fetchVariant(ctx, token, productID, variantID)
	if !errors.Is(err, errUnauthorized) {
		return v, err
	}

	c.logger.Printf("catalog: 401 for %s/%s, refreshing token", productID, variantID)
	token, err = c.refresh(ctx, token)
	if err != nil {
		return nil, err
	}
	v, err = c.fetchVariant(ctx, token, productID, variantID)
	if errors.Is(err, errUnauthorized) {
		return nil, domain.ErrSessionExpired
	}
	return v, err
}

func (c *Client) fetchVariant(ctx context.Context, token, productID, variantID string) (*domain.Variant, error) {
	endpoint := fmt.Sprintf("%s/products/%s/variants/%s", c.baseURL, url.PathEscape(productID), url.PathEscape(variantID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, domain.Upstream("get stock", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.Upstream("get stock", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, errUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrVariantNotFound
	case resp.StatusCode >= 300:
		return nil, domain.Upstream("get stock", fmt.Errorf("catalog status %d", resp.StatusCode))
	}

	var v domain.Variant
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, domain.Upstream("decode stock", err)
	}
	if v.ProductID == "" {
		v.ProductID = productID
	}
	if v.VariantID == "" {
		v.VariantID = variantID
	}
	return &v, nil
}

func (c *Client) currentToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token, exp := c.token, c.expiresAt
	c.mu.Unlock()
	if token != "" && c.now().Add(refreshSkew).Before(exp) {
		return token, nil
	}
	return c.refresh(ctx, token)
}

// refresh obtains a new token unless another caller already replaced stale.
func (c *Client) refresh(ctx context.Context, stale string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.token != stale {
		return c.token, nil
	}

	token, exp, err := c.requestToken(ctx)
	c.metrics.TokenRefresh(err)
	if err != nil {
		return "", err
	}
	c.token, c.expiresAt = token, exp
	return token, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (c *Client) requestToken(ctx context.Context) (string, time.Time, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, domain.Upstream("catalog token", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", time.Time{}, domain.Upstream("catalog token", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", time.Time{}, domain.ErrSessionExpired
	}
	if resp.StatusCode >= 300 {
		return "", time.Time{}, domain.Upstream("catalog token", fmt.Errorf("catalog status %d", resp.StatusCode))
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", time.Time{}, domain.Upstream("catalog token", err)
	}
	if body.AccessToken == "" {
		return "", time.Time{}, domain.Upstream("catalog token", errors.New("empty access token"))
	}
	return body.AccessToken, c.expiry(body), nil
}

// expiry prefers the JWT exp claim and falls back to expires_in for opaque tokens.
func (c *Client) expiry(body tokenResponse) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(body.AccessToken, &claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	if body.ExpiresIn > 0 {
		return c.now().Add(time.Duration(body.ExpiresIn) * time.Second)
	}
	return c.now().Add(5 * time.Minute)
}
