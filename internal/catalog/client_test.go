package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
)

type fakeCatalog struct {
	tokensIssued atomic.Int32
	tokenTTL     time.Duration

	mu sync.Mutex
	// rejectTokens lists tokens the variants endpoint answers 401 for.
	rejectTokens map[string]bool
	rejectAll    bool
	status       int
}

func (f *fakeCatalog) setStatus(code int) {
	f.mu.Lock()
	f.status = code
	f.mu.Unlock()
}

func (f *fakeCatalog) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/token", func(w http.ResponseWriter, r *http.Request) {
		id, secret, ok := r.BasicAuth()
		if !ok || id != "shop" || secret != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		n := f.tokensIssued.Add(1)
		ttl := f.tokenTTL
		if ttl == 0 {
			ttl = time.Hour
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   "shop",
			ID:        strconv.Itoa(int(n)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		}).SignedString([]byte("catalog-key"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": signed, "expires_in": 3600})
	})
	mux.HandleFunc("GET /products/{pid}/variants/{vid}", func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Authorization")[len("Bearer "):]
		f.mu.Lock()
		reject := f.rejectAll || f.rejectTokens[token]
		status := f.status
		f.mu.Unlock()
		if reject {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if status != 0 {
			w.WriteHeader(status)
			return
		}
		if r.PathValue("vid") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(domain.Variant{
			ProductID: r.PathValue("pid"),
			VariantID: r.PathValue("vid"),
			Name:      "Linen Shirt",
			PriceList: 1000000,
			Stock:     7,
		})
	})
	return mux
}

func newTestClient(t *testing.T, f *fakeCatalog) *Client {
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return NewClient(Options{BaseURL: srv.URL + "/", ClientID: "shop", ClientSecret: "s3cret", HTTPClient: srv.Client()})
}

func TestClientFetchesVariantWithToken(t *testing.T) {
	f := &fakeCatalog{}
	c := newTestClient(t, f)

	v, err := c.Variant(context.Background(), "p1", "v1")
	require.NoError(t, err)
	assert.Equal(t, 7, v.Stock)
	assert.Equal(t, "v1", v.VariantID)

	_, err = c.Variant(context.Background(), "p1", "v2")
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.tokensIssued.Load(), "token is reused while valid")
}

func TestClientRefreshesOnceOn401(t *testing.T) {
	f := &fakeCatalog{rejectTokens: map[string]bool{}}
	c := newTestClient(t, f)

	_, err := c.Variant(context.Background(), "p1", "v1")
	require.NoError(t, err)

	c.mu.Lock()
	issued := c.token
	c.mu.Unlock()
	f.mu.Lock()
	f.rejectTokens[issued] = true
	f.mu.Unlock()

	v, err := c.Variant(context.Background(), "p1", "v1")
	require.NoError(t, err)
	assert.Equal(t, 7, v.Stock)
	assert.Equal(t, int32(2), f.tokensIssued.Load())
}

func TestClientSecond401IsSessionExpired(t *testing.T) {
	f := &fakeCatalog{rejectAll: true}
	c := newTestClient(t, f)

	_, err := c.Variant(context.Background(), "p1", "v1")
	assert.True(t, errors.Is(err, domain.ErrSessionExpired))
	assert.Equal(t, domain.KindSession, domain.KindOf(err))
	assert.Equal(t, int32(2), f.tokensIssued.Load(), "exactly one refresh")
}

func TestClientRefreshesExpiringToken(t *testing.T) {
	f := &fakeCatalog{tokenTTL: 10 * time.Second}
	c := newTestClient(t, f)

	_, err := c.Variant(context.Background(), "p1", "v1")
	require.NoError(t, err)
	_, err = c.Variant(context.Background(), "p1", "v1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.tokensIssued.Load(), "token inside the refresh window is renewed")
}

func TestClientMapsStatuses(t *testing.T) {
	f := &fakeCatalog{}
	c := newTestClient(t, f)

	_, err := c.Variant(context.Background(), "p1", "missing")
	assert.True(t, errors.Is(err, domain.ErrVariantNotFound))

	f.setStatus(http.StatusBadGateway)
	_, err = c.Variant(context.Background(), "p1", "v1")
	assert.Equal(t, domain.KindUpstream, domain.KindOf(err))
}

func TestClientBadCredentials(t *testing.T) {
	f := &fakeCatalog{}
	srv := httptest.NewServer(f.handler())
	defer srv.Close()
	c := NewClient(Options{BaseURL: srv.URL, ClientID: "shop", ClientSecret: "wrong", HTTPClient: srv.Client()})

	_, err := c.Variant(context.Background(), "p1", "v1")
	assert.True(t, errors.Is(err, domain.ErrSessionExpired))
}
