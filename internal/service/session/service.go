package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
	tokenrepo "github.com/phnam24/Shop-Front-End-temp-sub000/internal/repository/token"
)

type tokenStore interface {
	Create(ctx context.Context, token tokenrepo.Token) error
	Get(ctx context.Context, token string) (*tokenrepo.Token, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type customerStore interface {
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
}

// Service turns bearer tokens into the customer they were issued to.
type Service struct {
	tokens    tokenStore
	customers customerStore
	logger    *log.Logger
	now       func() time.Time
}

func New(tokens tokenStore, customers customerStore, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{tokens: tokens, customers: customers, logger: logger, now: time.Now}
}

// Issue creates an access token for customerID valid for ttl.
func (s *Service) Issue(ctx context.Context, customerID string, ttl time.Duration) (string, error) {
	expiresAt := s.now().Add(ttl)
	for i := 0; i < 5; i++ {
		token, err := randomToken()
		if err != nil {
			return "", err
		}
		err = s.tokens.Create(ctx, tokenrepo.Token{
			Token:      token,
			CustomerID: customerID,
			Kind:       tokenrepo.KindAccess,
			ExpiresAt:  expiresAt,
		})
		if err == nil {
			return token, nil
		}
		if errors.Is(err, domain.ErrAlreadyExists) {
			continue
		}
		return "", err
	}
	return "", errors.New("token collision")
}

// Resolve returns the customer behind token. Unknown, expired and orphaned
// tokens all yield ErrSessionExpired; expired ones are deleted.
func (s *Service) Resolve(ctx context.Context, token string) (*domain.Customer, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrSessionExpired
	}
	meta, err := s.tokens.Get(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrSessionExpired
		}
		return nil, domain.Upstream("resolve session", err)
	}
	if meta.Kind != tokenrepo.KindAccess {
		return nil, domain.ErrSessionExpired
	}
	if !s.now().Before(meta.ExpiresAt) {
		if err := s.tokens.Delete(ctx, token); err != nil {
			s.logger.Printf("session: delete expired token customer=%s err=%v", meta.CustomerID, err)
		}
		return nil, domain.ErrSessionExpired
	}
	c, err := s.customers.GetByID(ctx, meta.CustomerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrSessionExpired
		}
		return nil, domain.Upstream("resolve session", err)
	}
	return c, nil
}

// PurgeExpired drops every token past its expiry and reports how many.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.tokens.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, domain.Upstream("purge sessions", err)
	}
	return n, nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
