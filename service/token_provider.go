package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"finance-agent/domain"
	"finance-agent/repository"
)

const (
	iamGrantType      = "urn:ibm:params:oauth:grant-type:apikey"
	tokenCacheTimeout = 5 * time.Second
)

// TokenSource hands out bearer tokens for the agent runtime.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type TokenProviderConfig struct {
	APIKey   string
	TokenURL string
	Skew     time.Duration
	Timeout  time.Duration
}

// TokenProvider exchanges an API key for an IAM access token. Tokens are
// reused in process and shared through a CacheRepository until skew
// before their expiry.
type TokenProvider struct {
	apiKey string
	key    string
	source oauth2.TokenSource
	group  singleflight.Group
}

func tokenCacheKey(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return "iam-token:" + hex.EncodeToString(sum[:8])
}

func NewTokenProvider(cfg TokenProviderConfig, cache repository.CacheRepository, log logrus.FieldLogger) *TokenProvider {
	skew := cfg.Skew
	if skew <= 0 {
		skew = DefaultTokenRefreshSkew
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	key := tokenCacheKey(apiKey)
	log = log.WithField("component", "iam_token")

	iam := &iamTokenSource{
		apiKey:     apiKey,
		tokenURL:   cfg.TokenURL,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
	shared := &cachedTokenSource{key: key, skew: skew, cache: cache, next: iam, log: log}

	return &TokenProvider{
		apiKey: apiKey,
		key:    key,
		source: oauth2.ReuseTokenSourceWithExpiry(nil, shared, skew),
	}
}

// Token returns a usable bearer token. Concurrent callers share one refresh,
// and a caller that gives up does not cancel it for the others.
func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	if p.apiKey == "" {
		return "", domain.AgentNotConfigured("missing ORCH_API_KEY")
	}

	ch := p.group.DoChan(p.key, func() (any, error) {
		tok, err := p.source.Token()
		if err != nil {
			return "", err
		}
		return tok.AccessToken, nil
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// cachedTokenSource consults the shared cache before asking next. Entries
// are written with a TTL that ends skew before the token expires, so any
// entry the cache still returns is fresh.
type cachedTokenSource struct {
	key   string
	skew  time.Duration
	cache repository.CacheRepository
	next  oauth2.TokenSource
	log   logrus.FieldLogger
}

func (s *cachedTokenSource) Token() (*oauth2.Token, error) {
	if tok, ok := s.load(); ok {
		return tok, nil
	}
	tok, err := s.next.Token()
	if err != nil {
		return nil, err
	}
	s.save(tok)
	return tok, nil
}

func (s *cachedTokenSource) load() (*oauth2.Token, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), tokenCacheTimeout)
	defer cancel()

	raw, ok, err := s.cache.Get(ctx, s.key)
	if err != nil {
		s.log.WithError(err).Warn("token cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var tok oauth2.Token
	if err := json.Unmarshal([]byte(raw), &tok); err != nil || tok.AccessToken == "" {
		s.log.WithError(err).Warn("discarding malformed cached token")
		return nil, false
	}
	return &tok, true
}

// save is best effort; a failed write only costs an extra refresh.
func (s *cachedTokenSource) save(tok *oauth2.Token) {
	ttl := time.Until(tok.Expiry) - s.skew
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(tok)
	if err != nil {
		s.log.WithError(err).Warn("encoding token for cache")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), tokenCacheTimeout)
	defer cancel()
	if err := s.cache.Set(ctx, s.key, string(raw), ttl); err != nil {
		s.log.WithError(err).Warn("token cache write failed")
	}
}

type iamTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// iamTokenSource performs the IAM apikey grant.
type iamTokenSource struct {
	apiKey     string
	tokenURL   string
	timeout    time.Duration
	httpClient *http.Client
	log        logrus.FieldLogger
}

func (s *iamTokenSource) Token() (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	form := url.Values{}
	form.Set("grant_type", iamGrantType)
	form.Set("apikey", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build IAM token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	issued := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("IAM token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("IAM token request failed: %d %s", resp.StatusCode, string(body))
	}

	var payload iamTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode IAM token response: %w", err)
	}
	if payload.AccessToken == "" {
		return nil, fmt.Errorf("IAM token response missing access_token")
	}

	lifetime := DefaultTokenLifetime
	if payload.ExpiresIn > 0 {
		lifetime = time.Duration(payload.ExpiresIn) * time.Second
	}
	tokenType := payload.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	s.log.WithField("expires_in", lifetime.String()).Info("IAM token refreshed")
	return &oauth2.Token{
		AccessToken: payload.AccessToken,
		TokenType:   tokenType,
		Expiry:      issued.Add(lifetime),
	}, nil
}
