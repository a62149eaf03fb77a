// Package kakao resolves Kakao OAuth authorization codes to provider
// identities: the code is exchanged for a Kakao access token, and the
// token-info endpoint yields the stable Kakao user id.
package kakao

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"relay-chat/backend/internal/auth/domain"
	"relay-chat/backend/internal/auth/service"
)

const (
	defaultAuthBaseURL = "https://kauth.kakao.com"
	defaultAPIBaseURL  = "https://kapi.kakao.com"

	tokenPath     = "/oauth/token"
	tokenInfoPath = "/v1/user/access_token_info"
)

// Config holds Kakao OAuth application settings. AuthBaseURL and APIBaseURL
// are overridable for tests and default to Kakao's production hosts.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	AuthBaseURL string
	APIBaseURL  string
}

// Resolver authenticates Kakao authorization codes.
type Resolver struct {
	oauth      oauth2.Config
	apiBaseURL string
	httpClient *http.Client
}

// NewResolver returns a Resolver for the given Kakao application.
func NewResolver(cfg Config) *Resolver {
	if cfg.AuthBaseURL == "" {
		cfg.AuthBaseURL = defaultAuthBaseURL
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	return &Resolver{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthBaseURL + "/oauth/authorize",
				TokenURL:  cfg.AuthBaseURL + tokenPath,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiBaseURL: cfg.APIBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Supports reports whether the resolver handles the given provider type.
func (r *Resolver) Supports(t domain.ProviderType) bool {
	return t == domain.ProviderTypeKakao
}

// Resolve exchanges the command's authorization code and returns the Kakao
// identity it proves.
func (r *Resolver) Resolve(ctx context.Context, cmd service.Command) (*domain.Provider, error) {
	kakao, ok := cmd.(service.KakaoCommand)
	if !ok {
		return nil, fmt.Errorf("kakao resolver cannot handle %T", cmd)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
	token, err := r.oauth.Exchange(ctx, kakao.Code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	info, err := r.tokenInfo(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	provider, err := domain.NewProvider(domain.ProviderTypeKakao, strconv.FormatInt(info.ID, 10))
	if err != nil {
		return nil, err
	}
	return &provider, nil
}

type tokenInfoResponse struct {
	ID        int64 `json:"id"`
	ExpiresIn int   `json:"expires_in"`
	AppID     int   `json:"app_id"`
}

func (r *Resolver) tokenInfo(ctx context.Context, accessToken string) (*tokenInfoResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.apiBaseURL+tokenInfoPath, nil)
	if err != nil {
		return nil, fmt.Errorf("create token info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token info request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read token info response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token info request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var info tokenInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("parse token info response: %w", err)
	}
	if info.ID == 0 {
		return nil, fmt.Errorf("token info response missing user id")
	}
	return &info, nil
}

var _ service.ProviderResolver = (*Resolver)(nil)
