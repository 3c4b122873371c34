package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

const (
	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	defaultHTTPTimeout = 10 * time.Second
	maxErrorBody       = 2048
)

var (
	ErrMissingCode        = errors.New("google: authorization code is required")
	ErrMissingAccessToken = errors.New("google: token response without access_token")
	ErrIncompleteProfile  = errors.New("google: profile without id or email")
)

// UpstreamAuthError representa una respuesta no-2xx de Google.
type UpstreamAuthError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *UpstreamAuthError) Error() string {
	return fmt.Sprintf("google %s failed with status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Config agrupa credenciales y endpoints. TokenURL y UserInfoURL se pueden
// sobreescribir en tests.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	TokenURL     string
	UserInfoURL  string
	HTTPClient   *http.Client
}

// Profile es la identidad verificada de Google.
type Profile struct {
	ExternalID    string
	Email         string
	DisplayName   string
	AvatarURL     string
	EmailVerified bool
}

type userInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	VerifiedEmail bool   `json:"verified_email"`
}

// Client canjea codigos de autorizacion y obtiene el perfil del usuario.
type Client struct {
	oauth       *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
	logger      *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	endpoint := googleoauth.Endpoint
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = defaultUserInfoURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL: userInfoURL,
		httpClient:  httpClient,
		logger:      logger,
	}
}

// DefaultRedirectURL es el redirect configurado cuando el cliente no envia uno.
func (c *Client) DefaultRedirectURL() string {
	return c.oauth.RedirectURL
}

func (c *Client) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// ExchangeCode canjea el codigo por un access token.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", ErrMissingCode
	}
	cfg := *c.oauth
	if redirectURI = strings.TrimSpace(redirectURI); redirectURI != "" {
		cfg.RedirectURL = redirectURI
	}

	token, err := cfg.Exchange(c.withHTTPClient(ctx), code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			return "", &UpstreamAuthError{Op: "token exchange", StatusCode: re.Response.StatusCode, Body: truncate(string(re.Body))}
		}
		return "", fmt.Errorf("google token exchange: %w", err)
	}
	if token.AccessToken == "" {
		return "", ErrMissingAccessToken
	}
	return token.AccessToken, nil
}

// FetchProfile obtiene el perfil con el access token.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (Profile, error) {
	if strings.TrimSpace(accessToken) == "" {
		return Profile{}, ErrMissingAccessToken
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	client := oauth2.NewClient(c.withHTTPClient(ctx), src)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		return Profile{}, fmt.Errorf("build userinfo request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("google userinfo: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Profile{}, fmt.Errorf("read userinfo response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Profile{}, &UpstreamAuthError{Op: "userinfo", StatusCode: resp.StatusCode, Body: truncate(string(body))}
	}

	var info userInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return Profile{}, fmt.Errorf("decode userinfo response: %w", err)
	}
	return Profile{
		ExternalID:    strings.TrimSpace(info.ID),
		Email:         strings.TrimSpace(info.Email),
		DisplayName:   strings.TrimSpace(info.Name),
		AvatarURL:     strings.TrimSpace(info.Picture),
		EmailVerified: info.VerifiedEmail,
	}, nil
}

// Resolve combina canje y perfil. Un perfil sin id o email es ErrIncompleteProfile.
func (c *Client) Resolve(ctx context.Context, code, redirectURI string) (Profile, error) {
	token, err := c.ExchangeCode(ctx, code, redirectURI)
	if err != nil {
		return Profile{}, err
	}
	profile, err := c.FetchProfile(ctx, token)
	if err != nil {
		return Profile{}, err
	}
	if profile.ExternalID == "" || profile.Email == "" {
		return Profile{}, ErrIncompleteProfile
	}
	return profile, nil
}

// ResolveIdentity colapsa cualquier falla en (Profile{}, false) y deja la causa en el log.
func (c *Client) ResolveIdentity(ctx context.Context, code, redirectURI string) (Profile, bool) {
	profile, err := c.Resolve(ctx, code, redirectURI)
	if err != nil {
		c.logger.Warn("google identity not resolved", zap.Error(err))
		return Profile{}, false
	}
	return profile, true
}

func truncate(s string) string {
	if len(s) <= maxErrorBody {
		return s
	}
	return s[:maxErrorBody]
}
