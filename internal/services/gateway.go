// Playback gateway implementation of [SessionService]
//
// Communicates with a librespot-compatible gateway daemon over HTTP. The
// daemon owns the authenticated-session protocol (handshake, key exchange,
// audio transport); this client only drives its REST surface.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotgrab/internal/shared"
	"github.com/desertthunder/spotgrab/internal/track"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	defaultGatewayURL = "http://127.0.0.1:24879"

	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// Authorizer runs an interactive OAuth2 authorization-code flow and returns
// the resulting token. The CLI injects an implementation that opens a browser
// and hosts the local callback server.
type Authorizer func(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error)

// GatewayOpts configures a [GatewayService].
type GatewayOpts struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	RateLimit    float64 // metadata requests per second, <= 0 disables limiting
	HTTPClient   *http.Client
	Logger       *log.Logger
	Authorize    Authorizer
}

// GatewayService implements [SessionService] over the gateway's HTTP surface.
type GatewayService struct {
	baseURL    string
	oauth      *oauth2.Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
	authorize  Authorizer
}

// NewGatewayService creates a gateway client from the given options.
func NewGatewayService(opts GatewayOpts) *GatewayService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultGatewayURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	oauthConfig := &oauth2.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		RedirectURL:  opts.RedirectURI,
		Scopes:       []string{"streaming", "user-read-private"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &GatewayService{
		baseURL:    opts.BaseURL,
		oauth:      oauthConfig,
		httpClient: opts.HTTPClient,
		limiter:    limiter,
		logger:     opts.Logger,
		authorize:  opts.Authorize,
	}
}

func (g *GatewayService) Name() string {
	return "playback-gateway"
}

// OAuthConfig exposes the OAuth client configuration for the CLI's callback server.
func (g *GatewayService) OAuthConfig() *oauth2.Config {
	return g.oauth
}

// sessionResponse is the gateway's reply to both authentication endpoints.
type sessionResponse struct {
	SessionID string `json:"session_id"`
	Username  string `json:"username"`
}

// Authenticate establishes a session from the given credential source.
//
// StoredFile posts the credential file body unchanged; the gateway performs
// its own shape detection, but the file is decoded locally first so an
// unreadable or malformed file is reported as a local error rather than a
// remote rejection. Interactive blocks on the injected [Authorizer].
func (g *GatewayService) Authenticate(ctx context.Context, source CredentialSource) (Session, error) {
	switch source.Kind {
	case StoredFile:
		return g.authenticateStored(ctx, source.Path)
	case Interactive:
		return g.authenticateInteractive(ctx)
	default:
		return nil, fmt.Errorf("%w: unknown credential kind %d", shared.ErrInvalidArgument, source.Kind)
	}
}

func (g *GatewayService) authenticateStored(ctx context.Context, path string) (Session, error) {
	data, err := shared.VerifyAndReadFile(path)
	if err != nil {
		return nil, err
	}

	creds, err := DecodeStoredCredentials(data)
	if err != nil {
		return nil, err
	}

	g.logger.Info("authenticating with stored credentials", "username", creds.Username, "shape", creds.Shape)

	resp, err := g.postSession(ctx, "/session", data)
	if err != nil {
		return nil, err
	}

	g.logger.Info("session created with stored credentials", "username", resp.Username)
	return g.newSession(resp), nil
}

func (g *GatewayService) authenticateInteractive(ctx context.Context) (Session, error) {
	if g.authorize == nil {
		return nil, fmt.Errorf("%w: no interactive authorizer configured", shared.ErrNotAuthenticated)
	}

	g.logger.Info("starting interactive OAuth flow, a browser window will open")

	token, err := g.authorize(ctx, g.oauth)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthRejected, err)
	}

	body, err := json.Marshal(map[string]string{"access_token": token.AccessToken})
	if err != nil {
		return nil, fmt.Errorf("failed to encode token: %w", err)
	}

	resp, err := g.postSession(ctx, "/session/oauth", body)
	if err != nil {
		return nil, err
	}

	g.logger.Info("session created with OAuth", "username", resp.Username)
	return g.newSession(resp), nil
}

func (g *GatewayService) postSession(ctx context.Context, endpoint string, body []byte) (*sessionResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: gateway unreachable: %v", shared.ErrAuthRejected, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: status %d", shared.ErrAuthRejected, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: gateway error: status %d", shared.ErrAuthRejected, resp.StatusCode)
	}

	var session sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("failed to decode session response: %w", err)
	}
	if session.SessionID == "" {
		return nil, fmt.Errorf("%w: gateway returned empty session id", shared.ErrAuthRejected)
	}

	return &session, nil
}

func (g *GatewayService) newSession(resp *sessionResponse) *gatewaySession {
	return &gatewaySession{
		service:   g,
		sessionID: resp.SessionID,
		username:  resp.Username,
	}
}

// gatewaySession implements [Session] for one authenticated gateway session.
type gatewaySession struct {
	service   *GatewayService
	sessionID string
	username  string
}

func (s *gatewaySession) Username() string {
	return s.username
}

// TrackMetadata fetches the metadata snapshot for the given track id.
func (s *gatewaySession) TrackMetadata(ctx context.Context, id track.ID) (*track.Metadata, error) {
	g := s.service
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrMetadataFetch, err)
		}
	}

	endpoint := fmt.Sprintf("%s/session/%s/metadata/track/%s", g.baseURL, s.sessionID, id.Hex())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMetadataFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", shared.ErrMetadataFetch, resp.StatusCode)
	}

	var meta track.Metadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("%w: failed to decode metadata: %v", shared.ErrMetadataFetch, err)
	}

	return &meta, nil
}

// OpenStream opens the audio byte stream for the selected descriptor.
//
// The response body is returned unread; the caller owns draining it. Key
// metrics are read from the gateway's response headers.
func (s *gatewaySession) OpenStream(ctx context.Context, id track.ID, file track.AudioFile, opts StreamOptions) (*AudioStream, error) {
	if err := file.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStreamOpen, err)
	}

	g := s.service

	query := url.Values{}
	query.Set("track", id.Hex())
	query.Set("format", strconv.Itoa(int(file.Format)))
	query.Set("preload", strconv.FormatBool(opts.Preload))

	endpoint := fmt.Sprintf("%s/session/%s/audio/%s?%s", g.baseURL, s.sessionID, file.FileID, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStreamOpen, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", shared.ErrStreamOpen, resp.StatusCode)
	}

	metrics := StreamMetrics{}
	if ms, err := strconv.Atoi(resp.Header.Get("X-Audio-Key-Time-Ms")); err == nil {
		metrics.KeyFetchTime = time.Duration(ms) * time.Millisecond
	}
	if preloaded, err := strconv.ParseBool(resp.Header.Get("X-Audio-Key-Preloaded")); err == nil {
		metrics.PreloadedKey = preloaded
	}

	g.logger.Debug("content stream opened",
		"file_id", file.FileID,
		"format", file.Format.String(),
		"key_fetch_time", metrics.KeyFetchTime,
		"preloaded", metrics.PreloadedKey,
	)

	return NewAudioStream(resp.Body, file.Format, file.FileID, metrics, opts.Halt), nil
}

// Close releases the gateway session. Errors are advisory; the gateway
// expires sessions on its own.
func (s *gatewaySession) Close() error {
	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/session/%s", s.service.baseURL, s.sessionID), nil)
	if err != nil {
		return err
	}

	resp, err := s.service.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
