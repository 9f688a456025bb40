// Package instagram publishes videos to an Instagram account over its private web API.
//
// Sessions are persisted through a sessionstore.Store, so a valid saved session skips the
// login round-trip entirely.
package instagram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/clipforge/clipforge"
	"github.com/clipforge/clipforge/internal/sessionstore"
)

const (
	defaultBaseURL     = "https://www.instagram.com"
	defaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
	defaultHTTPTimeout = 30 * time.Second
)

type Config struct {
	// BaseURL overrides the API endpoint, mostly for testing.
	BaseURL     string
	UserAgent   string
	HTTPTimeout time.Duration
	// Sessions persists login sessions across runs. May be nil, in which case every
	// Authenticate logs in from scratch.
	Sessions sessionstore.Store
}

type Provider struct {
	config Config
	client *http.Client
	log    *zap.SugaredLogger

	mu     sync.Mutex
	tokens map[string]string
}

func New(config Config) *Provider {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.UserAgent == "" {
		config.UserAgent = defaultUserAgent
	}
	if config.HTTPTimeout == 0 {
		config.HTTPTimeout = defaultHTTPTimeout
	}
	return &Provider{
		config: config,
		client: &http.Client{Timeout: config.HTTPTimeout},
		log:    zap.S().Named("instagram"),
		tokens: make(map[string]string),
	}
}

// Authenticate establishes a session for the given credentials, trying a persisted session
// before logging in. The session is cached for later Publish calls.
func (p *Provider) Authenticate(ctx context.Context, creds clipforge.Credentials) error {
	if creds.Username == "" || creds.Password == "" {
		return fmt.Errorf("%w: username and password are required", clipforge.ErrAuth)
	}

	if token := p.savedToken(creds.Username); token != "" {
		if err := p.validate(ctx, token); err == nil {
			p.log.Debugw("reusing saved session", "username", creds.Username)
			p.setToken(creds.Username, token)
			return nil
		}
		p.log.Debugw("saved session rejected, logging in", "username", creds.Username)
	}

	token, err := p.login(ctx, creds)
	if err != nil {
		return fmt.Errorf("%w: %v", clipforge.ErrAuth, err)
	}
	p.setToken(creds.Username, token)

	if p.config.Sessions != nil {
		err := p.config.Sessions.Put(&sessionstore.Session{
			Username:  creds.Username,
			Token:     token,
			UpdatedAt: time.Now(),
		})
		if err != nil {
			// A session that only lives for this process is still usable
			p.log.Warnw("failed to persist session", "username", creds.Username, "error", err)
		}
	}
	return nil
}

// Publish uploads the video with its caption and optional custom thumbnail.
func (p *Provider) Publish(ctx context.Context, creds clipforge.Credentials, req clipforge.PublishRequest) error {
	token := p.token(creds.Username)
	if token == "" {
		return fmt.Errorf("%w: no session, authenticate first", clipforge.ErrPublish)
	}
	if err := p.upload(ctx, token, req); err != nil {
		return fmt.Errorf("%w: %v", clipforge.ErrPublish, err)
	}
	return nil
}

func (p *Provider) savedToken(username string) string {
	if p.config.Sessions == nil {
		return ""
	}
	session, err := p.config.Sessions.Get(username)
	if err != nil {
		p.log.Warnw("failed to load saved session", "username", username, "error", err)
		return ""
	}
	if session == nil {
		return ""
	}
	return session.Token
}

func (p *Provider) token(username string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tokens[username]
}

func (p *Provider) setToken(username, token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens[username] = token
}

// validate checks a saved session token against the account endpoint.
func (p *Provider) validate(ctx context.Context, token string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.BaseURL+"/api/v1/accounts/current_user/", nil)
	if err != nil {
		return err
	}
	p.addHeaders(httpReq, token)
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("session check failed: %s", resp.Status)
	}
	return nil
}

type loginResponse struct {
	Authenticated bool   `json:"authenticated"`
	SessionID     string `json:"session_id"`
	Message       string `json:"message"`
}

func (p *Provider) login(ctx context.Context, creds clipforge.Credentials) (string, error) {
	form := url.Values{
		"username": {creds.Username},
		"password": {creds.Password},
	}
	body := strings.NewReader(form.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/api/v1/accounts/login/", body)
	if err != nil {
		return "", err
	}
	p.addHeaders(httpReq, "")
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed: %s", resp.Status)
	}

	var parsed loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("login response: %w", err)
	}
	if !parsed.Authenticated || parsed.SessionID == "" {
		if parsed.Message != "" {
			return "", fmt.Errorf("login rejected: %s", parsed.Message)
		}
		return "", fmt.Errorf("login rejected")
	}
	return parsed.SessionID, nil
}

func (p *Provider) upload(ctx context.Context, token string, req clipforge.PublishRequest) error {
	buf := &bytes.Buffer{}
	form := multipart.NewWriter(buf)
	if err := addFilePart(form, "video", req.VideoPath); err != nil {
		return err
	}
	if req.ThumbnailPath != "" {
		if err := addFilePart(form, "thumbnail", req.ThumbnailPath); err != nil {
			return err
		}
	}
	if err := form.WriteField("caption", req.Caption); err != nil {
		return err
	}
	if err := form.Close(); err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/api/v1/media/upload/", buf)
	if err != nil {
		return err
	}
	p.addHeaders(httpReq, token)
	httpReq.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("upload failed: %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}
	return nil
}

func (p *Provider) addHeaders(req *http.Request, token string) {
	req.Header.Set("User-Agent", p.config.UserAgent)
	if token != "" {
		req.Header.Set("Cookie", fmt.Sprintf("sessionid=%s", token))
	}
}

func addFilePart(form *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	part, err := form.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}
