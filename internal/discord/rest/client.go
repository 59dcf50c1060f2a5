// Package rest is a minimal client for the platform's HTTP API: command
// catalog reads and bulk overwrites, and interaction webhook messages.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/louisbranch/commandeer/internal/discord"
)

// DefaultBaseURL is the versioned API root.
const DefaultBaseURL = "https://discord.com/api/v10"

const userAgent = "DiscordBot (https://github.com/louisbranch/commandeer, 1.0)"

// APIError is a non-2xx API response.
type APIError struct {
	Method     string
	Path       string
	Status     int
	Code       int
	Message    string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s returned %d", e.Method, e.Path, e.Status)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Code != 0 {
		msg += " (code " + strconv.Itoa(e.Code) + ")"
	}
	return msg
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// WithLimiter throttles outbound requests.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) { c.limiter = limiter }
}

// Client calls the platform HTTP API.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	limiter *rate.Limiter
}

// New creates a client authenticating with a bot token.
func New(baseURL, token string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(50), 10),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func commandsPath(appID, guildID string) string {
	if guildID != "" {
		return "/applications/" + appID + "/guilds/" + guildID + "/commands"
	}
	return "/applications/" + appID + "/commands"
}

// ListCommands returns the published commands, globally or for one guild.
// Localization maps are only included when explicitly requested, so they are
// always asked for to keep the listing comparable with local definitions.
func (c *Client) ListCommands(ctx context.Context, appID, guildID string) ([]discord.ApplicationCommand, error) {
	var out []discord.ApplicationCommand
	path := commandsPath(appID, guildID) + "?with_localizations=true"
	if err := c.doJSON(ctx, http.MethodGet, path, true, nil, &out); err != nil {
		return nil, fmt.Errorf("list commands: %w", err)
	}
	return out, nil
}

// OverwriteCommands replaces every published command in one request.
func (c *Client) OverwriteCommands(ctx context.Context, appID, guildID string, cmds []discord.ApplicationCommand) ([]discord.ApplicationCommand, error) {
	if cmds == nil {
		cmds = []discord.ApplicationCommand{}
	}
	var out []discord.ApplicationCommand
	if err := c.doJSON(ctx, http.MethodPut, commandsPath(appID, guildID), true, cmds, &out); err != nil {
		return nil, fmt.Errorf("overwrite commands: %w", err)
	}
	return out, nil
}

// EditOriginal edits the initial reply of an interaction.
func (c *Client) EditOriginal(ctx context.Context, appID, interactionToken string, data discord.MessageData) error {
	path := "/webhooks/" + appID + "/" + interactionToken + "/messages/@original"
	if err := c.doMessage(ctx, http.MethodPatch, path, data); err != nil {
		return fmt.Errorf("edit original response: %w", err)
	}
	return nil
}

// CreateFollowup sends an additional message for an interaction.
func (c *Client) CreateFollowup(ctx context.Context, appID, interactionToken string, data discord.MessageData) error {
	path := "/webhooks/" + appID + "/" + interactionToken
	if err := c.doMessage(ctx, http.MethodPost, path, data); err != nil {
		return fmt.Errorf("create followup: %w", err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, auth bool, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := c.newRequest(ctx, method, path, auth, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) doMessage(ctx context.Context, method, path string, data discord.MessageData) error {
	if len(data.Files) == 0 {
		return c.doJSON(ctx, method, path, false, data, nil)
	}
	data = data.WithAttachments()
	body, contentType, err := discord.EncodeMultipart(data, data.Files)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, method, path, false, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	return c.do(req, nil)
}

func (c *Client) newRequest(ctx context.Context, method, path string, auth bool, body io.Reader) (*http.Request, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if auth {
		req.Header.Set("Authorization", "Bot "+c.token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(req, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(req *http.Request, resp *http.Response) error {
	apiErr := &APIError{
		Method: req.Method,
		Path:   req.URL.Path,
		Status: resp.StatusCode,
	}
	var body struct {
		Code       int     `json:"code"`
		Message    string  `json:"message"`
		RetryAfter float64 `json:"retry_after"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &body); err == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
		apiErr.RetryAfter = time.Duration(body.RetryAfter * float64(time.Second))
	} else if text := strings.TrimSpace(string(raw)); text != "" {
		apiErr.Message = text
	}
	return apiErr
}

// IsNotFound reports whether err is a 404 API response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
