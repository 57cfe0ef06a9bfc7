// Package nocodb implements the identity store on a NocoDB table through its
// v2 REST API.
package nocodb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bumpbot/domain/entities"
	domainerrors "bumpbot/domain/errors"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 5.0

	tokenHeader     = "xc-token"
	maxErrorBodyLen = 512
)

// Observer receives the duration and result of every store call
type Observer interface {
	RecordStoreCall(ctx context.Context, operation string, duration time.Duration, err error)
}

type Config struct {
	BaseURL   string
	APIToken  string
	TableID   string
	Timeout   time.Duration
	RateLimit float64 // requests per second, zero or less disables limiting
}

// Client talks to one NocoDB table. Calls are never retried: a failure is
// returned to the caller as a *errors.StoreError.
type Client struct {
	http     *http.Client
	baseURL  string
	token    string
	tableID  string
	limiter  *rate.Limiter
	observer Observer
	now      func() time.Time
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) { client.http = c }
}

// WithObserver reports call timings to o
func WithObserver(o Observer) Option {
	return func(client *Client) { client.observer = o }
}

func NewClient(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	limit := rate.Inf
	burst := 1
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
		burst = max(1, int(cfg.RateLimit))
	}

	c := &Client{
		http:    newHTTPClient(timeout),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.APIToken,
		tableID: cfg.TableID,
		limiter: rate.NewLimiter(limit, burst),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// record is a table row as returned by the API
type record struct {
	ID                int64      `json:"Id"`
	DiscordID         flexString `json:"discord_id"`
	DiscordUsername   string     `json:"discord_username"`
	MinecraftUsername string     `json:"minecraft_username"`
	CreatedAt         string     `json:"created_at"`
	UpdatedAt         string     `json:"updated_at"`
}

func (r record) toDomain() *entities.MemberRecord {
	return &entities.MemberRecord{
		RecordID:     r.ID,
		DiscordID:    string(r.DiscordID),
		DiscordTag:   r.DiscordUsername,
		GameUsername: r.MinecraftUsername,
		CreatedAt:    parseTimestamp(r.CreatedAt),
		UpdatedAt:    parseTimestamp(r.UpdatedAt),
	}
}

type listResponse struct {
	List []record `json:"list"`
}

type idResponse struct {
	ID int64 `json:"Id"`
}

// FindByExternalID returns the first row whose discord_id equals discordID,
// or nil when there is none
func (c *Client) FindByExternalID(ctx context.Context, discordID string) (*entities.MemberRecord, error) {
	query := url.Values{}
	query.Set("where", fmt.Sprintf("(discord_id,eq,%s)", discordID))
	query.Set("limit", "1")

	var resp listResponse
	if err := c.do(ctx, "find", http.MethodGet, c.recordsURL()+"?"+query.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.List) == 0 {
		return nil, nil
	}
	return resp.List[0].toDomain(), nil
}

// Create inserts a row for the member
func (c *Client) Create(ctx context.Context, discordID, discordTag, gameUsername string) (*entities.MemberRecord, error) {
	now := c.now().UTC()
	body := map[string]any{
		"discord_id":         discordID,
		"discord_username":   discordTag,
		"minecraft_username": gameUsername,
		"created_at":         now.Format(time.RFC3339),
	}

	var resp idResponse
	if err := c.do(ctx, "create", http.MethodPost, c.recordsURL(), body, &resp); err != nil {
		return nil, err
	}
	return &entities.MemberRecord{
		RecordID:     resp.ID,
		DiscordID:    discordID,
		DiscordTag:   discordTag,
		GameUsername: gameUsername,
		CreatedAt:    now,
	}, nil
}

// Update patches the game username of row recordID
func (c *Client) Update(ctx context.Context, recordID int64, gameUsername string) (*entities.MemberRecord, error) {
	now := c.now().UTC()
	body := map[string]any{
		"minecraft_username": gameUsername,
		"updated_at":         now.Format(time.RFC3339),
	}

	endpoint := c.recordsURL() + "/" + strconv.FormatInt(recordID, 10)
	var resp idResponse
	if err := c.do(ctx, "update", http.MethodPatch, endpoint, body, &resp); err != nil {
		return nil, err
	}
	return &entities.MemberRecord{
		RecordID:     recordID,
		GameUsername: gameUsername,
		UpdatedAt:    now,
	}, nil
}

// Ping checks that the table is reachable with the configured token
func (c *Client) Ping(ctx context.Context) error {
	var resp listResponse
	return c.do(ctx, "ping", http.MethodGet, c.recordsURL()+"?limit=1", nil, &resp)
}

func (c *Client) recordsURL() string {
	return fmt.Sprintf("%s/api/v2/tables/%s/records", c.baseURL, url.PathEscape(c.tableID))
}

func (c *Client) do(ctx context.Context, op, method, endpoint string, body, out any) (err error) {
	start := c.now()
	defer func() {
		if c.observer != nil {
			c.observer.RecordStoreCall(ctx, op, c.now().Sub(start), err)
		}
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return domainerrors.NewStoreError(op, 0, fmt.Errorf("rate limiter: %w", err))
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return domainerrors.NewStoreError(op, 0, fmt.Errorf("failed to encode request: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return domainerrors.NewStoreError(op, 0, fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set(tokenHeader, c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domainerrors.NewStoreError(op, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		return domainerrors.NewStoreError(op, resp.StatusCode, errors.New(strings.TrimSpace(string(snippet))))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domainerrors.NewStoreError(op, resp.StatusCode, fmt.Errorf("failed to decode response: %w", err))
	}

	log.WithFields(log.Fields{
		"operation": op,
		"status":    resp.StatusCode,
	}).Debug("NocoDB call completed")
	return nil
}

// flexString accepts a JSON string or number, since discord_id may be stored
// in a numeric column
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

func parseTimestamp(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
