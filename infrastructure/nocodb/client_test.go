package nocodb

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	domainerrors "bumpbot/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testToken = "secret-token"
	testTable = "tbl123"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Token  string
	Body   map[string]any
}

type fakeNocoDB struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	response string
}

func (f *fakeNocoDB) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query().Get("where"),
		Token:  r.Header.Get(tokenHeader),
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req.Body)
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	status, response := f.status, f.response
	f.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(response))
}

func (f *fakeNocoDB) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func (f *fakeNocoDB) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
	errs  []error
}

func (o *recordingObserver) RecordStoreCall(_ context.Context, operation string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, operation)
	o.errs = append(o.errs, err)
}

func newTestClient(t *testing.T, fake *fakeNocoDB, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client := NewClient(Config{
		BaseURL:  server.URL + "/",
		APIToken: testToken,
		TableID:  testTable,
		Timeout:  2 * time.Second,
	}, opts...)
	client.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return client
}

func TestClient_FindByExternalID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		response string
		wantNil  bool
		wantID   int64
		wantUser string
	}{
		{
			name:     "first match is returned",
			response: `{"list":[{"Id":7,"discord_id":"111","discord_username":"steve","minecraft_username":"Steve","created_at":"2025-05-01 10:00:00+00:00","updated_at":null}],"pageInfo":{"totalRows":1}}`,
			wantID:   7,
			wantUser: "Steve",
		},
		{
			name:     "numeric discord id column",
			response: `{"list":[{"Id":8,"discord_id":111,"minecraft_username":"Alex"}]}`,
			wantID:   8,
			wantUser: "Alex",
		},
		{
			name:     "no rows is absent, not an error",
			response: `{"list":[],"pageInfo":{"totalRows":0}}`,
			wantNil:  true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fake := &fakeNocoDB{response: tt.response}
			client := newTestClient(t, fake)

			record, err := client.FindByExternalID(context.Background(), "111")
			require.NoError(t, err)

			req := fake.last()
			assert.Equal(t, http.MethodGet, req.Method)
			assert.Equal(t, "/api/v2/tables/tbl123/records", req.Path)
			assert.Equal(t, "(discord_id,eq,111)", req.Query)
			assert.Equal(t, testToken, req.Token)

			if tt.wantNil {
				assert.Nil(t, record)
				return
			}
			require.NotNil(t, record)
			assert.Equal(t, tt.wantID, record.RecordID)
			assert.Equal(t, "111", record.DiscordID)
			assert.Equal(t, tt.wantUser, record.GameUsername)
		})
	}
}

func TestClient_FindParsesTimestamps(t *testing.T) {
	t.Parallel()

	fake := &fakeNocoDB{response: `{"list":[{"Id":1,"discord_id":"1","minecraft_username":"Steve","created_at":"2025-05-01 10:00:00+00:00","updated_at":"2025-05-02T11:30:00.000Z"}]}`}
	client := newTestClient(t, fake)

	record, err := client.FindByExternalID(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC), record.CreatedAt)
	assert.Equal(t, time.Date(2025, 5, 2, 11, 30, 0, 0, time.UTC), record.UpdatedAt)
}

func TestClient_Create(t *testing.T) {
	t.Parallel()

	fake := &fakeNocoDB{response: `{"Id":42}`}
	client := newTestClient(t, fake)

	record, err := client.Create(context.Background(), "111", "steve", "Steve")
	require.NoError(t, err)

	assert.Equal(t, int64(42), record.RecordID)
	assert.Equal(t, "Steve", record.GameUsername)

	req := fake.last()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/v2/tables/tbl123/records", req.Path)
	assert.Equal(t, map[string]any{
		"discord_id":         "111",
		"discord_username":   "steve",
		"minecraft_username": "Steve",
		"created_at":         "2025-06-01T12:00:00Z",
	}, req.Body)
}

func TestClient_Update(t *testing.T) {
	t.Parallel()

	fake := &fakeNocoDB{response: `{"Id":42}`}
	client := newTestClient(t, fake)

	record, err := client.Update(context.Background(), 42, "Alex")
	require.NoError(t, err)

	assert.Equal(t, int64(42), record.RecordID)
	assert.Equal(t, "Alex", record.GameUsername)

	req := fake.last()
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, "/api/v2/tables/tbl123/records/42", req.Path)
	assert.Equal(t, "Alex", req.Body["minecraft_username"])
	assert.Equal(t, "2025-06-01T12:00:00Z", req.Body["updated_at"])
	assert.NotContains(t, req.Body, "discord_id")
}

func TestClient_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		response   string
		call       func(c *Client) error
		wantStatus int
	}{
		{
			name:     "unauthorized lookup",
			status:   http.StatusUnauthorized,
			response: `{"msg":"Invalid token"}`,
			call: func(c *Client) error {
				_, err := c.FindByExternalID(context.Background(), "1")
				return err
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:     "rejected insert",
			status:   http.StatusBadRequest,
			response: `{"msg":"bad column"}`,
			call: func(c *Client) error {
				_, err := c.Create(context.Background(), "1", "a", "Steve")
				return err
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:     "garbled body",
			response: `not json`,
			call: func(c *Client) error {
				_, err := c.Update(context.Background(), 1, "Steve")
				return err
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fake := &fakeNocoDB{status: tt.status, response: tt.response}
			observer := &recordingObserver{}
			client := newTestClient(t, fake, WithObserver(observer))

			err := tt.call(client)
			require.Error(t, err)

			var storeErr *domainerrors.StoreError
			require.True(t, errors.As(err, &storeErr))
			assert.Equal(t, tt.wantStatus, storeErr.StatusCode)
			require.Len(t, observer.errs, 1)
			assert.Error(t, observer.errs[0])
			assert.Equal(t, 1, fake.count(), "failures are not retried")
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(server.Close)

	client := NewClient(Config{BaseURL: server.URL, APIToken: testToken, TableID: testTable, Timeout: 50 * time.Millisecond})

	_, err := client.FindByExternalID(context.Background(), "1")
	require.Error(t, err)
	assert.True(t, domainerrors.IsStore(err))
}

func TestClient_CanceledContext(t *testing.T) {
	t.Parallel()

	fake := &fakeNocoDB{response: `{"list":[]}`}
	client := newTestClient(t, fake)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FindByExternalID(ctx, "1")
	require.Error(t, err)
	assert.True(t, domainerrors.IsStore(err))
}
