package tune

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogAdapter_RedactsSecret(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	adapter := &slogAdapter{
		logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})),
		secret: testAPIKey,
	}

	u, _ := url.Parse("https://api.example.test/v2/x.json?api_key=" + testAPIKey)
	adapter.Debug("retrying request", "request", "GET "+u.String(), "remaining", 2)
	adapter.Error("request failed", "error", errors.New("dial "+u.String()), "url", u)
	adapter.Warn("warn", "n", 1)
	adapter.Info("info")

	out := buf.String()
	assert.NotContains(t, out, testAPIKey)
	assert.Contains(t, out, "api_key=REDACTED")
	assert.Contains(t, out, "remaining=2")
	assert.Contains(t, out, "level=WARN")
}

func TestSlogAdapter_RedactsEscapedSessionToken(t *testing.T) {
	t.Parallel()

	const token = "tok+en/with=chars"
	var buf bytes.Buffer
	adapter := &slogAdapter{
		logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})),
		secret: token,
	}

	q := url.Values{"session_token": {token}}
	u := "https://api.example.test/v2/x.json?" + q.Encode()
	adapter.Debug("performing request", "method", "GET", "url", u)
	adapter.Error("request failed", "error", errors.New("dial "+u))

	out := buf.String()
	assert.NotContains(t, out, token)
	assert.NotContains(t, out, url.QueryEscape(token))
	assert.Contains(t, out, "session_token=REDACTED")
}

func TestClient_DebugLogHidesSessionToken(t *testing.T) {
	t.Parallel()

	const token = "tok+en/with=chars"
	server := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, token, r.URL.Query().Get("session_token"))
		writeEnvelope(w, 200, "3")
	})

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	client, err := NewClient(token,
		WithBaseURL(server.URL),
		WithAuthType(AuthTypeSessionToken),
		WithLogger(logger),
	)
	require.NoError(t, err)

	_, err = client.LogClicksReport().Count(context.Background(), testParams())
	require.NoError(t, err)

	out := buf.String()
	assert.NotEmpty(t, out)
	assert.NotContains(t, out, token)
	assert.NotContains(t, out, url.QueryEscape(token))
}

func TestSlogAdapter_NoSecret(t *testing.T) {
	t.Parallel()

	values := []interface{}{"k", "v"}
	adapter := &slogAdapter{logger: discardLogger()}
	assert.Equal(t, values, adapter.scrub(values))
}
