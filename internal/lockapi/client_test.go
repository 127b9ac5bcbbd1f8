package lockapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testclock "k8s.io/utils/clock/testing"

	"github.com/pickarooms/reservations-server/internal/booking"
	"github.com/pickarooms/reservations-server/internal/config"
	"github.com/pickarooms/reservations-server/internal/httpclient"
)

var now = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewHTTPClient(server.URL+"/v3/", "client-1", "token-1",
		httpclient.NewDefaultClient(time.Second), testclock.NewFakePassiveClock(now))
}

func TestAddCode(t *testing.T) {
	t.Parallel()

	from := now
	until := time.Date(2025, time.June, 4, 0, 0, 0, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/keyboardPwd/add", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client-1", r.PostForm.Get("clientId"))
		assert.Equal(t, "token-1", r.PostForm.Get("accessToken"))
		assert.Equal(t, "1748779200000", r.PostForm.Get("date"))
		assert.Equal(t, "4242", r.PostForm.Get("lockId"))
		assert.Equal(t, "2580", r.PostForm.Get("keyboardPwd"))
		assert.Equal(t, "3", r.PostForm.Get("keyboardPwdType"))
		assert.Equal(t, "1748779200000", r.PostForm.Get("startDate"))
		assert.Equal(t, "1748995200000", r.PostForm.Get("endDate"))
		assert.Equal(t, "#5012345678", r.PostForm.Get("keyboardPwdName"))
		_, _ = w.Write([]byte(`{"keyboardPwdId": 991}`))
	})

	id, err := c.AddCode(context.Background(), AddCodeRequest{
		LockID:     4242,
		Code:       "2580",
		Name:       "#5012345678",
		ValidFrom:  from,
		ValidUntil: until,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(991), id)
}

func TestDeleteCode(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/keyboardPwd/delete", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "4242", r.PostForm.Get("lockId"))
		assert.Equal(t, "991", r.PostForm.Get("keyboardPwdId"))
		_, _ = w.Write([]byte(`{"errcode": 0, "errmsg": "none error message"}`))
	})

	require.NoError(t, c.DeleteCode(context.Background(), 4242, 991))
}

func TestClientErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		reply func(w http.ResponseWriter)
		check func(t *testing.T, err error)
	}{
		{
			name: "vendor error code",
			reply: func(w http.ResponseWriter) {
				_, _ = w.Write([]byte(`{"errcode": -3007, "errmsg": "lock is offline"}`))
			},
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, int64(-3007), apiErr.Code)
				assert.Equal(t, "lock is offline", apiErr.Message)
			},
		},
		{
			name: "not json",
			reply: func(w http.ResponseWriter) {
				_, _ = w.Write([]byte(`<html>maintenance</html>`))
			},
			check: func(t *testing.T, err error) {
				assert.True(t, booking.IsMalformed(err))
			},
		},
		{
			name: "missing handle",
			reply: func(w http.ResponseWriter) {
				_, _ = w.Write([]byte(`{"errcode": 0}`))
			},
			check: func(t *testing.T, err error) {
				assert.True(t, booking.IsMalformed(err))
			},
		},
		{
			name: "server error",
			reply: func(w http.ResponseWriter) {
				w.WriteHeader(http.StatusBadGateway)
			},
			check: func(t *testing.T, err error) {
				assert.True(t, booking.IsTransient(err))
			},
		},
		{
			name: "rejected request",
			reply: func(w http.ResponseWriter) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			check: func(t *testing.T, err error) {
				assert.False(t, booking.IsTransient(err))
				var httpErr *httpclient.HTTPError
				assert.True(t, errors.As(err, &httpErr))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				tt.reply(w)
			})
			_, err := c.AddCode(context.Background(), AddCodeRequest{LockID: 1, Code: "2580"})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	_, err := NewFromConfig(nil)
	require.Error(t, err)

	tokenFile := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(tokenFile, []byte("secret\n"), 0o600))
	c, err := NewFromConfig(&config.LocksConfig{
		Endpoint:        "https://locks.example.com/v3",
		ClientID:        "client-1",
		AccessTokenFile: tokenFile,
	})
	require.NoError(t, err)
	assert.Equal(t, "secret", c.accessToken)
	assert.Equal(t, "https://locks.example.com/v3", c.endpoint)
}
