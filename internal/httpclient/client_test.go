package httpclient_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pickarooms/reservations-server/internal/httpclient"
)

const calendarBody = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nEND:VCALENDAR\r\n"

// newTestServer disables keep-alives so closing one server never disturbs
// parallel tests sharing the default transport
func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	server.Config.SetKeepAlivesEnabled(false)
	t.Cleanup(server.Close)
	return server
}

func TestDefaultClientGet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		handler   http.HandlerFunc
		opts      []httpclient.Option
		want      string
		wantErr   bool
		retryable bool
		status    int
	}{
		{
			name: "calendar feed",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/calendar")
				_, _ = io.WriteString(w, calendarBody)
			},
			opts: []httpclient.Option{httpclient.WithAccept("text/calendar")},
			want: calendarBody,
		},
		{
			name:    "empty feed",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) },
			want:    "",
		},
		{
			name: "feed removed upstream",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "calendar not found", http.StatusNotFound)
			},
			wantErr: true,
			status:  http.StatusNotFound,
		},
		{
			name: "channel throttling",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "slow down", http.StatusTooManyRequests)
			},
			wantErr:   true,
			retryable: true,
			status:    http.StatusTooManyRequests,
		},
		{
			name: "channel outage",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "maintenance", http.StatusServiceUnavailable)
			},
			wantErr:   true,
			retryable: true,
			status:    http.StatusServiceUnavailable,
		},
		{
			name: "body above limit",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, strings.Repeat("X", 64))
			},
			opts:    []httpclient.Option{httpclient.WithMaxResponseSize(16)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := newTestServer(t, tt.handler)
			client := httpclient.NewDefaultClient(5*time.Second, tt.opts...)

			body, err := client.Get(context.Background(), server.URL+"/room-1.ics")
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, tt.want, string(body))
				return
			}

			require.Error(t, err)
			assert.Nil(t, body)
			assert.Equal(t, tt.retryable, httpclient.IsRetryable(err))

			var httpErr *httpclient.HTTPError
			if tt.status != 0 {
				require.ErrorAs(t, err, &httpErr)
				assert.Equal(t, tt.status, httpErr.StatusCode)
				assert.Contains(t, httpErr.URL, "/room-1.ics")
			} else {
				var sizeErr *httpclient.SizeLimitError
				assert.ErrorAs(t, err, &sizeErr)
			}
		})
	}
}

func TestDefaultClientSendsHeaders(t *testing.T) {
	t.Parallel()

	headers := make(chan http.Header, 1)
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	})

	client := httpclient.NewDefaultClient(0, httpclient.WithAccept("text/calendar"))
	_, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)

	got := <-headers
	assert.Equal(t, httpclient.UserAgent, got.Get("User-Agent"))
	assert.Equal(t, "text/calendar", got.Get("Accept"))
}

func TestDefaultClientPostForm(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "41001", r.PostForm.Get("lockId"))
		assert.Equal(t, "482913", r.PostForm.Get("keyboardPwd"))
		_, _ = io.WriteString(w, `{"keyboardPwdId":7}`)
	})

	client := httpclient.NewDefaultClient(5 * time.Second)
	body, err := client.PostForm(context.Background(), server.URL+"/v3/keyboardPwd/add", url.Values{
		"lockId":      {"41001"},
		"keyboardPwd": {"482913"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"keyboardPwdId":7}`, string(body))
}

func TestDefaultClientHonoursDeadlines(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	})
	t.Cleanup(func() { close(release) })

	t.Run("client timeout", func(t *testing.T) {
		client := httpclient.NewDefaultClient(50 * time.Millisecond)
		_, err := client.Get(context.Background(), server.URL)
		require.Error(t, err)
		assert.True(t, httpclient.IsRetryable(err))
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		client := httpclient.NewDefaultClient(5 * time.Second)
		_, err := client.Get(ctx, server.URL)
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestDefaultClientUnreachableHost(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	client := httpclient.NewDefaultClient(time.Second)
	_, err := client.Get(context.Background(), addr)
	require.Error(t, err)
	assert.True(t, httpclient.IsRetryable(err))
}

func TestWithHTTPClientKeepsTimeout(t *testing.T) {
	t.Parallel()

	seen := make(chan string, 1)
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	})

	authed := &http.Client{Transport: bearerTransport{token: "secret"}}
	client := httpclient.NewDefaultClient(time.Second, httpclient.WithHTTPClient(authed))
	_, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", <-seen)
	assert.Equal(t, time.Second, authed.Timeout)
}

type bearerTransport struct {
	token string
}

func (b bearerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("Authorization", "Bearer "+b.token)
	return http.DefaultTransport.RoundTrip(r)
}
