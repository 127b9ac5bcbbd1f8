package common

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAndValidateURLParam(t *testing.T) {
	t.Parallel()

	routerTests := []struct {
		name       string
		paramValue string
		wantValue  string
		wantErrMsg string
	}{
		{name: "plain reference", paramValue: "5551234567", wantValue: "5551234567"},
		{name: "feed name", paramValue: "villa-1%2Fairbnb", wantValue: "villa-1/airbnb"},
		{name: "url-encoded hash", paramValue: "%235551234567", wantValue: "#5551234567"},
		{name: "double-encoded percent", paramValue: "a%2525b", wantValue: "a%b"},
		{name: "empty", paramValue: "", wantErrMsg: "id cannot be empty"},
		{name: "encoded spaces only", paramValue: "%20%20", wantErrMsg: "id cannot be empty"},
		{name: "encoded tab only", paramValue: "%09", wantErrMsg: "id cannot be empty"},
		{name: "space in middle", paramValue: "555%20123", wantErrMsg: "id cannot contain whitespace"},
		{name: "newline at end", paramValue: "555%0A", wantErrMsg: "id cannot contain whitespace"},
	}

	for _, tt := range routerTests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			called := false
			router := chi.NewRouter()
			router.Get("/{id}", func(_ http.ResponseWriter, r *http.Request) {
				called = true
				value, err := GetAndValidateURLParam(r, "id")
				if tt.wantErrMsg != "" {
					require.Error(t, err)
					assert.Equal(t, tt.wantErrMsg, err.Error())
					return
				}
				require.NoError(t, err)
				assert.Equal(t, tt.wantValue, value)
			})
			router.Get("/", func(_ http.ResponseWriter, r *http.Request) {
				called = true
				_, err := GetAndValidateURLParam(r, "id")
				require.Error(t, err)
				assert.Equal(t, tt.wantErrMsg, err.Error())
			})

			req := httptest.NewRequest(http.MethodGet, "/"+tt.paramValue, nil)
			router.ServeHTTP(httptest.NewRecorder(), req)
			assert.True(t, called)
		})
	}

	directTests := []struct {
		name       string
		paramValue string
	}{
		{name: "incomplete escape", paramValue: "ref%2"},
		{name: "invalid hex", paramValue: "ref%ZZ"},
		{name: "trailing percent", paramValue: "ref%"},
	}

	for _, tt := range directTests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := withURLParam(httptest.NewRequest(http.MethodGet, "/test", nil), "id", tt.paramValue)
			_, err := GetAndValidateURLParam(req, "id")
			require.Error(t, err)
			assert.Equal(t, "invalid URL encoding in id", err.Error())
		})
	}
}

func TestGetUUIDParam(t *testing.T) {
	t.Parallel()

	id := uuid.New()

	tests := []struct {
		name    string
		value   string
		want    uuid.UUID
		wantErr string
	}{
		{name: "valid", value: id.String(), want: id},
		{name: "not a uuid", value: "flow-1", wantErr: "id must be a UUID"},
		{name: "empty", value: "", wantErr: "id cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := withURLParam(httptest.NewRequest(http.MethodGet, "/test", nil), "id", tt.value)
			got, err := GetUUIDParam(req, "id")
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetDateQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		query   string
		want    *civil.Date
		wantErr bool
	}{
		{name: "missing", query: ""},
		{name: "valid", query: "?arrival=2026-06-01", want: &civil.Date{Year: 2026, Month: 6, Day: 1}},
		{name: "day first", query: "?arrival=01/06/2026", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/bookings"+tt.query, nil)
			got, err := GetDateQuery(req, "arrival")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetLimitQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		query   string
		want    int
		wantErr bool
	}{
		{name: "default", query: "", want: 50},
		{name: "explicit", query: "?limit=10", want: 10},
		{name: "capped", query: "?limit=9000", want: 500},
		{name: "zero", query: "?limit=0", wantErr: true},
		{name: "not a number", query: "?limit=ten", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/audit"+tt.query, nil)
			got, err := GetLimitQuery(req, 50, 500)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func withURLParam(req *http.Request, name, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(name, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
