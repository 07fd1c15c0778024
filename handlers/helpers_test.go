package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dosada05/match-archive/middleware"
	"github.com/Dosada05/match-archive/services"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID = 1

// serve прогоняет запрос через chi, чтобы работали URL-параметры; userID 0 - без авторизации.
func serve(t *testing.T, method, pattern, target string, body io.Reader, userID int, h http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return serveRequest(pattern, req, userID, h)
}

func serveMultipart(t *testing.T, pattern, target string, body io.Reader, contentType string, h http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", contentType)
	return serveRequest(pattern, req, testUserID, h)
}

func serveRequest(pattern string, req *http.Request, userID int, h http.HandlerFunc) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if userID > 0 {
				claims := jwt.MapClaims{middleware.ClaimUserID: float64(userID)}
				req = req.WithContext(middleware.WithClaims(req.Context(), claims))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.MethodFunc(req.Method, pattern, h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestMapServiceErrorToHTTP(t *testing.T) {
	validation := &services.ValidationError{Fields: map[string]string{"name": "must not be empty"}}

	tests := []struct {
		err    error
		status int
	}{
		{services.ErrTeamNotFound, http.StatusNotFound},
		{fmt.Errorf("load: %w", services.ErrMatchNotFound), http.StatusNotFound},
		{services.ErrDisputeNotFound, http.StatusNotFound},
		{services.ErrBackNumberConflict, http.StatusConflict},
		{services.ErrTeamMergeConflict, http.StatusConflict},
		{fmt.Errorf("%w: %w", services.ErrConcurrentUpdate, errors.New("serialization")), http.StatusConflict},
		{services.ErrInvalidState, http.StatusBadRequest},
		{services.ErrPasswordTooLong, http.StatusBadRequest},
		{services.ErrInviteExpired, http.StatusBadRequest},
		{services.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrManagerRequired, http.StatusForbidden},
		{services.ErrOwnerCannotLeave, http.StatusForbidden},
		{services.ErrUploadsDisabled, http.StatusServiceUnavailable},
		{validation, http.StatusUnprocessableEntity},
		{errors.New("db is down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			mapServiceErrorToHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, decodeBody(t, rec), "error")
		})
	}

	t.Run("validation fields", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mapServiceErrorToHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil), validation)
		body := decodeBody(t, rec)
		assert.Equal(t, map[string]interface{}{"name": "must not be empty"}, body["error"])
	})

	t.Run("internal details hidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mapServiceErrorToHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: password=secret"))
		assert.NotContains(t, rec.Body.String(), "secret")
	})
}

func TestReadJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"name":"x"}`, ""},
		{"empty", ``, "body must not be empty"},
		{"bad json", `{"name":`, "badly-formed JSON"},
		{"wrong type", `{"name":1}`, `incorrect JSON type for field "name"`},
		{"unknown key", `{"nick":"x"}`, `unknown key "nick"`},
		{"two values", `{"name":"x"}{"name":"y"}`, "single JSON value"},
		{"too large", `{"name":"` + strings.Repeat("a", 1_048_577) + `"}`, "must not be larger"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst payload
			err := readJSON(httptest.NewRecorder(), req, &dst)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "x", dst.Name)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
