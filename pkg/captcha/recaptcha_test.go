package captcha

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fairu-api/pkg/config"
)

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "secret", r.PostForm.Get("secret"))
		assert.Equal(t, "token", r.PostForm.Get("response"))
		assert.Equal(t, "203.0.113.9", r.PostForm.Get("remoteip"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRecaptchaVerify(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantErr  bool
		rejected bool
	}{
		{name: "accepted", status: http.StatusOK, body: `{"success":true}`},
		{name: "rejected", status: http.StatusOK, body: `{"success":false,"error-codes":["invalid-input-response"]}`, wantErr: true, rejected: true},
		{name: "provider error", status: http.StatusInternalServerError, body: ``, wantErr: true},
		{name: "malformed body", status: http.StatusOK, body: `not json`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, tt.status, tt.body)
			verifier := NewRecaptcha(config.RecaptchaConfig{Secret: "secret", VerifyURL: srv.URL, Timeout: time.Second})

			err := verifier.Verify(context.Background(), "token", "203.0.113.9")
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Equal(t, tt.rejected, errors.Is(err, ErrRejected))
		})
	}
}

func TestRecaptchaVerifyTransportFailure(t *testing.T) {
	verifier := NewRecaptcha(config.RecaptchaConfig{Secret: "secret", VerifyURL: "http://127.0.0.1:1", Timeout: time.Second})
	assert.Error(t, verifier.Verify(context.Background(), "token", ""))
}
