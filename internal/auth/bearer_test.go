package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthorize(t *testing.T) {
	a := New("s3cret")

	tests := []struct {
		name    string
		header  []string
		wantErr error
	}{
		{name: "valid token", header: []string{"Bearer s3cret"}, wantErr: nil},
		{name: "missing header", header: nil, wantErr: ErrMissingHeader},
		{name: "invalid utf8", header: []string{"Bearer \xff\xfe"}, wantErr: ErrMalformedHeader},
		{name: "control char", header: []string{"Bearer s3\x01cret"}, wantErr: ErrMalformedHeader},
		{name: "basic scheme", header: []string{"Basic s3cret"}, wantErr: ErrBadScheme},
		{name: "lowercase scheme", header: []string{"bearer s3cret"}, wantErr: ErrBadScheme},
		{name: "no space", header: []string{"Bearers3cret"}, wantErr: ErrBadScheme},
		{name: "wrong token", header: []string{"Bearer nope"}, wantErr: ErrBadToken},
		{name: "prefix of secret", header: []string{"Bearer s3c"}, wantErr: ErrBadToken},
		{name: "secret with suffix", header: []string{"Bearer s3cret!"}, wantErr: ErrBadToken},
		{name: "empty token", header: []string{"Bearer "}, wantErr: ErrBadToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/proxy", nil)
			if tt.header != nil {
				r.Header["Authorization"] = tt.header
			}
			err := a.Authorize(r)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Authorize() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewPanicsOnEmptySecret(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("New(\"\") should have panicked")
		}
	}()
	New("")
}
