package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestGenerateTokenClaims(t *testing.T) {
	before := time.Now().Add(-time.Second)
	token, err := GenerateToken("u-42", time.Hour, "session-secret")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	after := time.Now().Add(time.Second)

	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Fatalf("token has %d segments, want 3", len(parts))
	}

	claims, err := ValidateToken(token, "session-secret")
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != "u-42" {
		t.Errorf("unique_name = %q, want u-42", claims.UserID)
	}
	if claims.ID == "" {
		t.Error("expected a token id")
	}
	if iat := claims.IssuedAt.Time; iat.Before(before) || iat.After(after) {
		t.Errorf("IssuedAt = %v, want within [%v, %v]", iat, before, after)
	}
	if exp := claims.ExpiresAt.Time; exp.Before(before.Add(time.Hour)) || exp.After(after.Add(time.Hour)) {
		t.Errorf("ExpiresAt = %v, want about an hour from now", exp)
	}

	other, _ := GenerateToken("u-42", time.Hour, "session-secret")
	if other == token {
		t.Error("two tokens for the same user must differ")
	}
}

func TestValidateToken(t *testing.T) {
	const secret = "stub-backend-secret"

	live, _ := GenerateToken("ana", time.Hour, secret)
	expired, _ := GenerateToken("ana", -time.Hour, secret)

	tests := []struct {
		name    string
		token   string
		secret  string
		wantErr bool
	}{
		{"live token", live, secret, false},
		{"expired", expired, secret, true},
		{"signed with another secret", live, "another-secret", true},
		{"three garbage segments", "invalid.token.format", secret, true},
		{"empty", "", secret, true},
		// {"alg":"none"}.{"unique_name":"ana"}.
		{"unsigned", "eyJhbGciOiJub25lIn0.eyJ1bmlxdWVfbmFtZSI6ImFuYSJ9.", secret, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.token, tt.secret)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidToken) {
					t.Errorf("ValidateToken() error = %v, want ErrInvalidToken", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateToken() error = %v", err)
			}
			if claims.UserID != "ana" {
				t.Errorf("unique_name = %q, want ana", claims.UserID)
			}
		})
	}
}

func TestDecodeUnverified(t *testing.T) {
	userID := "decode-user"

	signed, _ := GenerateToken(userID, time.Hour, "issuer-secret")
	expired, _ := GenerateToken(userID, -time.Hour, "issuer-secret")

	tests := []struct {
		name    string
		token   string
		want    string
		wantErr error
	}{
		{
			name:  "signed by an unknown secret",
			token: signed,
			want:  userID,
		},
		{
			name:  "expired token still decodes",
			token: expired,
			want:  userID,
		},
		{
			name:    "garbage",
			token:   "not-a-token",
			wantErr: ErrInvalidToken,
		},
		{
			name:    "empty",
			token:   "",
			wantErr: ErrInvalidToken,
		},
		{
			// {"alg":"HS256","typ":"JWT"}.{"sub":"x"}.sig
			name:    "no unique_name claim",
			token:   "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJzdWIiOiJ4In0.c2ln",
			wantErr: ErrMissingClaim,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeUnverified(tt.token)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("DecodeUnverified() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeUnverified() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DecodeUnverified() = %q, want %q", got, tt.want)
			}
		})
	}
}

func BenchmarkValidateToken(b *testing.B) {
	token, _ := GenerateToken("benchmark-user", 15*time.Minute, "benchmark-secret")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ValidateToken(token, "benchmark-secret"); err != nil {
			b.Fatalf("ValidateToken() error = %v", err)
		}
	}
}
