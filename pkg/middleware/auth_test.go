package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clinic-booking/internal/data/entity"
	"clinic-booking/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"
)

var testJWT = utils.JWTConfig{Secret: "test-secret", Issuer: "clinic-booking"}

func TestParseToken(t *testing.T) {
	p := entity.Principal{ID: uuid.New(), Role: entity.RoleDoctor}

	token, err := SignToken(testJWT, p, time.Hour)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}

	got, err := ParseToken(testJWT, token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if got != p {
		t.Fatalf("principal = %+v, want %+v", got, p)
	}
}

func TestParseToken_Rejects(t *testing.T) {
	p := entity.Principal{ID: uuid.New(), Role: entity.RolePatient}

	sign := func(claims Claims, method jwt.SigningMethod, key any) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}
	valid := func() Claims {
		return Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   p.ID.String(),
				Issuer:    testJWT.Issuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			Role: string(p.Role),
		}
	}

	expired := valid()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noExpiry := valid()
	noExpiry.ExpiresAt = nil

	wrongIssuer := valid()
	wrongIssuer.Issuer = "someone-else"

	badSubject := valid()
	badSubject.Subject = "patient-42"

	badRole := valid()
	badRole.Role = "nurse"

	secret := []byte(testJWT.Secret)
	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"wrong secret", sign(valid(), jwt.SigningMethodHS256, []byte("other"))},
		{"wrong algorithm", sign(valid(), jwt.SigningMethodHS512, secret)},
		{"expired", sign(expired, jwt.SigningMethodHS256, secret)},
		{"no expiry", sign(noExpiry, jwt.SigningMethodHS256, secret)},
		{"wrong issuer", sign(wrongIssuer, jwt.SigningMethodHS256, secret)},
		{"subject not a uuid", sign(badSubject, jwt.SigningMethodHS256, secret)},
		{"unknown role", sign(badRole, jwt.SigningMethodHS256, secret)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseToken(testJWT, tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestAuth(t *testing.T) {
	p := entity.Principal{ID: uuid.New(), Role: entity.RoleAdmin}
	token, err := SignToken(testJWT, p, time.Hour)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}

	var seen entity.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = utils.GetPrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	handler := Auth(testJWT, zaptest.NewLogger(t))(next)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + token, http.StatusNoContent},
		{"lowercase scheme", "bearer " + token, http.StatusNoContent},
		{"missing", "", http.StatusUnauthorized},
		{"no scheme", token, http.StatusUnauthorized},
		{"basic", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"empty token", "Bearer  ", http.StatusUnauthorized},
		{"tampered", "Bearer " + token + "x", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = entity.Principal{}
			req := httptest.NewRequest(http.MethodGet, "/api/appointments/mine", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusNoContent && seen != p {
				t.Fatalf("principal on context = %+v, want %+v", seen, p)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	log := zaptest.NewLogger(t)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireRole(log, entity.RoleDoctor, entity.RoleAdmin)(ok)

	tests := []struct {
		name   string
		caller *entity.Principal
		want   int
	}{
		{"doctor", &entity.Principal{ID: uuid.New(), Role: entity.RoleDoctor}, http.StatusOK},
		{"admin", &entity.Principal{ID: uuid.New(), Role: entity.RoleAdmin}, http.StatusOK},
		{"patient", &entity.Principal{ID: uuid.New(), Role: entity.RolePatient}, http.StatusForbidden},
		{"anonymous", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
			if tt.caller != nil {
				req = req.WithContext(utils.SetPrincipalContext(req.Context(), *tt.caller))
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
