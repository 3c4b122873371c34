package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeGoogle struct {
	tokenStatus    int
	tokenBody      map[string]any
	userInfoStatus int
	userInfoBody   map[string]any

	gotForm   map[string]string
	gotBearer string
}

func (f *fakeGoogle) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		f.gotForm = map[string]string{}
		for k := range r.PostForm {
			f.gotForm[k] = r.PostForm.Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.tokenStatus)
		_ = json.NewEncoder(w).Encode(f.tokenBody)
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		f.gotBearer = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.userInfoStatus)
		_ = json.NewEncoder(w).Encode(f.userInfoBody)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:3000/auth/google/callback",
		TokenURL:     srv.URL + "/token",
		UserInfoURL:  srv.URL + "/userinfo",
		HTTPClient:   srv.Client(),
	}, nil)
}

func happyGoogle() *fakeGoogle {
	return &fakeGoogle{
		tokenStatus: http.StatusOK,
		tokenBody: map[string]any{
			"access_token": "ya29.token",
			"token_type":   "Bearer",
			"expires_in":   3599,
		},
		userInfoStatus: http.StatusOK,
		userInfoBody: map[string]any{
			"id":             "1122334455",
			"email":          "bob@gmail.com",
			"name":           "Bob",
			"picture":        "https://lh3.googleusercontent.com/a/bob",
			"verified_email": true,
		},
	}
}

func TestResolve_Success(t *testing.T) {
	fake := happyGoogle()
	client := newTestClient(fake.server(t))

	profile, err := client.Resolve(context.Background(), "auth-code", "http://localhost:5173/cb")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := Profile{
		ExternalID:    "1122334455",
		Email:         "bob@gmail.com",
		DisplayName:   "Bob",
		AvatarURL:     "https://lh3.googleusercontent.com/a/bob",
		EmailVerified: true,
	}
	if profile != want {
		t.Fatalf("profile = %+v, want %+v", profile, want)
	}

	expectForm := map[string]string{
		"code":          "auth-code",
		"client_id":     "client-id",
		"client_secret": "client-secret",
		"redirect_uri":  "http://localhost:5173/cb",
		"grant_type":    "authorization_code",
	}
	for k, v := range expectForm {
		if fake.gotForm[k] != v {
			t.Fatalf("form %s = %q, want %q", k, fake.gotForm[k], v)
		}
	}
	if fake.gotBearer != "Bearer ya29.token" {
		t.Fatalf("unexpected authorization header %q", fake.gotBearer)
	}
}

func TestExchangeCode_DefaultsRedirect(t *testing.T) {
	fake := happyGoogle()
	client := newTestClient(fake.server(t))

	if _, err := client.ExchangeCode(context.Background(), "auth-code", ""); err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if fake.gotForm["redirect_uri"] != client.DefaultRedirectURL() {
		t.Fatalf("expected configured redirect, got %q", fake.gotForm["redirect_uri"])
	}
}

func TestExchangeCode_UpstreamError(t *testing.T) {
	fake := happyGoogle()
	fake.tokenStatus = http.StatusBadRequest
	fake.tokenBody = map[string]any{"error": "invalid_grant"}
	client := newTestClient(fake.server(t))

	_, err := client.ExchangeCode(context.Background(), "used-code", "")
	var upstream *UpstreamAuthError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamAuthError, got %v", err)
	}
	if upstream.StatusCode != http.StatusBadRequest || upstream.Op != "token exchange" {
		t.Fatalf("unexpected upstream error: %+v", upstream)
	}
}

func TestExchangeCode_MissingAccessToken(t *testing.T) {
	fake := happyGoogle()
	fake.tokenBody = map[string]any{"token_type": "Bearer"}
	client := newTestClient(fake.server(t))

	if _, err := client.ExchangeCode(context.Background(), "auth-code", ""); err == nil {
		t.Fatalf("expected error for response without access_token")
	}
}

func TestExchangeCode_EmptyCode(t *testing.T) {
	client := NewClient(Config{}, nil)
	if _, err := client.ExchangeCode(context.Background(), "  ", ""); !errors.Is(err, ErrMissingCode) {
		t.Fatalf("expected ErrMissingCode, got %v", err)
	}
}

func TestFetchProfile_UpstreamError(t *testing.T) {
	fake := happyGoogle()
	fake.userInfoStatus = http.StatusUnauthorized
	fake.userInfoBody = map[string]any{"error": "invalid_token"}
	client := newTestClient(fake.server(t))

	_, err := client.FetchProfile(context.Background(), "expired")
	var upstream *UpstreamAuthError
	if !errors.As(err, &upstream) || upstream.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 UpstreamAuthError, got %v", err)
	}
}

func TestResolve_IncompleteProfile(t *testing.T) {
	for _, missing := range []string{"id", "email"} {
		fake := happyGoogle()
		delete(fake.userInfoBody, missing)
		client := newTestClient(fake.server(t))

		if _, err := client.Resolve(context.Background(), "auth-code", ""); !errors.Is(err, ErrIncompleteProfile) {
			t.Fatalf("missing %s: expected ErrIncompleteProfile, got %v", missing, err)
		}
	}
}

func TestResolveIdentity_CollapsesFailures(t *testing.T) {
	fake := happyGoogle()
	fake.tokenStatus = http.StatusInternalServerError
	client := newTestClient(fake.server(t))

	profile, ok := client.ResolveIdentity(context.Background(), "auth-code", "")
	if ok || profile != (Profile{}) {
		t.Fatalf("expected absent identity, got %+v %v", profile, ok)
	}

	fake.tokenStatus = http.StatusOK
	profile, ok = client.ResolveIdentity(context.Background(), "auth-code", "")
	if !ok || profile.Email != "bob@gmail.com" {
		t.Fatalf("expected resolved identity, got %+v %v", profile, ok)
	}
}
