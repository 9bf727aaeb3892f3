package captcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRecaptcha_Verify(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("secret") != "shh" {
			t.Errorf("unexpected secret %q", r.PostForm.Get("secret"))
		}
		if r.PostForm.Get("remoteip") != "10.0.0.1" {
			t.Errorf("unexpected remoteip %q", r.PostForm.Get("remoteip"))
		}
		if r.PostForm.Get("response") == "good" {
			_, _ = w.Write([]byte(`{"success":true}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
	}))
	defer srv.Close()

	rc := NewRecaptcha("shh", srv.URL)

	ok, err := rc.Verify(context.Background(), "good", "10.0.0.1")
	if err != nil || !ok {
		t.Fatalf("expected valid token, got %v, %v", ok, err)
	}
	ok, err = rc.Verify(context.Background(), "bad", "10.0.0.1")
	if err != nil || ok {
		t.Fatalf("expected rejected token, got %v, %v", ok, err)
	}
}

func TestRecaptcha_ProviderError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := NewRecaptcha("shh", srv.URL).Verify(context.Background(), "tok", ""); err == nil {
		t.Fatal("expected error for failing provider")
	}
}

func TestAllowAll(t *testing.T) {
	t.Parallel()

	ok, err := AllowAll{}.Verify(context.Background(), "", "")
	if err != nil || !ok {
		t.Fatalf("AllowAll rejected a token: %v, %v", ok, err)
	}
}
