package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"Storefront/internal/auth"
)

func newAuthTS(t *testing.T) (*httptest.Server, *auth.TokenMaker) {
	t.Helper()

	jwt := auth.NewTokenMaker("test-secret")
	s := &auth.Server{Store: auth.NewFastMemStore(), JWT: jwt, Log: zap.NewNop()}
	ts := httptest.NewServer(auth.NewHandler(s, auth.HTTPDeps{Service: "auth"}))
	t.Cleanup(ts.Close)
	return ts, jwt
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	b, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestAuth_RegisterLoginWhoAmI(t *testing.T) {
	ts, jwt := newAuthTS(t)

	creds := map[string]string{"email": " Shopper@Example.com ", "password": "password123"}

	resp := postJSON(t, ts.URL+"/auth/register", creds)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status=%d", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+"/auth/register", creds)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register status=%d want=409", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+"/auth/login", map[string]string{"email": "shopper@example.com", "password": "password123"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status=%d", resp.StatusCode)
	}
	var lr struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if lr.ExpiresIn != 900 {
		t.Fatalf("expires_in=%d want=900", lr.ExpiresIn)
	}

	c, err := jwt.Parse(lr.AccessToken)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Role != auth.RoleCustomer || c.Email != "shopper@example.com" {
		t.Fatalf("claims=%+v", c)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/auth/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+lr.AccessToken)
	wr, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	defer wr.Body.Close()
	if wr.StatusCode != http.StatusOK {
		t.Fatalf("whoami status=%d", wr.StatusCode)
	}
}

func TestAuth_RegisterValidation(t *testing.T) {
	ts, _ := newAuthTS(t)

	resp := postJSON(t, ts.URL+"/auth/register", map[string]string{"email": "nope", "password": "short"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status=%d want=400", resp.StatusCode)
	}

	var er struct {
		Details map[string]string `json:"details"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if er.Details["email"] == "" || er.Details["password"] == "" {
		t.Fatalf("details=%v", er.Details)
	}
}

func TestAuth_LoginWrongPassword(t *testing.T) {
	ts, _ := newAuthTS(t)

	postJSON(t, ts.URL+"/auth/register", map[string]string{"email": "a@example.com", "password": "password123"})

	resp := postJSON(t, ts.URL+"/auth/login", map[string]string{"email": "a@example.com", "password": "wrong-password"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status=%d want=401", resp.StatusCode)
	}
}

func TestAuth_LoginRateLimited(t *testing.T) {
	ts, _ := newAuthTS(t)

	creds := map[string]string{"email": "a@example.com", "password": "whatever1"}
	for i := 0; i < 5; i++ {
		if resp := postJSON(t, ts.URL+"/auth/login", creds); resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("attempt %d status=%d", i, resp.StatusCode)
		}
	}

	resp := postJSON(t, ts.URL+"/auth/login", creds)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status=%d want=429", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After")
	}
}
