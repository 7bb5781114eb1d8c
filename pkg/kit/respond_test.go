package kit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type decodeTarget struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"ok", `{"product_id":"tee-001","quantity":2}`, false},
		{"unknown field", `{"product_id":"tee-001","price":1}`, true},
		{"trailing data", `{"product_id":"tee-001"} {}`, true},
		{"not json", `product`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst decodeTarget
			err := DecodeJSON(httptest.NewRecorder(), req, &dst)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err=%v wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_UsesJSONNames(t *testing.T) {
	fields := Validate(decodeTarget{Quantity: -1})
	if fields["product_id"] != "is required" {
		t.Fatalf("fields=%v", fields)
	}
	if fields["quantity"] == "" {
		t.Fatalf("fields=%v", fields)
	}
	if Validate(decodeTarget{ProductID: "x"}) != nil {
		t.Fatalf("valid value reported errors")
	}
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := BearerToken(req); ok {
		t.Fatalf("no header must not yield a token")
	}
	req.Header.Set("Authorization", "Bearer abc")
	if tok, ok := BearerToken(req); !ok || tok != "abc" {
		t.Fatalf("tok=%q ok=%v", tok, ok)
	}
}
