package gateway_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"Storefront/internal/auth"
	"Storefront/internal/cart"
	"Storefront/internal/catalog"
	"Storefront/internal/gateway"
	"Storefront/internal/order"
	"Storefront/internal/storefront"
)

const jwtSecret = "test-secret"

type stack struct {
	gw        *httptest.Server
	cartStore *cart.MemStore
}

func newStack(t *testing.T) stack {
	t.Helper()

	jwt := auth.NewTokenMaker(jwtSecret)

	authTS := httptest.NewServer(auth.NewHandler(
		&auth.Server{Store: auth.NewFastMemStore(), JWT: jwt},
		auth.HTTPDeps{Log: zap.NewNop(), Service: "auth"},
	))
	t.Cleanup(authTS.Close)

	catalogTS := httptest.NewServer(catalog.NewHandler(
		&catalog.Server{Store: catalog.NewStore()},
		catalog.HTTPDeps{Log: zap.NewNop(), Service: "catalog"},
	))
	t.Cleanup(catalogTS.Close)

	orderTS := httptest.NewServer(order.NewHandler(
		&order.Server{Store: order.NewStore(), Catalog: catalog.NewClient(catalogTS.URL)},
		order.HTTPDeps{Log: zap.NewNop(), Service: "order", JWT: jwt},
	))
	t.Cleanup(orderTS.Close)

	cartStore := cart.NewMemStore()
	sfTS := httptest.NewServer(storefront.NewHandler(
		&storefront.Server{
			Store:   cartStore,
			Catalog: catalog.NewClient(catalogTS.URL),
			Orders:  order.NewClient(orderTS.URL),
			JWT:     jwt,
		},
		storefront.HTTPDeps{Log: zap.NewNop(), Service: "storefront"},
	))
	t.Cleanup(sfTS.Close)

	h, err := gateway.NewHandler(
		gateway.Deps{
			JWTSecret:     jwtSecret,
			AuthURL:       authTS.URL,
			CatalogURL:    catalogTS.URL,
			OrderURL:      orderTS.URL,
			StorefrontURL: sfTS.URL,
		},
		gateway.HTTPDeps{
			Log:     zap.NewNop(),
			Service: "gateway",
		},
	)
	if err != nil {
		t.Fatalf("gateway.NewHandler: %v", err)
	}

	gw := httptest.NewServer(h)
	t.Cleanup(gw.Close)
	return stack{gw: gw, cartStore: cartStore}
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func doJSON(t *testing.T, c *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func login(t *testing.T, c *http.Client, base string) string {
	t.Helper()

	creds := map[string]any{"email": "shopper@example.com", "password": "password123"}

	resp, raw := doJSON(t, c, http.MethodPost, base+"/auth/register", creds, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status=%d body=%s", resp.StatusCode, raw)
	}

	resp, raw = doJSON(t, c, http.MethodPost, base+"/auth/login", creds, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status=%d body=%s", resp.StatusCode, raw)
	}

	var lr struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &lr); err != nil || lr.AccessToken == "" {
		t.Fatalf("decode login: %v body=%s", err, raw)
	}
	return lr.AccessToken
}

type cartBody struct {
	Lines []struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	} `json:"lines"`
	Summary struct {
		FinalTotal json.Number `json:"finalTotal"`
		ItemCount  int         `json:"itemCount"`
	} `json:"summary"`
}

func TestGateway_PublicAPI_CartToOrder(t *testing.T) {
	st := newStack(t)
	c := newClient(t)
	base := st.gw.URL

	{
		resp, raw := doJSON(t, c, http.MethodGet, base+"/products?category=tops&sort=price_asc", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("products status=%d body=%s", resp.StatusCode, raw)
		}
		var ps []catalog.Product
		if err := json.Unmarshal(raw, &ps); err != nil || len(ps) != 2 {
			t.Fatalf("products=%s err=%v", raw, err)
		}
	}

	for _, id := range []string{"tee-002", "jkt-001", "tee-002"} {
		resp, raw := doJSON(t, c, http.MethodPost, base+"/cart/items", map[string]any{"product_id": id}, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("add %s status=%d body=%s", id, resp.StatusCode, raw)
		}
	}

	var before cartBody
	{
		resp, raw := doJSON(t, c, http.MethodGet, base+"/cart", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("cart status=%d body=%s", resp.StatusCode, raw)
		}
		if err := json.Unmarshal(raw, &before); err != nil {
			t.Fatalf("decode cart: %v body=%s", err, raw)
		}
		if len(before.Lines) != 2 || before.Lines[0].ProductID != "tee-002" || before.Lines[0].Quantity != 2 {
			t.Fatalf("lines=%+v", before.Lines)
		}
		if before.Summary.FinalTotal.String() != "208.8" || before.Summary.ItemCount != 3 {
			t.Fatalf("summary=%+v", before.Summary)
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodPost, base+"/checkout", nil, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("anonymous checkout status=%d body=%s", resp.StatusCode, raw)
		}
	}

	token := login(t, c, base)
	bearer := map[string]string{"Authorization": "Bearer " + token}

	var placed order.Order
	{
		resp, raw := doJSON(t, c, http.MethodPost, base+"/checkout", nil, bearer)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("checkout status=%d body=%s", resp.StatusCode, raw)
		}
		var out struct {
			Order order.Order `json:"order"`
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode checkout: %v body=%s", err, raw)
		}
		placed = out.Order
		if !placed.Total.Equal(decimal.RequireFromString("208.80")) {
			t.Fatalf("order total=%s want=208.80", placed.Total)
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet, base+"/cart", nil, nil)
		var after cartBody
		if err := json.Unmarshal(raw, &after); err != nil || resp.StatusCode != http.StatusOK {
			t.Fatalf("cart status=%d body=%s", resp.StatusCode, raw)
		}
		if len(after.Lines) != 0 {
			t.Fatalf("cart not cleared after checkout: %+v", after.Lines)
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet, base+"/orders/"+placed.ID, nil, bearer)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("get order status=%d body=%s", resp.StatusCode, raw)
		}

		resp, raw = doJSON(t, c, http.MethodGet, base+"/orders", nil, bearer)
		var list []order.Order
		if err := json.Unmarshal(raw, &list); err != nil || resp.StatusCode != http.StatusOK {
			t.Fatalf("list status=%d body=%s", resp.StatusCode, raw)
		}
		if len(list) != 1 || list[0].ID != placed.ID {
			t.Fatalf("orders=%+v", list)
		}
	}
}

func TestGateway_PublicAPI_OrdersRequiresAuth(t *testing.T) {
	st := newStack(t)

	resp, raw := doJSON(t, newClient(t), http.MethodPost, st.gw.URL+"/orders", map[string]any{
		"items": []map[string]any{{"product_id": "tee-001", "qty": 1}},
	}, nil)

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status=%d body=%s", resp.StatusCode, string(raw))
	}
}

func TestGateway_UpstreamDown(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	h, err := gateway.NewHandler(gateway.Deps{
		JWTSecret:     jwtSecret,
		AuthURL:       deadURL,
		CatalogURL:    deadURL,
		OrderURL:      deadURL,
		StorefrontURL: deadURL,
	}, gateway.HTTPDeps{Service: "gateway"})
	if err != nil {
		t.Fatalf("gateway.NewHandler: %v", err)
	}
	gw := httptest.NewServer(h)
	t.Cleanup(gw.Close)

	c := newClient(t)
	if resp, raw := doJSON(t, c, http.MethodGet, gw.URL+"/cart", nil, nil); resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("cart status=%d body=%s", resp.StatusCode, raw)
	}
	if resp, raw := doJSON(t, c, http.MethodGet, gw.URL+"/readyz", nil, nil); resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("readyz status=%d body=%s", resp.StatusCode, raw)
	}
}

func TestGateway_RejectsBadUpstreamURL(t *testing.T) {
	_, err := gateway.NewHandler(gateway.Deps{
		AuthURL:       "not a url",
		CatalogURL:    "http://catalog",
		OrderURL:      "http://order",
		StorefrontURL: "http://storefront",
	}, gateway.HTTPDeps{})
	if err == nil {
		t.Fatalf("expected error for bad upstream url")
	}
}
