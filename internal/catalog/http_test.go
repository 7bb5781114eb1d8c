package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"Storefront/internal/catalog"
	"Storefront/pkg/kit"
)

func newCatalogTS(t *testing.T) *httptest.Server {
	t.Helper()

	s := &catalog.Server{Store: catalog.NewStore()}
	h := catalog.NewHandler(s, catalog.HTTPDeps{
		Log:          zap.NewNop(),
		Service:      "catalog",
		Metrics:      kit.NewMetrics(prometheus.NewRegistry()),
		MetricsToken: "metrics-token",
	})

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp.StatusCode
}

func TestCatalog_ListFilterAndSort(t *testing.T) {
	ts := newCatalogTS(t)

	var all []catalog.Product
	if code := getJSON(t, ts.URL+"/products", &all); code != http.StatusOK {
		t.Fatalf("status=%d", code)
	}
	if len(all) != 5 {
		t.Fatalf("len=%d want=5", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].ID > all[i].ID {
			t.Fatalf("default sort must be by id: %s before %s", all[i-1].ID, all[i].ID)
		}
	}

	var tops []catalog.Product
	getJSON(t, ts.URL+"/products?category=tops&sort=price_desc", &tops)
	if len(tops) != 2 {
		t.Fatalf("tops len=%d", len(tops))
	}
	if tops[0].ID != "tee-002" || tops[1].ID != "tee-001" {
		t.Fatalf("price_desc order = %s, %s", tops[0].ID, tops[1].ID)
	}

	var cheap []catalog.Product
	getJSON(t, ts.URL+"/products?sort=price_asc", &cheap)
	if cheap[0].ID != "tee-001" || cheap[len(cheap)-1].ID != "jkt-001" {
		t.Fatalf("price_asc order = %s .. %s", cheap[0].ID, cheap[len(cheap)-1].ID)
	}

	if code := getJSON(t, ts.URL+"/products?sort=random", nil); code != http.StatusBadRequest {
		t.Fatalf("bad sort status=%d", code)
	}
}

func TestCatalog_GetAndCategories(t *testing.T) {
	ts := newCatalogTS(t)

	var p catalog.Product
	if code := getJSON(t, ts.URL+"/products/jkt-001", &p); code != http.StatusOK {
		t.Fatalf("status=%d", code)
	}
	if p.Name != "Waxed Field Jacket" || p.EffectivePrice().String() != "159" {
		t.Fatalf("product=%+v effective=%s", p, p.EffectivePrice())
	}

	if code := getJSON(t, ts.URL+"/products/nope", nil); code != http.StatusNotFound {
		t.Fatalf("missing status=%d", code)
	}

	var cs []string
	getJSON(t, ts.URL+"/categories", &cs)
	want := []string{"accessories", "bottoms", "outerwear", "tops"}
	if len(cs) != len(want) {
		t.Fatalf("categories=%v", cs)
	}
	for i := range want {
		if cs[i] != want[i] {
			t.Fatalf("categories=%v want=%v", cs, want)
		}
	}
}

func TestCatalog_MetricsRequireToken(t *testing.T) {
	ts := newCatalogTS(t)

	if code := getJSON(t, ts.URL+"/metrics", nil); code != http.StatusForbidden {
		t.Fatalf("status=%d want=403", code)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/metrics", nil)
	req.Header.Set("Authorization", "Bearer metrics-token")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d want=200", resp.StatusCode)
	}
}

func TestMemStore_PutReplacesAndAddsCategory(t *testing.T) {
	s := catalog.NewMemStore()
	s.Put(catalog.Product{ID: "sck-001", Name: "Merino Socks", Price: decimal.RequireFromString("12.00"), Category: "accessories"})
	s.Put(catalog.Product{ID: "tee-001", Name: "Essential Tee v2", Price: decimal.RequireFromString("21.00"), Category: "tops"})

	ps, err := s.List(context.Background(), catalog.ListFilter{Category: "accessories", Sort: catalog.SortByName})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ps) != 2 || ps[0].ID != "sck-001" || ps[1].ID != "acc-001" {
		t.Fatalf("accessories=%v", ps)
	}

	p, ok, _ := s.Get(context.Background(), "tee-001")
	if !ok || p.Name != "Essential Tee v2" {
		t.Fatalf("tee-001=%+v ok=%v", p, ok)
	}
}
