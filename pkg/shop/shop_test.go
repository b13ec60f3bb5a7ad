package shop

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sw33tLie/shopwatch/pkg/items"
)

const shopPage = `<!DOCTYPE html>
<html><head><title>Arcade Shop</title></head>
<body>
<div id="__next"></div>
<script id="__NEXT_DATA__" type="application/json">
{"props":{"pageProps":{"availableItems":[
  {"id":"rec1","Full Name":"Widget","Description":"A widget","Fulfillment Description":null,"Cost Hours":5,"Stock":null},
  {"id":"rec2","Full Name":"Gadget","Cost Hours":12,"Stock":0,"Fulfillment Description":"Shipped"}
]}}}
</script>
</body></html>`

func TestParseCatalog(t *testing.T) {
	got, err := ParseCatalog(shopPage)
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	want := items.Catalog{
		{ID: "rec1", Name: "Widget", Description: items.Ptr("A widget"), Price: 5},
		{ID: "rec2", Name: "Gadget", FulfillmentInfo: items.Ptr("Shipped"), Price: 12, Stock: items.Ptr(0)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatal(diff)
	}
}

func TestParseCatalogErrors(t *testing.T) {
	tests := []struct {
		name    string
		page    string
		wantErr error
	}{
		{
			name:    "missing marker",
			page:    `<html><body><p>maintenance</p></body></html>`,
			wantErr: ErrMarkerNotFound,
		},
		{
			name:    "missing items path",
			page:    `<html><body><script id="__NEXT_DATA__">{"props":{"pageProps":{}}}</script></body></html>`,
			wantErr: ErrItemsNotFound,
		},
		{
			name:    "null items",
			page:    `<html><body><script id="__NEXT_DATA__">{"props":{"pageProps":{"availableItems":null}}}</script></body></html>`,
			wantErr: ErrItemsNotFound,
		},
		{
			name:    "items not a list",
			page:    `<html><body><script id="__NEXT_DATA__">{"props":{"pageProps":{"availableItems":{"id":"1"}}}}</script></body></html>`,
			wantErr: ErrItemsNotFound,
		},
		{
			name:    "schema violation",
			page:    `<html><body><script id="__NEXT_DATA__">{"props":{"pageProps":{"availableItems":[{"id":"1","Full Name":"X","Cost Hours":-3}]}}}</script></body></html>`,
			wantErr: items.ErrInvalidItem,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCatalog(tc.page)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}

	t.Run("wrong types", func(t *testing.T) {
		page := `<html><body><script id="__NEXT_DATA__">{"props":{"pageProps":{"availableItems":[{"id":"1","Cost Hours":"lots"}]}}}</script></body></html>`
		if _, err := ParseCatalog(page); err == nil {
			t.Fatalf("expected decode error")
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		page := `<html><body><script id="__NEXT_DATA__">{not json</script></body></html>`
		if _, err := ParseCatalog(page); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if r.URL.Path == "/down" {
			io.WriteString(w, "<html><head><title>Down for maintenance</title></head></html>")
			return
		}
		io.WriteString(w, shopPage)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL+"/shop", nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	catalog, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(catalog) != 2 {
		t.Fatalf("expected 2 items, got %d", len(catalog))
	}

	c, _ = NewClient(srv.URL+"/down", nil)
	_, err = c.Fetch(context.Background())
	if !errors.Is(err, ErrMarkerNotFound) {
		t.Fatalf("expected ErrMarkerNotFound, got %v", err)
	}
	if want := `page title: "Down for maintenance"`; !strings.Contains(err.Error(), want) {
		t.Fatalf("expected %q in %q", want, err.Error())
	}
}

func TestNewClientRejectsBadURL(t *testing.T) {
	if _, err := NewClient("ftp://example.com", nil); err == nil {
		t.Fatalf("expected error for non-http scheme")
	}
}

func TestSiteName(t *testing.T) {
	tests := map[string]string{
		"https://hackclub.com/arcade/shop": "hackclub.com",
		"https://shop.example.co.uk/items": "example.co.uk",
		"http://localhost:8080/shop":       "localhost",
	}
	for in, want := range tests {
		if got := SiteName(in); got != want {
			t.Fatalf("SiteName(%q) = %q, want %q", in, got, want)
		}
	}
}
