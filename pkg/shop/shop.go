package shop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sw33tLie/shopwatch/pkg/items"
	"github.com/sw33tLie/shopwatch/pkg/whttp"
	"github.com/tidwall/gjson"
	"github.com/weppos/publicsuffix-go/publicsuffix"
	"golang.org/x/net/html"
)

const (
	// nextDataSelector locates the Next.js data block embedded in the shop page.
	nextDataSelector   = "#__NEXT_DATA__"
	availableItemsPath = "props.pageProps.availableItems"
)

var (
	ErrMarkerNotFound = errors.New("no " + nextDataSelector + " element in document")
	ErrItemsNotFound  = errors.New("availableItems not found - is the shop URL correct?")
)

// Client fetches the current catalog from the shop page.
type Client struct {
	shopURL string
	http    *retryablehttp.Client
}

func NewClient(shopURL string, httpClient *retryablehttp.Client) (*Client, error) {
	u, err := url.Parse(shopURL)
	if err != nil {
		return nil, fmt.Errorf("invalid shop URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid shop URL %q: scheme must be http or https", shopURL)
	}
	return &Client{shopURL: u.String(), http: httpClient}, nil
}

// Fetch downloads the shop page and extracts its catalog.
func (c *Client) Fetch(ctx context.Context) (items.Catalog, error) {
	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{
		Method: http.MethodGet,
		URL:    c.shopURL,
	}, c.http)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", c.shopURL, err)
	}
	if !res.OK() {
		return nil, fmt.Errorf("fetching %s failed. Got status code: %d", c.shopURL, res.StatusCode)
	}

	catalog, err := ParseCatalog(res.BodyString)
	if errors.Is(err, ErrMarkerNotFound) && res.HTTPTitle != "" {
		return nil, fmt.Errorf("%w (page title: %q)", err, res.HTTPTitle)
	}
	return catalog, err
}

// ParseCatalog extracts the catalog from a shop page.
func ParseCatalog(page string) (items.Catalog, error) {
	root, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parsing shop page: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	sel := doc.Find(nextDataSelector).First()
	if sel.Length() == 0 {
		return nil, ErrMarkerNotFound
	}

	data := sel.Text()
	if !gjson.Valid(data) {
		return nil, fmt.Errorf("%s does not contain valid JSON", nextDataSelector)
	}

	raw := gjson.Get(data, availableItemsPath)
	if !raw.Exists() {
		return nil, ErrItemsNotFound
	}
	if !raw.IsArray() {
		return nil, fmt.Errorf("%w: %s is %s, not a list", ErrItemsNotFound, availableItemsPath, raw.Type)
	}

	var catalog items.Catalog
	if err := json.Unmarshal([]byte(raw.Raw), &catalog); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", availableItemsPath, err)
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return catalog, nil
}

// SiteName returns the registrable domain of the shop URL, falling back to
// the bare host when the public suffix list does not know it.
func SiteName(shopURL string) string {
	u, err := url.Parse(shopURL)
	if err != nil || u.Hostname() == "" {
		return shopURL
	}
	host := u.Hostname()
	domain, err := publicsuffix.Domain(host)
	if err != nil {
		return host
	}
	return domain
}
