package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// catalogCacheTTL bounds how stale a cached catalog response may get.
const catalogCacheTTL = time.Minute

// CatalogService provides the read-only herb catalog wrappers. Responses
// are cached briefly per URL; the catalog changes rarely and page loads
// hammer the same listings.
type CatalogService struct {
	c     *Client
	cache *ttlcache.Cache[string, []byte]
}

func newCatalogService(c *Client) *CatalogService {
	return &CatalogService{
		c: c,
		cache: ttlcache.New[string, []byte](
			ttlcache.WithTTL[string, []byte](catalogCacheTTL),
			ttlcache.WithDisableTouchOnHit[string, []byte](),
		),
	}
}

// Herb is a single catalog entry.
type Herb struct {
	ID          int64    `json:"id"`
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	LatinName   string   `json:"latin_name"`
	Description string   `json:"description"`
	Categories  []string `json:"categories,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// HerbList is the paginated listing shape served by the catalog API.
type HerbList struct {
	Count    int    `json:"count"`
	Next     string `json:"next"`
	Previous string `json:"previous"`
	Results  []Herb `json:"results"`
}

// NamedItem is a category, tag or symptom entry.
type NamedItem struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// HerbListOptions are the recognized listing filters, mapped one to one
// onto query parameters.
type HerbListOptions struct {
	Category string
	Tags     string
	Symptoms string
	Search   string
	Ordering string
	Page     int
	// NoPagination requests the full, unpaginated result set.
	NoPagination bool
}

func (o HerbListOptions) query() string {
	params := url.Values{}
	page := o.Page
	if page < 1 {
		page = 1
	}
	params.Set("page", strconv.Itoa(page))
	if o.Category != "" {
		params.Set("category", o.Category)
	}
	if o.Tags != "" {
		params.Set("tags", o.Tags)
	}
	if o.Symptoms != "" {
		params.Set("symptoms", o.Symptoms)
	}
	if o.Search != "" {
		params.Set("search", o.Search)
	}
	if o.Ordering != "" {
		params.Set("ordering", o.Ordering)
	}
	if o.NoPagination {
		params.Set("pagination", "false")
	}
	return params.Encode()
}

// ListHerbs returns a page of the catalog filtered by opts.
func (s *CatalogService) ListHerbs(ctx context.Context, opts HerbListOptions) (*HerbList, error) {
	var out HerbList
	if err := s.getCached(ctx, "/api/v1/herbs/?"+opts.query(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// HerbDetail returns a single herb by slug.
func (s *CatalogService) HerbDetail(ctx context.Context, slug string) (*Herb, error) {
	var out Herb
	if err := s.getCached(ctx, fmt.Sprintf("/api/v1/herbs/%s/", url.PathEscape(slug)), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Categories returns the full category list.
func (s *CatalogService) Categories(ctx context.Context) ([]NamedItem, error) {
	return s.listNamed(ctx, "/api/v1/herbs/categories/")
}

// Tags returns the full tag list.
func (s *CatalogService) Tags(ctx context.Context) ([]NamedItem, error) {
	return s.listNamed(ctx, "/api/v1/herbs/tags/")
}

// Symptoms returns the full symptom list.
func (s *CatalogService) Symptoms(ctx context.Context) ([]NamedItem, error) {
	return s.listNamed(ctx, "/api/v1/herbs/symptoms/")
}

func (s *CatalogService) listNamed(ctx context.Context, path string) ([]NamedItem, error) {
	var out []NamedItem
	if err := s.getCached(ctx, path+"?pagination=false", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CatalogService) getCached(ctx context.Context, path string, out any) error {
	if item := s.cache.Get(path); item != nil {
		return json.Unmarshal(item.Value(), out)
	}

	resp, err := s.c.DoRaw(ctx, path, RequestOptions{})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	s.cache.Set(path, raw, ttlcache.DefaultTTL)
	return json.Unmarshal(raw, out)
}
