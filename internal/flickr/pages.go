package flickr

import (
	"context"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/apibillme/cache"
)

// DefaultMaxPage bounds how deep into the result set a random page may be.
// Deep pages of a location search tend to be sparse.
const DefaultMaxPage = 40

// Searcher issues one search request
type Searcher interface {
	Search(ctx context.Context, params map[string]string) (map[string]any, error)
}

// RandomSource returns a uniform integer in [0, n)
type RandomSource interface {
	IntN(n int) int
}

type globalRandom struct{}

func (globalRandom) IntN(n int) int { return rand.IntN(n) }

// RemotePhotoRef is one photo entry of a result page
type RemotePhotoRef struct {
	Index int
	URL   string // empty when the entry carries no usable url_m
	ID    string
	Title string
}

// PageResult is the decoded content of one result page
type PageResult struct {
	Page   int
	Total  int
	Photos []RemotePhotoRef
}

// ResolverConfig configures a Resolver
type ResolverConfig struct {
	MaxPage  int           // 0 means DefaultMaxPage
	Random   RandomSource  // nil means math/rand/v2
	CacheTTL time.Duration // 0 disables the page count cache
}

// Resolver discovers how many pages a query has and picks one of them
type Resolver struct {
	searcher Searcher
	random   RandomSource
	maxPage  int
	pages    cache.Cache
}

func NewResolver(searcher Searcher, cfg ResolverConfig) *Resolver {
	r := &Resolver{
		searcher: searcher,
		random:   cfg.Random,
		maxPage:  cfg.MaxPage,
	}
	if r.random == nil {
		r.random = globalRandom{}
	}
	if r.maxPage <= 0 {
		r.maxPage = DefaultMaxPage
	}
	if cfg.CacheTTL > 0 {
		r.pages = cache.New(256, cache.WithTTL(cfg.CacheTTL))
	}
	return r
}

// ResolveTotalPages runs one search with params and returns photos.pages
func (r *Resolver) ResolveTotalPages(ctx context.Context, params map[string]string) (int, error) {
	key := EncodeParams(params)
	if r.pages != nil {
		if v, ok := r.pages.Get(key); ok {
			return v.(int), nil
		}
	}

	doc, err := r.searcher.Search(ctx, params)
	if err != nil {
		return 0, err
	}

	photos, err := photosObject(doc)
	if err != nil {
		return 0, err
	}

	raw, ok := photos["pages"]
	if !ok {
		return 0, &SchemaError{Field: "photos.pages", Message: "missing"}
	}
	pages, ok := numberValue(raw)
	if !ok {
		return 0, &SchemaError{Field: "photos.pages", Message: "not a number"}
	}

	if r.pages != nil {
		r.pages.Set(key, pages)
	}
	return pages, nil
}

// PickPage returns a uniform page number in [1, min(totalPages, maxPage)].
// A query without pages yields 1.
func (r *Resolver) PickPage(totalPages int) int {
	limit := min(totalPages, r.maxPage)
	if limit < 1 {
		return 1
	}
	return r.random.IntN(limit) + 1
}

// ParsePage decodes a result page. A missing or non-numeric photos.total is
// read as zero; entries without a string url_m keep an empty URL.
func ParsePage(doc map[string]any) (*PageResult, error) {
	photos, err := photosObject(doc)
	if err != nil {
		return nil, err
	}

	entries, ok := photos["photo"].([]any)
	if !ok {
		return nil, &SchemaError{Field: "photos.photo", Message: "missing or not an array"}
	}

	result := &PageResult{
		Photos: make([]RemotePhotoRef, 0, len(entries)),
	}
	result.Total, _ = intValue(photos["total"])
	result.Page, _ = intValue(photos["page"])

	for i, e := range entries {
		ref := RemotePhotoRef{Index: i}
		if entry, ok := e.(map[string]any); ok {
			ref.URL, _ = entry["url_m"].(string)
			ref.ID, _ = entry["id"].(string)
			ref.Title, _ = entry["title"].(string)
		}
		result.Photos = append(result.Photos, ref)
	}

	return result, nil
}

// photosObject returns the "photos" member, turning a stat=fail envelope into
// a SchemaError with the server's message
func photosObject(doc map[string]any) (map[string]any, error) {
	if stat, _ := doc["stat"].(string); stat == "fail" {
		msg, _ := doc["message"].(string)
		return nil, &SchemaError{Field: "stat", Message: msg}
	}

	photos, ok := doc["photos"].(map[string]any)
	if !ok {
		return nil, &SchemaError{Field: "photos", Message: "missing or not an object"}
	}
	return photos, nil
}

// numberValue accepts only a JSON number holding a count in
// [0, math.MaxInt32]
func numberValue(v any) (int, bool) {
	n, ok := v.(float64)
	if !ok || n != math.Trunc(n) || n < 0 || n > math.MaxInt32 {
		return 0, false
	}
	return int(n), true
}

// intValue accepts a JSON number or a string holding a count in
// [0, math.MaxInt32]
func intValue(v any) (int, bool) {
	if s, ok := v.(string); ok {
		i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
		if err != nil || i < 0 {
			return 0, false
		}
		return int(i), true
	}
	return numberValue(v)
}
