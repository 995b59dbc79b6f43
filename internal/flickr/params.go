package flickr

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"codeberg.org/snonux/virtualtourist/internal/geo"
)

const (
	photoSearchMethod = "flickr.photos.search"

	// MaxPerPage is the largest page the search API serves
	MaxPerPage = 500
)

// SearchQuery describes one photo search. Exactly one of text or bbox is set;
// use TextQuery or BoxQuery to build one.
type SearchQuery struct {
	text    string
	bbox    string
	perPage int
	page    int
}

// TextQuery searches by free text
func TextQuery(text string, count int) (SearchQuery, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return SearchQuery{}, fmt.Errorf("search text cannot be empty")
	}
	return SearchQuery{text: text, perPage: clampPerPage(count)}, nil
}

// BoxQuery searches inside a bounding box
func BoxQuery(box geo.BoundingBox, count int) SearchQuery {
	return SearchQuery{bbox: box.String(), perPage: clampPerPage(count)}
}

// WithPage returns a copy of q asking for the given page
func (q SearchQuery) WithPage(page int) SearchQuery {
	q.page = page
	return q
}

func (q SearchQuery) Text() string { return q.text }
func (q SearchQuery) BBox() string { return q.bbox }
func (q SearchQuery) PerPage() int { return q.perPage }
func (q SearchQuery) Page() int    { return q.page }

// Params returns the query-specific search arguments
func (q SearchQuery) Params() map[string]string {
	params := make(map[string]string, 3)
	if q.text != "" {
		params["text"] = q.text
	} else {
		params["bbox"] = q.bbox
	}
	params["per_page"] = strconv.Itoa(q.perPage)
	if q.page > 0 {
		params["page"] = strconv.Itoa(q.page)
	}
	return params
}

func clampPerPage(count int) int {
	if count < 1 {
		return 1
	}
	return min(count, MaxPerPage)
}

// EncodeParams builds a query string from params. Values are percent-encoded,
// pairs are joined with '&' in key order, and the result starts with '?'
// unless params is empty.
func EncodeParams(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+escapeValue(params[k]))
	}
	return "?" + strings.Join(pairs, "&")
}

func escapeValue(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}
