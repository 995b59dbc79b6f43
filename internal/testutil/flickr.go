package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// RESTPath is where FakeFlickr serves the search endpoint
const RESTPath = "/services/rest/"

// FakeFlickr is an httptest server speaking the subset of the Flickr REST
// API the pipeline uses. Photos are served as small JPEGs under /photos/.
type FakeFlickr struct {
	Server *httptest.Server

	mu sync.Mutex

	// Pages is reported as photos.pages
	Pages int
	// Total is reported as photos.total; empty means the number of photos
	Total string
	// Photos is the number of entries on every page
	Photos int
	// MissingURL lists entry indices served without url_m
	MissingURL map[int]bool
	// BrokenImage lists entry indices whose image is not decodable
	BrokenImage map[int]bool
	// SearchBody, when set, is returned verbatim for every search
	SearchBody string

	searches []url.Values
	images   []string
	t        testing.TB
}

// NewFakeFlickr starts a server with three pages of three photos each. The
// server is closed when the test ends.
func NewFakeFlickr(t testing.TB) *FakeFlickr {
	t.Helper()

	f := &FakeFlickr{
		Pages:       3,
		Photos:      3,
		MissingURL:  map[int]bool{},
		BrokenImage: map[int]bool{},
		t:           t,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(RESTPath, f.handleSearch)
	mux.HandleFunc("/photos/", f.handlePhoto)

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)

	return f
}

// BaseURL is the search endpoint URL
func (f *FakeFlickr) BaseURL() string {
	return f.Server.URL + RESTPath
}

// Searches returns the query of every search request received so far
func (f *FakeFlickr) Searches() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.searches...)
}

// Images returns the path of every image request received so far
func (f *FakeFlickr) Images() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.images...)
}

// PhotoURL is the url_m served for entry index on page
func (f *FakeFlickr) PhotoURL(page, index int) string {
	return fmt.Sprintf("%s/photos/%d_%d_m.jpg", f.Server.URL, page, index)
}

func (f *FakeFlickr) handleSearch(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	query := r.URL.Query()
	f.searches = append(f.searches, query)

	w.Header().Set("Content-Type", "application/json")
	if f.SearchBody != "" {
		fmt.Fprint(w, f.SearchBody)
		return
	}

	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}

	entries := make([]map[string]any, 0, f.Photos)
	for i := 0; i < f.Photos; i++ {
		entry := map[string]any{
			"id":    fmt.Sprintf("%d%02d", page, i),
			"title": fmt.Sprintf("photo %d on page %d", i, page),
		}
		if !f.MissingURL[i] {
			entry["url_m"] = f.PhotoURL(page, i)
		}
		entries = append(entries, entry)
	}

	total := f.Total
	if total == "" {
		total = strconv.Itoa(f.Pages * f.Photos)
	}

	doc := map[string]any{
		"photos": map[string]any{
			"page":    page,
			"pages":   f.Pages,
			"perpage": f.Photos,
			"total":   total,
			"photo":   entries,
		},
		"stat": "ok",
	}
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		f.t.Errorf("fake flickr: failed to encode response: %v", err)
	}
}

func (f *FakeFlickr) handlePhoto(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.images = append(f.images, r.URL.Path)
	broken := f.BrokenImage
	f.mu.Unlock()

	// /photos/<page>_<index>_m.jpg
	name := strings.TrimPrefix(r.URL.Path, "/photos/")
	var page, index int
	if _, err := fmt.Sscanf(name, "%d_%d_m.jpg", &page, &index); err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	if broken[index] {
		w.Write([]byte("this is not an image"))
		return
	}
	data, err := encodeJPEG(uint8(page*16 + index))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Write(data)
}
