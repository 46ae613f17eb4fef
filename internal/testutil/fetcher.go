package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/pravshot/nhutils/internal/fetch"
)

// FakeFetcher serves in-memory payloads keyed by URL and records every call.
// Unknown URLs fail like a 404.
//
// Thread-safety: safe for concurrent use.
type FakeFetcher struct {
	mu    sync.Mutex
	base  string
	files map[string][]byte
	errs  map[string]error
	calls []string
}

// NewFakeFetcher creates a fetcher whose ServeFile and FailFile URLs are
// built from base (fetch.DefaultBaseURL when empty).
func NewFakeFetcher(base string) *FakeFetcher {
	if base == "" {
		base = fetch.DefaultBaseURL
	}
	return &FakeFetcher{
		base:  base,
		files: make(map[string][]byte),
		errs:  make(map[string]error),
	}
}

// URL returns the URL a cache using the same base would request.
func (f *FakeFetcher) URL(year, file string) string {
	u, err := fetch.FileURL(f.base, year, file)
	if err != nil {
		panic(err)
	}
	return u
}

// ServeFile registers the payload of (year, file).
func (f *FakeFetcher) ServeFile(year, file string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[f.URL(year, file)] = data
}

// FailFile makes fetching (year, file) return err.
func (f *FakeFetcher) FailFile(year, file string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[f.URL(year, file)] = err
}

// Fetch implements fetch.Fetcher.
func (f *FakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	data, ok := f.files[url]
	if !ok {
		return nil, &fetch.StatusError{URL: url, StatusCode: 404}
	}
	return data, nil
}

// Calls returns every requested URL in order.
func (f *FakeFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount returns how many times (year, file) was requested.
func (f *FakeFetcher) CallCount(year, file string) int {
	url := f.URL(year, file)
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == url {
			n++
		}
	}
	return n
}

// Reset forgets recorded calls.
func (f *FakeFetcher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *FakeFetcher) String() string {
	return fmt.Sprintf("FakeFetcher(%d files)", len(f.files))
}
