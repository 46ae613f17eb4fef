package cache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pravshot/nhutils/internal/fetch"
	"github.com/pravshot/nhutils/internal/store"
	"github.com/pravshot/nhutils/internal/table"
	"github.com/pravshot/nhutils/internal/xpt"
)

// ArtifactExt is the extension of decoded artifacts.
const ArtifactExt = ".csv"

// Descriptor identifies one source file of one survey cycle.
type Descriptor struct {
	Year string
	File string
}

func (d Descriptor) String() string {
	return d.Year + "/" + d.File
}

// DecodeFunc converts a raw payload to a table.
type DecodeFunc func(data []byte) (*table.Table, error)

// Recorder receives an entry for every artifact the cache writes.
// *store.Store implements it.
type Recorder interface {
	RecordArtifact(ctx context.Context, a store.Artifact) error
}

// Stats counts cache outcomes since creation.
type Stats struct {
	Hits    int
	Fetches int
}

// Cache fetches, decodes and persists descriptors on demand.
// A Cache is not safe for concurrent use.
type Cache struct {
	dir      string
	baseURL  string
	fetcher  fetch.Fetcher
	decode   DecodeFunc
	recorder Recorder
	keepRaw  bool
	logger   *slog.Logger
	stats    Stats
}

// Option configures a Cache.
type Option func(*Cache)

// WithBaseURL sets the remote location files are fetched from.
func WithBaseURL(base string) Option {
	return func(c *Cache) {
		c.baseURL = base
	}
}

// WithDecoder replaces the transport file decoder.
func WithDecoder(fn DecodeFunc) Option {
	return func(c *Cache) {
		c.decode = fn
	}
}

// WithRecorder registers a ledger for written artifacts.
func WithRecorder(r Recorder) Option {
	return func(c *Cache) {
		c.recorder = r
	}
}

// WithKeepRaw controls whether downloaded payloads stay next to the
// artifacts (default true).
func WithKeepRaw(keep bool) Option {
	return func(c *Cache) {
		c.keepRaw = keep
	}
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = l
	}
}

// New creates a cache rooted at dir.
func New(dir string, f fetch.Fetcher, opts ...Option) *Cache {
	c := &Cache{
		dir:     dir,
		baseURL: fetch.DefaultBaseURL,
		fetcher: f,
		decode:  xpt.Decode,
		keepRaw: true,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dir returns the cache root.
func (c *Cache) Dir() string {
	return c.dir
}

// Stats returns hit and fetch counts.
func (c *Cache) Stats() Stats {
	return c.stats
}

// ArtifactName replaces the extension of a source file name with ArtifactExt.
func ArtifactName(file string) string {
	return strings.TrimSuffix(file, filepath.Ext(file)) + ArtifactExt
}

// Path returns the artifact path of d.
func (c *Cache) Path(d Descriptor) string {
	return filepath.Join(c.dir, d.Year, ArtifactName(d.File))
}

// RawPath returns where the downloaded payload of d is kept.
func (c *Cache) RawPath(d Descriptor) string {
	return filepath.Join(c.dir, d.Year, d.File)
}

// Has reports whether the artifact of d is present.
func (c *Cache) Has(d Descriptor) bool {
	info, err := os.Stat(c.Path(d))
	return err == nil && info.Mode().IsRegular()
}

// Load returns the decoded table of d, reading the artifact when present
// and otherwise fetching, decoding and persisting it first. Failures are
// *Error values; nothing is retried.
func (c *Cache) Load(ctx context.Context, d Descriptor) (*table.Table, error) {
	path := c.Path(d)
	if c.Has(d) {
		c.stats.Hits++
		c.logger.Debug("cache hit", "year", d.Year, "file", d.File, "path", path)
		return c.readArtifact(d, path)
	}

	url, err := fetch.FileURL(c.baseURL, d.Year, d.File)
	if err != nil {
		return nil, &Error{Kind: KindRetrieval, Descriptor: d, Err: err}
	}

	c.logger.Info("downloading file", "year", d.Year, "file", d.File, "url", url)
	c.stats.Fetches++
	raw, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, &Error{Kind: KindRetrieval, Descriptor: d, URL: url, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &Error{Kind: KindStorage, Descriptor: d, Err: err}
	}
	if c.keepRaw {
		if err := writeAtomic(c.RawPath(d), raw); err != nil {
			return nil, &Error{Kind: KindStorage, Descriptor: d, Err: err}
		}
	}

	tbl, err := c.decode(raw)
	if err != nil {
		return nil, &Error{Kind: KindDecode, Descriptor: d, URL: url, Err: err}
	}

	var buf bytes.Buffer
	if err := tbl.WriteCSV(&buf); err != nil {
		return nil, &Error{Kind: KindStorage, Descriptor: d, Err: err}
	}
	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return nil, &Error{Kind: KindStorage, Descriptor: d, Err: err}
	}
	c.logger.Debug("artifact written", "path", path, "rows", tbl.Len(), "columns", len(tbl.Columns))

	c.record(ctx, store.Artifact{
		Year:      d.Year,
		File:      d.File,
		Path:      path,
		SourceURL: url,
		Rows:      tbl.Len(),
		Columns:   len(tbl.Columns),
		SHA256:    checksum(buf.Bytes()),
		RunID:     RunIDFromContext(ctx),
	})
	return tbl, nil
}

func (c *Cache) readArtifact(d Descriptor, path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Kind: KindStorage, Descriptor: d, Err: err}
	}
	defer f.Close()

	tbl, err := table.ReadCSV(f)
	if err != nil {
		return nil, &Error{Kind: KindDecode, Descriptor: d, Err: fmt.Errorf("cached artifact %s: %w", path, err)}
	}
	return tbl, nil
}

// record writes a ledger entry. The ledger is informational, so failures
// are logged and otherwise ignored.
func (c *Cache) record(ctx context.Context, a store.Artifact) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.RecordArtifact(ctx, a); err != nil {
		c.logger.Warn("failed to record artifact", "year", a.Year, "file", a.File, "error", err)
	}
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// writeAtomic writes data to a temporary file beside path and renames it
// into place.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}
