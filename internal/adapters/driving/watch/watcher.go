// Package watch ingests documents dropped into a local folder.
//
// A Watcher follows one directory with fsnotify and hands settled files to
// the ingest service in batches. Files are re-ingested whenever they change;
// chunk ids are deterministic so a rewrite overwrites the previous vectors.
package watch

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driving"
	"github.com/custodia-labs/helpdesk/internal/logger"
)

// Defaults.
const (
	DefaultDebounce = 500 * time.Millisecond
	tickInterval    = 100 * time.Millisecond
)

// ErrClosed is returned when Run is called on a closed watcher.
var ErrClosed = errors.New("watch: watcher is closed")

// Config configures a Watcher.
type Config struct {
	// Slug is the tenant receiving the documents.
	Slug string

	// Dir is the drop folder. Subdirectories are not followed.
	Dir string

	// Debounce is how long a file must stay unchanged before it is ingested.
	Debounce time.Duration

	// InitialScan ingests the files already present when Run starts.
	InitialScan bool
}

// Stats counts watcher activity.
type Stats struct {
	Batches  int
	Files    int
	Upserted int
	Errors   int
}

// Watcher feeds a drop folder into the ingest service.
type Watcher struct {
	cfg    Config
	ingest driving.IngestService

	mu      sync.Mutex
	pending map[string]time.Time
	stats   Stats
	closed  bool

	// OnBatch, when set, is called after every ingest call.
	OnBatch func(*domain.IngestResult, error)
}

// New creates a watcher for cfg.Dir.
func New(ingest driving.IngestService, cfg Config) (*Watcher, error) {
	if ingest == nil {
		return nil, errors.New("watch: ingest service is required")
	}
	if cfg.Slug == "" {
		return nil, fmt.Errorf("%w: tenant slug is required", domain.ErrBadRequest)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	return &Watcher{
		cfg:     cfg,
		ingest:  ingest,
		pending: make(map[string]time.Time),
	}, nil
}

// Run blocks until ctx is cancelled, ingesting files as they settle.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	w.mu.Unlock()

	info, err := os.Stat(w.cfg.Dir)
	if err != nil {
		return fmt.Errorf("watch: drop folder error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch: %s is not a directory", w.cfg.Dir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("watch: add %s: %w", w.cfg.Dir, err)
	}
	logger.Info("watch: ingesting %s into %s", w.cfg.Dir, w.cfg.Slug)

	if w.cfg.InitialScan {
		if err := w.scan(ctx); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Pending files are flushed so a quick Ctrl-C does not drop them.
			w.flush(context.WithoutCancel(ctx), time.Now().Add(w.cfg.Debounce))
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch: %v", err)

		case now := <-ticker.C:
			w.flush(ctx, now)
		}
	}
}

// Close stops future runs. A running Run exits when its context ends.
func (w *Watcher) Close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	return nil
}

// Stats returns a snapshot of the counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// handleEvent records create and write events on visible files.
// Removals are ignored; deleted documents stay indexed until re-uploaded.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return false
	}
	if isHidden(event.Name) {
		return false
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}

	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
	logger.Debug("watch: %s %s", strings.ToLower(event.Op.String()), event.Name)
	return true
}

// flush ingests every pending file untouched for the debounce window.
func (w *Watcher) flush(ctx context.Context, now time.Time) {
	w.mu.Lock()
	var ready []string
	for path, seen := range w.pending {
		if now.Sub(seen) >= w.cfg.Debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	if len(ready) == 0 {
		return
	}
	sort.Strings(ready)
	w.ingestPaths(ctx, ready)
}

func (w *Watcher) scan(ctx context.Context) error {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		return fmt.Errorf("watch: scan %s: %w", w.cfg.Dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.Type().IsRegular() && !isHidden(e.Name()) {
			paths = append(paths, filepath.Join(w.cfg.Dir, e.Name()))
		}
	}
	if len(paths) > 0 {
		w.ingestPaths(ctx, paths)
	}
	return nil
}

func (w *Watcher) ingestPaths(ctx context.Context, paths []string) {
	files := make([]domain.UploadedFile, 0, len(paths))
	var readErrs int
	for _, p := range paths {
		f, err := ReadFile(p)
		if err != nil {
			logger.Warn("watch: %v", err)
			readErrs++
			continue
		}
		files = append(files, f)
	}

	var (
		result *domain.IngestResult
		err    error
	)
	if len(files) > 0 {
		result, err = w.ingest.Ingest(ctx, w.cfg.Slug, files)
	}

	w.mu.Lock()
	w.stats.Errors += readErrs
	if len(files) > 0 {
		w.stats.Batches++
		w.stats.Files += len(files)
	}
	if result != nil {
		w.stats.Upserted += result.Upserted
		w.stats.Errors += len(result.Errors)
	}
	if err != nil {
		w.stats.Errors++
	}
	w.mu.Unlock()

	switch {
	case err != nil:
		logger.Error("watch: ingest failed: %v", err)
	case result != nil:
		logger.Info("watch: %d file(s), %d chunk(s) upserted", result.FilesProcessed, result.Upserted)
		for _, e := range result.Errors {
			logger.Warn("watch: %s", e)
		}
	}
	if w.OnBatch != nil && len(files) > 0 {
		w.OnBatch(result, err)
	}
}

// ReadFile loads a local file as an upload, guessing its MIME type from
// the extension. The extractors fall back to the extension when it is empty.
func ReadFile(path string) (domain.UploadedFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return domain.UploadedFile{}, fmt.Errorf("read %s: %w", path, err)
	}
	return domain.UploadedFile{
		Name:     filepath.Base(path),
		MIMEType: mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
		Content:  content,
	}, nil
}

func isHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~")
}
