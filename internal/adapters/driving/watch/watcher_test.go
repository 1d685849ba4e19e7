package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type mockIngest struct {
	mu    sync.Mutex
	calls [][]domain.UploadedFile
	err   error
}

func (m *mockIngest) Ingest(_ context.Context, slug string, files []domain.UploadedFile) (*domain.IngestResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, files)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.IngestResult{Upserted: len(files), FilesProcessed: len(files)}, nil
}

func (m *mockIngest) names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, batch := range m.calls {
		for _, f := range batch {
			out = append(out, f.Name)
		}
	}
	return out
}

func startWatcher(t *testing.T, w *Watcher) (cancel func()) {
	t.Helper()
	ctx, cancelFn := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	return func() {
		cancelFn()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("watcher did not stop")
		}
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, Config{Slug: "acme"})
	assert.Error(t, err)

	_, err = New(&mockIngest{}, Config{})
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	w, err := New(&mockIngest{}, Config{Slug: "acme", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, DefaultDebounce, w.cfg.Debounce)
}

func TestWatcher_Run_Errors(t *testing.T) {
	w, err := New(&mockIngest{}, Config{Slug: "acme", Dir: "/non/existent/path"})
	require.NoError(t, err)
	err = w.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "drop folder error")

	file := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0600))
	w, err = New(&mockIngest{}, Config{Slug: "acme", Dir: file})
	require.NoError(t, err)
	assert.Error(t, w.Run(context.Background()))

	w, err = New(&mockIngest{}, Config{Slug: "acme", Dir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Run(context.Background()), ErrClosed)
}

func TestWatcher_IngestsNewFiles(t *testing.T) {
	dir := t.TempDir()
	ingest := &mockIngest{}
	w, err := New(ingest, Config{Slug: "acme", Dir: dir, Debounce: 50 * time.Millisecond})
	require.NoError(t, err)

	stop := startWatcher(t, w)
	defer stop()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "faq.md"), []byte("# FAQ"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".draft.md"), []byte("hidden"), 0600))

	require.Eventually(t, func() bool {
		return len(ingest.names()) == 1
	}, 2*time.Second, 20*time.Millisecond)

	assert.Equal(t, []string{"faq.md"}, ingest.names())
	stats := w.Stats()
	assert.Equal(t, 1, stats.Files)
	assert.Equal(t, 1, stats.Upserted)
}

func TestWatcher_InitialScan(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0700))

	ingest := &mockIngest{}
	w, err := New(ingest, Config{Slug: "acme", Dir: dir, InitialScan: true})
	require.NoError(t, err)

	var batches int
	var mu sync.Mutex
	w.OnBatch = func(*domain.IngestResult, error) {
		mu.Lock()
		batches++
		mu.Unlock()
	}

	stop := startWatcher(t, w)
	require.Eventually(t, func() bool {
		return len(ingest.names()) == 2
	}, 2*time.Second, 20*time.Millisecond)
	stop()

	assert.Equal(t, []string{"a.txt", "b.txt"}, ingest.names())
	mu.Lock()
	assert.Equal(t, 1, batches)
	mu.Unlock()
}

func TestWatcher_IngestErrorCounted(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.bin"), []byte{0}, 0600))

	ingest := &mockIngest{err: &domain.IngestError{Details: []string{"a.bin: unsupported format"}}}
	w, err := New(ingest, Config{Slug: "acme", Dir: dir, InitialScan: true})
	require.NoError(t, err)

	stop := startWatcher(t, w)
	require.Eventually(t, func() bool { return w.Stats().Errors == 1 }, 2*time.Second, 20*time.Millisecond)
	stop()

	var ingestErr *domain.IngestError
	assert.True(t, errors.As(ingest.err, &ingestErr))
	assert.Equal(t, 1, w.Stats().Batches)
}

func TestHandleEvent(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "doc.txt")
	hidden := filepath.Join(dir, ".doc.txt")
	backup := filepath.Join(dir, "doc.txt~")
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0600))
	require.NoError(t, os.WriteFile(hidden, []byte("x"), 0600))
	require.NoError(t, os.WriteFile(backup, []byte("x"), 0600))
	require.NoError(t, os.Mkdir(sub, 0700))

	tests := []struct {
		name string
		path string
		op   fsnotify.Op
		want bool
	}{
		{"create", file, fsnotify.Create, true},
		{"write", file, fsnotify.Write, true},
		{"write and chmod", file, fsnotify.Write | fsnotify.Chmod, true},
		{"chmod only", file, fsnotify.Chmod, false},
		{"remove", filepath.Join(dir, "gone.txt"), fsnotify.Remove, false},
		{"rename", file, fsnotify.Rename, false},
		{"hidden", hidden, fsnotify.Create, false},
		{"editor backup", backup, fsnotify.Write, false},
		{"directory", sub, fsnotify.Create, false},
		{"vanished before stat", filepath.Join(dir, "tmp.txt"), fsnotify.Create, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := New(&mockIngest{}, Config{Slug: "acme", Dir: dir})
			require.NoError(t, err)

			got := w.handleEvent(fsnotify.Event{Name: tt.path, Op: tt.op})

			assert.Equal(t, tt.want, got)
			_, pending := w.pending[tt.path]
			assert.Equal(t, tt.want, pending)
		})
	}
}

func TestFlush_RespectsDebounce(t *testing.T) {
	ingest := &mockIngest{}
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("a"), 0600))

	w, err := New(ingest, Config{Slug: "acme", Dir: dir, Debounce: time.Second})
	require.NoError(t, err)
	now := time.Now()
	w.pending[file] = now

	w.flush(context.Background(), now.Add(500*time.Millisecond))
	assert.Empty(t, ingest.names())

	w.flush(context.Background(), now.Add(time.Second))
	assert.Equal(t, []string{"a.txt"}, ingest.names())
	assert.Empty(t, w.pending)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Guide.PDF")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0600))

	f, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Guide.PDF", f.Name)
	assert.Equal(t, "application/pdf", f.MIMEType)
	assert.Equal(t, []byte("%PDF"), f.Content)

	_, err = ReadFile(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}
