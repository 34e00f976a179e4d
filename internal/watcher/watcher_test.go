package watcher

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/conneroisu/xslate/internal/config"
	"github.com/conneroisu/xslate/internal/logging"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeCreated, "created"},
		{EventTypeModified, "modified"},
		{EventTypeDeleted, "deleted"},
		{EventTypeRenamed, "renamed"},
		{EventType(42), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
		})
	}
}

func TestFilters(t *testing.T) {
	xsl := ExtensionFilter(".xsl", ".XSLT")

	testCases := []struct {
		name   string
		filter FileFilter
		path   string
		want   bool
	}{
		{"xsl accepted", xsl, "styles/page.xsl", true},
		{"extension case ignored", xsl, "styles/page.XSL", true},
		{"xslt accepted", xsl, "page.xslt", true},
		{"other rejected", xsl, "page.html", false},
		{"no extension rejected", xsl, "Makefile", false},
		{"visible file", NoHiddenFilter, "styles/page.xsl", true},
		{"editor lock file", NoHiddenFilter, "styles/.#page.xsl", false},
		{"outside git", NoGitFilter, "styles/page.xsl", true},
		{"inside git", NoGitFilter, "repo/.git/page.xsl", false},
		{"git at root", NoGitFilter, ".git/HEAD", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.filter(tc.path))
		})
	}
}

func TestCollapse(t *testing.T) {
	events := []ChangeEvent{
		{Type: EventTypeCreated, Path: "b.xsl"},
		{Type: EventTypeCreated, Path: "a.xsl"},
		{Type: EventTypeModified, Path: "b.xsl"},
		{Type: EventTypeDeleted, Path: "a.xsl"},
	}

	assert.Equal(t, []ChangeEvent{
		{Type: EventTypeDeleted, Path: "a.xsl"},
		{Type: EventTypeModified, Path: "b.xsl"},
	}, Collapse(events))
	assert.Empty(t, Collapse(nil))
}

func TestDebouncerBatchesBurst(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.run(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	for i := 0; i < 5; i++ {
		require.True(t, d.add(ctx, ChangeEvent{Type: EventTypeModified, Path: "page.xsl"}))
	}
	require.True(t, d.add(ctx, ChangeEvent{Type: EventTypeCreated, Path: "other.xsl"}))

	select {
	case batch := <-d.output:
		require.Len(t, batch, 2)
		assert.Equal(t, "other.xsl", batch[0].Path)
		assert.Equal(t, "page.xsl", batch[1].Path)
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer never flushed")
	}

	select {
	case batch := <-d.output:
		t.Fatalf("unexpected second batch: %v", batch)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestAddPath(t *testing.T) {
	w, err := New(10*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Stop()

	dir := t.TempDir()
	require.NoError(t, w.AddPath(dir))
	assert.Equal(t, []string{dir}, w.WatchList())

	assert.Error(t, w.AddPath(filepath.Join(dir, "missing")))
	assert.Error(t, w.AddPath("../outside"))
	assert.Error(t, w.AddPath(""))
}

func TestAddRecursiveSkipsGit(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "styles", "partials"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git", "objects"), 0o755))

	w, err := New(10*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Stop()

	require.NoError(t, w.AddRecursive(dir))
	assert.Equal(t, []string{
		dir,
		filepath.Join(dir, "styles"),
		filepath.Join(dir, "styles", "partials"),
	}, w.WatchList())
}

func TestStartStop(t *testing.T) {
	w, err := New(10*time.Millisecond, nil)
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()), "second start")

	require.NoError(t, w.Stop())
	assert.NoError(t, w.Stop(), "stop is idempotent")
	assert.Error(t, w.Start(context.Background()), "start after stop")
}

func TestStopWithoutStart(t *testing.T) {
	w, err := New(10*time.Millisecond, nil)
	require.NoError(t, err)
	assert.NoError(t, w.Stop())
}

func TestWatcherDeliversStylesheetChanges(t *testing.T) {
	dir := t.TempDir()

	w, err := FromConfig(config.WatchConfig{
		Paths:      []string{dir},
		Extensions: []string{".xsl"},
		Debounce:   50 * time.Millisecond,
	}, nil)
	require.NoError(t, err)
	defer w.Stop()

	batches := make(chan []ChangeEvent, 10)
	w.AddHandler(func(ctx context.Context, events []ChangeEvent) error {
		batches <- events
		return nil
	})
	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))
	page := filepath.Join(dir, "page.xsl")
	require.NoError(t, os.WriteFile(page, []byte("<xsl:stylesheet/>"), 0o600))

	timeout := time.After(5 * time.Second)
	for {
		select {
		case events := <-batches:
			require.Len(t, events, 1)
			assert.Equal(t, page, events[0].Path)
			if events[0].Size == int64(len("<xsl:stylesheet/>")) {
				return
			}
		case <-timeout:
			t.Fatal("no complete change delivered")
		}
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestHandlerErrorIsLogged(t *testing.T) {
	var logs syncBuffer
	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LevelDebug, Format: "json", Output: &logs})

	dir := t.TempDir()
	w, err := New(20*time.Millisecond, logger)
	require.NoError(t, err)
	w.AddFilter(ExtensionFilter(".xsl"))
	require.NoError(t, w.AddPath(dir))

	called := make(chan struct{}, 1)
	w.AddHandler(func(ctx context.Context, events []ChangeEvent) error {
		select {
		case called <- struct{}{}:
		default:
		}
		return errors.New("recompile failed")
	})
	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.xsl"), []byte("x"), 0o600))

	select {
	case <-called:
	case <-time.After(5 * time.Second):
		t.Fatal("handler never called")
	}
	require.NoError(t, w.Stop())

	assert.Contains(t, logs.String(), "change handler failed")
	assert.Contains(t, logs.String(), "recompile failed")
	assert.Contains(t, logs.String(), `"component":"watcher"`)
}

func TestContextCancelStopsDelivery(t *testing.T) {
	w, err := New(10*time.Millisecond, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	cancel()

	require.NoError(t, w.Stop())
}
