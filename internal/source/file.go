package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"reveal/internal/decision"
	"reveal/internal/logging"
)

// FileSource watches one JSON decision file. Every settled change is decoded
// and published; removing the file publishes nil. The decisions channel is
// closed when the watch loop ends.
type FileSource struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	path        string
	dir         string
	out         chan *decision.WireNudgeDecision
	last        []byte
	seen        bool
	dirty       bool
	dirtyAt     time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	closeOnce   sync.Once

	stats FileStats
}

// FileStats counts watcher activity.
type FileStats struct {
	Published     int
	Unchanged     int
	DecodeErrors  int
	WatchErrors   int
	LastEventTime time.Time
}

// NewFileSource creates a watcher for path. Call Start to begin.
func NewFileSource(path string) (*FileSource, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return &FileSource{
		watcher:     watcher,
		path:        abs,
		dir:         filepath.Dir(abs),
		out:         make(chan *decision.WireNudgeDecision, 4),
		debounceDur: 50 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

func (s *FileSource) Decisions() <-chan *decision.WireNudgeDecision {
	return s.out
}

// Path returns the watched file.
func (s *FileSource) Path() string {
	return s.path
}

// Start loads the current file, if any, and watches its directory. It does
// not block.
func (s *FileSource) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	if err := s.watch(); err != nil {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return err
	}
	logging.Source("watching decision file %s", s.path)

	go s.run(ctx)
	return nil
}

// watch follows the directory rather than the file so that editors which
// replace the file on save keep being observed.
func (s *FileSource) watch() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create decision dir: %w", err)
	}
	if err := s.watcher.Add(s.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}
	return nil
}

// Stop ends the watch loop, if it runs, and releases the watcher. It is safe
// to call whether or not Start succeeded.
func (s *FileSource) Stop() {
	s.mu.Lock()
	running := s.running
	s.running = false
	s.mu.Unlock()

	if running {
		close(s.stopCh)
		<-s.doneCh
	}

	s.closeOnce.Do(func() {
		if err := s.watcher.Close(); err != nil {
			logging.SourceError("error closing watcher: %v", err)
		}
		logging.Source("decision watcher stopped")
	})
}

// Stats returns a copy of the counters.
func (s *FileSource) Stats() FileStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *FileSource) run(ctx context.Context) {
	defer close(s.doneCh)
	defer close(s.out)

	if _, err := os.Stat(s.path); err == nil {
		s.reload(ctx)
	}

	ticker := time.NewTicker(s.debounceDur / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handleEvent(event)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logging.SourceError("watch error: %v", err)
			s.mu.Lock()
			s.stats.WatchErrors++
			s.mu.Unlock()
		case <-ticker.C:
			s.mu.Lock()
			due := s.dirty && time.Since(s.dirtyAt) >= s.debounceDur
			if due {
				s.dirty = false
			}
			s.mu.Unlock()
			if due {
				s.reload(ctx)
			}
		}
	}
}

func (s *FileSource) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != s.path {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	s.mu.Lock()
	s.dirty = true
	s.dirtyAt = time.Now()
	s.stats.LastEventTime = s.dirtyAt
	s.mu.Unlock()
}

func (s *FileSource) reload(ctx context.Context) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		data = nil
	} else if err != nil {
		logging.SourceError("failed to read %s: %v", s.path, err)
		return
	}

	s.mu.Lock()
	if s.seen && bytes.Equal(data, s.last) {
		s.stats.Unchanged++
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	d, err := decision.Decode(data)
	if err != nil {
		logging.SourceError("skipping %s: %v", s.path, err)
		s.mu.Lock()
		s.stats.DecodeErrors++
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.last = data
	s.seen = true
	s.stats.Published++
	s.mu.Unlock()

	select {
	case s.out <- d:
	case <-ctx.Done():
	case <-s.stopCh:
	}
}
