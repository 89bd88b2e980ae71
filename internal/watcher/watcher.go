package watcher

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

type EventKind int

const (
	// EventChanged fires when a tracked file's content hash differs from
	// the last one seen. Touching a file without editing it is silent.
	EventChanged EventKind = iota
	EventRemoved
)

func (k EventKind) String() string {
	switch k {
	case EventChanged:
		return "changed"
	case EventRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

type Fingerprint struct {
	Mod  time.Time
	Size int64
	Hash string
}

// Event carries the new file content for EventChanged so the consumer
// does not have to read it again.
type Event struct {
	Path string
	Kind EventKind
	Prev Fingerprint
	Curr Fingerprint
	Data []byte
}

type Options struct {
	Interval time.Duration
	Buffer   int
}

type source struct {
	fp      Fingerprint
	removed bool
}

type Watcher struct {
	mu       sync.RWMutex
	files    map[string]*source
	out      chan Event
	interval time.Duration
	stop     chan struct{}
	wg       sync.WaitGroup
	started  bool
	closed   bool
}

const (
	defaultInterval = 500 * time.Millisecond
	defaultBuffer   = 8
	hashPrefix      = "sha256:"
)

func New(opts Options) *Watcher {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	buf := opts.Buffer
	if buf <= 0 {
		buf = defaultBuffer
	}
	return &Watcher{
		files:    make(map[string]*source),
		out:      make(chan Event, buf),
		interval: interval,
	}
}

func (w *Watcher) Events() <-chan Event {
	return w.out
}

// Start polls every interval until Stop.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.started || w.closed {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.stop = make(chan struct{})
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()
		t := time.NewTicker(w.interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				w.Scan()
			case <-w.stop:
				return
			}
		}
	}()
}

// Stop ends polling and closes Events. It is safe to call twice.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	if w.started {
		close(w.stop)
	}
	w.mu.Unlock()
	w.wg.Wait()
	close(w.out)
}

// Track records data as the current content of path.
func (w *Watcher) Track(path string, data []byte) {
	clean, ok := cleanPath(path)
	if !ok {
		return
	}
	fp := Fingerprint{Size: int64(len(data)), Hash: hashBytes(data)}
	if info, err := os.Stat(clean); err == nil {
		fp.Mod = info.ModTime()
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.files[clean] = &source{fp: fp}
}

// Tracked lists watched paths in sorted order.
func (w *Watcher) Tracked() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, 0, len(w.files))
	for p := range w.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Scan checks every tracked file once. Events are dropped when the
// buffer is full.
func (w *Watcher) Scan() {
	for _, path := range w.Tracked() {
		if evt, ok := w.check(path); ok {
			w.emit(evt)
		}
	}
}

func (w *Watcher) check(path string) (Event, bool) {
	w.mu.RLock()
	src, ok := w.files[path]
	var prev source
	if ok {
		prev = *src
	}
	w.mu.RUnlock()
	if !ok {
		return Event{}, false
	}

	info, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || prev.removed {
			return Event{}, false
		}
		w.update(path, prev.fp, true)
		return Event{Path: path, Kind: EventRemoved, Prev: prev.fp}, true
	}
	if !prev.removed && info.ModTime().Equal(prev.fp.Mod) && info.Size() == prev.fp.Size {
		return Event{}, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Event{}, false
	}
	next := Fingerprint{Mod: info.ModTime(), Size: int64(len(data)), Hash: hashBytes(data)}
	w.update(path, next, false)
	if !prev.removed && next.Hash == prev.fp.Hash {
		return Event{}, false
	}
	return Event{Path: path, Kind: EventChanged, Prev: prev.fp, Curr: next, Data: data}, true
}

func (w *Watcher) update(path string, fp Fingerprint, removed bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if src, ok := w.files[path]; ok {
		src.fp = fp
		src.removed = removed
	}
}

func (w *Watcher) emit(evt Event) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return
	}
	select {
	case w.out <- evt:
	default:
	}
}

func cleanPath(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	clean := filepath.Clean(path)
	if clean == "." {
		return "", false
	}
	return clean, true
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hashPrefix + hex.EncodeToString(sum[:])
}
