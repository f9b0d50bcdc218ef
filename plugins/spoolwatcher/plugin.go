// Package spoolwatcher serves spawn requests from a directory. Each
// *.json file dropped into the directory spawns one worker, runs the
// listed tasks on it and optionally dissolves it. The request is then
// renamed to .done or .failed and a .result.json file is written beside it.
package spoolwatcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/specialists/pkg/log"
	"github.com/bft-labs/specialists/pkg/specialists"
)

// File suffixes.
const (
	requestSuffix = ".json"
	resultSuffix  = ".result.json"
	doneSuffix    = ".done"
	failedSuffix  = ".failed"
)

// Plugin implements spool directory watching.
type Plugin struct {
	mu sync.Mutex

	// Configuration
	dir           string
	debounceDelay time.Duration

	// Runtime state
	coordinator specialists.Coordinator
	logger      specialists.Logger
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	pending     map[string]*time.Timer
	queue       chan string
	closed      bool
	processed   int
	failed      int
}

// Config holds configuration options for the spool watcher plugin.
type Config struct {
	// Dir is the spool directory. It is created if missing.
	Dir string

	// DebounceDelay is how long a file must stay unchanged before it is read.
	// Default: 100 milliseconds
	DebounceDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults. Dir must still be set.
func DefaultConfig() Config {
	return Config{DebounceDelay: 100 * time.Millisecond}
}

// New creates a new spool watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	return &Plugin{
		dir:           cfg.Dir,
		debounceDelay: cfg.DebounceDelay,
		logger:        log.NewNoopLogger(),
		pending:       make(map[string]*time.Timer),
		queue:         make(chan string, 64),
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "spoolwatcher"
}

// Initialize creates the spool directory and starts watching it.
func (p *Plugin) Initialize(ctx context.Context, cfg specialists.PluginConfig) error {
	p.mu.Lock()
	p.coordinator = cfg.Coordinator
	if cfg.Logger != nil {
		p.logger = log.With(cfg.Logger, log.String("plugin", p.Name()))
	}
	p.closed = false
	p.mu.Unlock()

	if p.dir == "" || p.coordinator == nil {
		p.logger.Warn("spool watcher disabled: no directory configured")
		return nil
	}
	if err := os.MkdirAll(p.dir, 0o700); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(p.dir); err != nil {
		watcher.Close()
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("spool watcher plugin initialized", log.String("dir", p.dir))

	p.wg.Add(2)
	go p.watchLoop(watchCtx, watcher)
	go p.processLoop(watchCtx)

	p.scan()
	return nil
}

// Shutdown stops watching. Requests still in the directory are picked up
// on the next start.
func (p *Plugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	for name, t := range p.pending {
		t.Stop()
		delete(p.pending, name)
	}
	p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	return nil
}

// Counts returns how many requests succeeded and failed.
func (p *Plugin) Counts() (processed, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processed, p.failed
}

// scan queues requests left in the directory from before startup.
func (p *Plugin) scan() {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		p.logger.Error("spool scan failed", log.Err(err))
		return
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && isRequest(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	if len(names) > 0 {
		p.logger.Info("spool backlog found", log.Strings("files", names))
	}
	for _, name := range names {
		p.debounce(filepath.Join(p.dir, name))
	}
}

func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer p.wg.Done()
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !isRequest(filepath.Base(event.Name)) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			p.debounce(event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("spool watcher error", log.Err(err))
		}
	}
}

// debounce (re)arms the timer for path. The file is queued once it has
// been quiet for the debounce delay.
func (p *Plugin) debounce(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	if t, ok := p.pending[path]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(p.debounceDelay, func() {
		p.mu.Lock()
		if p.pending[path] == t {
			delete(p.pending, path)
		}
		p.mu.Unlock()

		select {
		case p.queue <- path:
		default:
			p.logger.Warn("spool queue full, request deferred", log.String("file", path))
			p.debounce(path)
		}
	})
	p.pending[path] = t
}

func (p *Plugin) processLoop(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-p.queue:
			p.process(ctx, path)
		}
	}
}

// process serves one request file.
func (p *Plugin) process(ctx context.Context, path string) {
	req, err := readRequest(path)
	if errors.Is(err, os.ErrNotExist) {
		return
	}

	var resp Response
	if err == nil {
		resp, err = p.serve(ctx, req)
	}
	if errors.Is(err, specialists.ErrNotRunning) || ctx.Err() != nil {
		// Left in place for the next start.
		return
	}

	base := strings.TrimSuffix(path, requestSuffix)
	suffix := doneSuffix
	if err != nil {
		resp.Error = err.Error()
		suffix = failedSuffix
	}
	if werr := writeResponse(base+resultSuffix, resp); werr != nil {
		p.logger.Error("spool result write failed", log.String("file", path), log.Err(werr))
	}
	if rerr := os.Rename(path, base+suffix); rerr != nil {
		p.logger.Error("spool rename failed", log.String("file", path), log.Err(rerr))
	}

	p.mu.Lock()
	if err != nil {
		p.failed++
	} else {
		p.processed++
	}
	p.mu.Unlock()

	if err != nil {
		p.logger.Warn("spool request failed", log.String("file", filepath.Base(path)), log.Err(err))
		return
	}
	p.logger.Info("spool request served",
		log.String("file", filepath.Base(path)),
		log.Worker(resp.WorkerID),
		log.Int("tasks", len(resp.Results)))
}

func (p *Plugin) serve(ctx context.Context, req Request) (Response, error) {
	w, err := p.coordinator.Spawn(ctx, req.Category, req.Subtype, req.Context, nil)
	if err != nil {
		return Response{}, err
	}
	resp := Response{WorkerID: w.ID(), Fallback: p.coordinator.IsFallback(w.ID())}

	for _, task := range req.Tasks {
		res, err := p.coordinator.Execute(ctx, w, task)
		if err != nil {
			if req.Dissolve {
				_, _ = p.coordinator.Dissolve(ctx, w, specialists.ReasonCompleted)
			}
			return resp, err
		}
		resp.Results = append(resp.Results, res)
	}

	if req.Dissolve {
		ok, err := p.coordinator.Dissolve(ctx, w, specialists.ReasonCompleted)
		if err != nil {
			return resp, err
		}
		resp.Dissolved = ok
	}
	return resp, nil
}

func isRequest(name string) bool {
	return strings.HasSuffix(name, requestSuffix) && !strings.HasSuffix(name, resultSuffix)
}

var _ specialists.Plugin = (*Plugin)(nil)
