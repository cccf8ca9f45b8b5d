package sync

import (
	"context"
	"net/http"
	stdsync "sync"
	"time"

	"github.com/eparkir/setoran/internal/logging"
)

// Prober answers whether the network currently looks reachable.
type Prober interface {
	Probe(ctx context.Context) bool
}

// HTTPProber probes a URL; any HTTP response at all counts as online.
type HTTPProber struct {
	client *http.Client
	url    string
}

// NewHTTPProber creates a prober against url.
func NewHTTPProber(url string, timeout time.Duration) *HTTPProber {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProber{
		client: &http.Client{Timeout: timeout},
		url:    url,
	}
}

// Probe implements Prober.
func (p *HTTPProber) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

// Watcher tracks the online/offline axis by probing periodically and
// reports transitions to a callback. The callback runs on the watcher
// goroutine, one invocation at a time.
type Watcher struct {
	prober   Prober
	interval time.Duration
	onChange func(ctx context.Context, online bool)

	mu        stdsync.Mutex
	isRunning bool
	stopCh    chan struct{}
	wg        stdsync.WaitGroup

	online bool
	known  bool
}

// NewWatcher creates a Watcher. onChange fires on every transition and once
// for the initial probe result.
func NewWatcher(prober Prober, interval time.Duration, onChange func(ctx context.Context, online bool)) *Watcher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Watcher{
		prober:   prober,
		interval: interval,
		onChange: onChange,
		stopCh:   make(chan struct{}),
	}
}

// Start begins probing. The first probe runs immediately, so an app that
// starts online triggers its first sync pass without waiting an interval.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return
	}
	w.isRunning = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.loop(ctx)

	logging.Info("Connectivity watcher started", logging.Fields{
		"interval": w.interval.String(),
	})
}

// Stop stops probing and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return
	}
	w.isRunning = false
	w.mu.Unlock()

	close(w.stopCh)
	w.wg.Wait()
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	w.check(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

func (w *Watcher) check(ctx context.Context) {
	online := w.prober.Probe(ctx)

	w.mu.Lock()
	changed := !w.known || online != w.online
	w.online = online
	w.known = true
	w.mu.Unlock()

	if changed && w.onChange != nil {
		w.onChange(ctx, online)
	}
}
