// Package loader fetches and parses the region feature collection, tracking
// load state for the lifecycle manager and the host UI.
package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"choromap/internal/config"
	"choromap/internal/geo"
	"choromap/internal/logging"
	"choromap/internal/ratelimit"
)

// Phase is the coarse load state consumed by the host UI.
type Phase int

const (
	Idle Phase = iota
	Loading
	Ready
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// State is a snapshot of the loader. Collection is non-nil only when Ready;
// Reason is non-empty only when Failed.
type State struct {
	Phase      Phase
	Collection *geo.Collection
	Reason     string
}

// Loader drives idle → loading → ready/failed for one data source. A ready
// result is cached for the lifetime of the loader, so repeated Load calls
// never refetch.
type Loader struct {
	source string
	timing config.TimingConfig
	client *http.Client
	notify func()

	mu         sync.Mutex
	state      State
	memo       ratelimit.Memo[string, *geo.Collection]
	retryTimer *time.Timer
	autoTried  bool
	closed     bool
}

// New builds a loader for the given source, which may be an http(s) URL or
// a local file path. notify fires after every state change and may be nil.
func New(timing config.TimingConfig, source string, notify func()) *Loader {
	if notify == nil {
		notify = func() {}
	}
	return &Loader{
		source: source,
		timing: timing,
		client: &http.Client{Timeout: timing.FetchTimeout()},
		notify: notify,
		state:  State{Phase: Idle},
	}
}

// State returns the current snapshot.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Collection returns the loaded data when ready.
func (l *Loader) Collection() (*geo.Collection, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.Phase != Ready {
		return nil, false
	}
	return l.state.Collection, true
}

// Load starts a fetch unless one is running or a result is already cached.
func (l *Loader) Load() {
	l.mu.Lock()
	if l.closed || l.state.Phase == Loading || l.state.Phase == Ready {
		l.mu.Unlock()
		return
	}
	l.state = State{Phase: Loading}
	auto := l.autoTried
	l.mu.Unlock()

	l.notify()
	go l.run(auto)
}

// Retry restarts a failed load. It is always available to the host,
// independent of the automatic retry, and cancels a pending one.
func (l *Loader) Retry() {
	l.mu.Lock()
	if l.closed || l.state.Phase == Loading {
		l.mu.Unlock()
		return
	}
	if l.retryTimer != nil {
		l.retryTimer.Stop()
		l.retryTimer = nil
	}
	l.autoTried = false
	if l.state.Phase == Ready {
		l.mu.Unlock()
		return
	}
	l.state = State{Phase: Loading}
	l.mu.Unlock()

	l.notify()
	go l.run(false)
}

// Close cancels the pending automatic retry. Safe to call repeatedly.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	if l.retryTimer != nil {
		l.retryTimer.Stop()
		l.retryTimer = nil
	}
}

func (l *Loader) run(wasAutoRetry bool) {
	col, err := l.memo.Do(l.source, func() (*geo.Collection, error) {
		return fetch(l.client, l.source, l.timing.FetchTimeout())
	})

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	if err != nil {
		l.state = State{Phase: Failed, Reason: err.Error()}
		logging.L().Error("load failed", "source", l.source, "err", err)
		// One automatic retry per failure streak; after that the host
		// must trigger Retry explicitly.
		if !wasAutoRetry && !l.autoTried {
			l.autoTried = true
			l.retryTimer = time.AfterFunc(l.timing.RetryDelay(), func() {
				l.mu.Lock()
				if l.closed || l.state.Phase != Failed {
					l.mu.Unlock()
					return
				}
				l.retryTimer = nil
				l.state = State{Phase: Loading}
				l.mu.Unlock()
				l.notify()
				go l.run(true)
			})
		}
		l.mu.Unlock()
		l.notify()
		return
	}
	l.state = State{Phase: Ready, Collection: col}
	l.autoTried = false
	l.mu.Unlock()
	logging.L().Info("collection loaded", "source", l.source, "regions", len(col.Regions))
	l.notify()
}

func fetch(client *http.Client, source string, timeout time.Duration) (*geo.Collection, error) {
	var body []byte
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", source, err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", source, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("fetching %s: unexpected status %s", source, resp.Status)
		}
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", source, err)
		}
	} else {
		var err error
		body, err = os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", source, err)
		}
	}

	col, err := geo.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parsing feature collection: %w", err)
	}
	return col, nil
}
