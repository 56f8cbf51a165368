package geolocation

import (
	"context"
	"sync"
	"time"
)

// DefaultCenter is where the map starts when no fix arrives: Lima, Peru.
var DefaultCenter = Position{Latitude: -12.046374, Longitude: -77.042793}

// DefaultTimeout bounds how long a resolve waits for the source.
const DefaultTimeout = 10 * time.Second

// Position is a WGS84 coordinate pair.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// State is the observable snapshot of a resolve. While Loading, Position
// holds the default center so consumers always have somewhere to point.
type State struct {
	Position Position `json:"position"`
	Loading  bool     `json:"loading"`
	Err      error    `json:"-"`
}

// Source produces a device position. Implementations may block until the
// context is done.
type Source interface {
	Current(ctx context.Context) (Position, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (Position, error)

func (f SourceFunc) Current(ctx context.Context) (Position, error) { return f(ctx) }

// Provider resolves a position asynchronously and notifies subscribers of
// state changes. A fix that never arrives leaves subscribers on the default
// center.
type Provider struct {
	source  Source
	timeout time.Duration

	mu     sync.Mutex
	state  State
	subs   map[int]chan State
	nextID int
	cancel context.CancelFunc
	closed bool
}

func NewProvider(source Source, timeout time.Duration) *Provider {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Provider{
		source:  source,
		timeout: timeout,
		state:   State{Position: DefaultCenter},
		subs:    make(map[int]chan State),
	}
}

// Resolve starts one asynchronous position lookup. It returns immediately;
// the result arrives through State/Subscribe. A resolve already in flight is
// cancelled first.
func (p *Provider) Resolve(ctx context.Context) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	p.cancel = cancel
	p.state = State{Position: p.state.Position, Loading: true}
	p.notifyLocked()
	p.mu.Unlock()

	go func() {
		defer cancel()
		pos, err := p.source.Current(ctx)

		p.mu.Lock()
		defer p.mu.Unlock()
		if p.closed {
			return
		}
		if err != nil {
			// Timeout or denial: fall back to the fixed center.
			p.state = State{Position: DefaultCenter, Loading: false, Err: err}
		} else {
			p.state = State{Position: pos, Loading: false}
		}
		p.notifyLocked()
	}()
}

// State returns the current snapshot.
func (p *Provider) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Subscribe registers for state updates. The returned cancel func must be
// called when the consumer unmounts; the channel is buffered and stale
// snapshots are dropped rather than blocking the provider.
func (p *Provider) Subscribe() (<-chan State, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	ch := make(chan State, 1)
	p.subs[id] = ch
	ch <- p.state
	return ch, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if sub, ok := p.subs[id]; ok {
			delete(p.subs, id)
			close(sub)
		}
	}
}

// Close cancels any in-flight resolve and closes all subscriber channels.
// No notifications are delivered after Close returns.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	if p.cancel != nil {
		p.cancel()
	}
	for id, ch := range p.subs {
		delete(p.subs, id)
		close(ch)
	}
}

func (p *Provider) notifyLocked() {
	for _, ch := range p.subs {
		select {
		case ch <- p.state:
		default:
			// Drop the stale snapshot; the latest one replaces it below.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- p.state:
			default:
			}
		}
	}
}
