// Package connectivity tracks the client's online/offline state and fans
// out transition events to subscribers. The monitor only reports what the
// platform tells it; a "false positive online" is expected and handled by the
// sync engine's per-request failure path, never assumed impossible here.
package connectivity

import (
	"sync"
	"time"

	"github.com/mkarpushin/go-journal-keeper/internal/logger"
)

// Transition describes a single online/offline state change.
type Transition struct {
	Online bool
	At     time.Time
}

// subscriberBuffer bounds each subscription channel. A subscriber that falls
// this far behind loses the oldest transitions; the current state is always
// available via Online().
const subscriberBuffer = 8

// Monitor holds the current connectivity state and notifies subscribers on
// every state change. Repeated identical signals are suppressed: a
// subscriber sees exactly one event per actual transition.
type Monitor struct {
	logger *logger.Logger

	mu     sync.Mutex
	online bool
	subs   map[chan Transition]struct{}
}

// NewMonitor creates a Monitor with the given initial state. No event is
// delivered for the initial state itself.
func NewMonitor(initiallyOnline bool, log *logger.Logger) *Monitor {
	return &Monitor{
		logger: log,
		online: initiallyOnline,
		subs:   make(map[chan Transition]struct{}),
	}
}

// Online reports the current connectivity state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline records a platform connectivity signal. If the state actually
// changes, every subscriber receives one Transition event; repeating the
// current state is a no-op.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.online == online {
		return
	}
	m.online = online

	event := Transition{Online: online, At: time.Now()}
	for ch := range m.subs {
		select {
		case ch <- event:
		default:
			// Slow subscriber: drop its oldest event to make room for the
			// newest, keeping the channel's view of state changes current.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- event:
			default:
			}
			m.logger.Warn().Bool("online", online).Msg("connectivity subscriber lagging, dropped oldest event")
		}
	}
}

// Subscribe registers a new subscriber and returns its event channel. The
// caller must eventually call Unsubscribe with the same channel.
func (m *Monitor) Subscribe() <-chan Transition {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan Transition, subscriberBuffer)
	m.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription created by Subscribe and closes its
// channel. Unsubscribing an unknown channel is a no-op.
func (m *Monitor) Unsubscribe(sub <-chan Transition) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for ch := range m.subs {
		if ch == sub {
			delete(m.subs, ch)
			close(ch)
			return
		}
	}
}
