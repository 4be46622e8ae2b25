package tui

import (
	"sync"

	"github.com/naveenspark/gatepass/internal/notify"
)

// navigator is the navigation handle handed to the notification router.
// Navigate only records the route; the App applies recorded routes at the
// end of each Update so screen changes stay on the bubbletea loop.
type navigator struct {
	mu     sync.Mutex
	ready  bool
	routes []notify.Route
}

func (n *navigator) Ready() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ready
}

func (n *navigator) Navigate(r notify.Route) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, r)
}

func (n *navigator) setReady(on bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ready = on
}

// take returns and clears the recorded routes.
func (n *navigator) take() []notify.Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	r := n.routes
	n.routes = nil
	return r
}
