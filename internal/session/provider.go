package session

import (
	"context"
	"sync"

	"github.com/tradehall/tradehall/internal/core/orders"
	"github.com/tradehall/tradehall/internal/telemetry"
)

// Status of identity resolution. The order cache's initial load waits for
// a settled status — it never fires while resolution is in flight.
type Status string

const (
	StatusResolving       Status = "resolving"
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
)

// UserFetcher is the slice of the API the provider needs.
type UserFetcher interface {
	CurrentUser(ctx context.Context) (*orders.UserRef, error)
}

// Provider resolves and caches the current user's identity. It starts in
// StatusResolving; Update settles it either way and can be called again
// at any time to refresh.
type Provider struct {
	api UserFetcher

	mu     sync.RWMutex
	status Status
	user   *orders.UserRef
}

func New(api UserFetcher) *Provider {
	return &Provider{api: api, status: StatusResolving}
}

func (p *Provider) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// Settled reports whether identity resolution has finished, successfully
// or not.
func (p *Provider) Settled() bool {
	return p.Status() != StatusResolving
}

// Session returns the resolved user, nil when unauthenticated or still
// resolving.
func (p *Provider) Session() *orders.UserRef {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.user
}

// Update refreshes identity from the server and settles the status.
func (p *Provider) Update(ctx context.Context) error {
	user, err := p.api.CurrentUser(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.status = StatusUnauthenticated
		p.user = nil
		telemetry.Warnf("session: identity refresh failed: %v", err)
		return err
	}
	p.status = StatusAuthenticated
	p.user = user
	return nil
}
