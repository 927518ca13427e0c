package orderapi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tradehall/tradehall/internal/core/orders"
	"github.com/tradehall/tradehall/internal/telemetry"
)

// FetchPage retrieves one page of orders with embedded current-user data.
// When the server omits currentUser the client falls back to GET /user;
// a failed fallback is logged, not fatal, and leaves CurrentUser nil.
func (c *Client) FetchPage(ctx context.Context, page, limit int) (*orders.Page, error) {
	path := fmt.Sprintf("/orders?page=%d&limit=%d&includeUserData=true", page, limit)
	body, status, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	if status != 200 {
		return nil, fmt.Errorf("list orders: status=%d", status)
	}

	var resp orders.Page
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal orders page: %w", err)
	}

	if resp.CurrentUser == nil {
		user, err := c.CurrentUser(ctx)
		if err != nil {
			telemetry.Warnf("orderapi: current-user fallback failed: %v", err)
		} else {
			resp.CurrentUser = user
		}
	}
	return &resp, nil
}

// CurrentUser fetches the authenticated user. Concurrent callers are
// coalesced into a single request.
func (c *Client) CurrentUser(ctx context.Context) (*orders.UserRef, error) {
	v, err, _ := c.userGroup.Do("user", func() (any, error) {
		body, status, err := c.get(ctx, "/user")
		if err != nil {
			return nil, err
		}
		if status != 200 {
			return nil, fmt.Errorf("get user: status=%d", status)
		}
		var user orders.UserRef
		if err := json.Unmarshal(body, &user); err != nil {
			return nil, fmt.Errorf("unmarshal user: %w", err)
		}
		return &user, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*orders.UserRef), nil
}

// UpdateOrder submits an edit patch. The server may adjust status as a
// side effect of an order type change; the client re-learns that through
// notifications or the next refetch.
func (c *Client) UpdateOrder(ctx context.Context, id string, p orders.Patch) error {
	body, status, err := c.patch(ctx, "/orders/"+id, p)
	if err != nil {
		return err
	}
	if status != 200 {
		return fmt.Errorf("update order %s: status=%d body=%s", id, status, body)
	}
	telemetry.Metrics.EditsSubmitted.Inc()
	return nil
}
