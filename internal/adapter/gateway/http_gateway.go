// Package gateway issues backend-confirmed status transitions for orders.
package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/example/notivlaai-service/internal/domain"
)

// HTTPGateway talks to the backend REST API. Each call is one idempotent
// request; anything but a 2xx answer counts as a failed command.
type HTTPGateway struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPGateway(baseURL string) *HTTPGateway {
	return &HTTPGateway{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *HTTPGateway) SetInTransit(ctx context.Context, id int) error {
	return g.post(ctx, fmt.Sprintf("%s/api/order/%d/in-transit", g.BaseURL, id))
}

func (g *HTTPGateway) SetPickedUp(ctx context.Context, id int) error {
	return g.post(ctx, fmt.Sprintf("%s/api/order/%d/picked-up", g.BaseURL, id))
}

func (g *HTTPGateway) post(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCommand, err)
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCommand, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: backend returned %s", domain.ErrCommand, resp.Status)
	}
	return nil
}

var _ domain.CommandGateway = (*HTTPGateway)(nil)

// AlwaysOK confirms every transition without a backend; used in demo mode
// and in tests.
type AlwaysOK struct{}

func (AlwaysOK) SetInTransit(ctx context.Context, id int) error { return nil }
func (AlwaysOK) SetPickedUp(ctx context.Context, id int) error  { return nil }

var _ domain.CommandGateway = AlwaysOK{}
