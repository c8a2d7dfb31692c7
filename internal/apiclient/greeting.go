package apiclient

import (
	"context"
	"net/http"
)

const greetingPath = "/ola"

// GreetingClient fetches the plain-text greeting.
type GreetingClient struct {
	client *Client
}

// NewGreetingClient creates a GreetingClient on top of c.
func NewGreetingClient(c *Client) *GreetingClient {
	return &GreetingClient{client: c}
}

// Greeting returns the backend greeting.
// GET /ola
func (g *GreetingClient) Greeting(ctx context.Context) (string, error) {
	return g.client.DoText(ctx, http.MethodGet, greetingPath)
}
