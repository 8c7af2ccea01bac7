package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// upstreamPinger reports an upstream ready when its liveness endpoint answers 200.
type upstreamPinger struct {
	base   string
	client *http.Client
}

func (p *upstreamPinger) PingContext(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(p.base, "/")+"/health/live", nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upstream %s: %s", p.base, resp.Status)
	}
	return nil
}
