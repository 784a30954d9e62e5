package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"
)

// Guard applies robots.txt rules and per-host request spacing. It is safe
// for concurrent use and can be shared by several fetchers.
type Guard struct {
	client    *http.Client
	userAgent string
	spacing   time.Duration

	mu       sync.Mutex
	robots   map[string]*robotstxt.Group
	limiters map[string]*rate.Limiter
}

// NewGuard returns a Guard. Zero spacing disables rate limiting.
func NewGuard(client *http.Client, userAgent string, spacing time.Duration) *Guard {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Guard{
		client:    client,
		userAgent: userAgent,
		spacing:   spacing,
		robots:    make(map[string]*robotstxt.Group),
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Admit blocks until u may be requested. It returns ErrDisallowed when
// robots.txt forbids the path, or the context error while waiting.
func (g *Guard) Admit(ctx context.Context, u *url.URL) error {
	allowed, err := g.Allowed(ctx, u)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%w: %s", ErrDisallowed, u.String())
	}
	return g.Wait(ctx, u.Host)
}

// Allowed reports whether robots.txt on u's host permits u's path.
// An unreachable robots.txt is treated as allow-all and not cached.
func (g *Guard) Allowed(ctx context.Context, u *url.URL) (bool, error) {
	host := strings.ToLower(u.Host)

	g.mu.Lock()
	group, ok := g.robots[host]
	g.mu.Unlock()

	if !ok {
		var err error
		group, err = g.loadRobots(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			return true, nil
		}
		g.mu.Lock()
		g.robots[host] = group
		g.mu.Unlock()
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return group.Test(path), nil
}

func (g *Guard) loadRobots(ctx context.Context, u *url.URL) (*robotstxt.Group, error) {
	robotsURL := url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/robots.txt"}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return nil, err
	}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, err
	}
	return data.FindGroup(g.userAgent), nil
}

// Wait blocks until the host's limiter grants a token.
func (g *Guard) Wait(ctx context.Context, host string) error {
	if g.spacing <= 0 {
		return nil
	}
	return g.limiter(strings.ToLower(host)).Wait(ctx)
}

func (g *Guard) limiter(host string) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Every(g.spacing), 1)
		g.limiters[host] = l
	}
	return l
}

// Reset forgets cached robots rules and limiter state.
func (g *Guard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.robots = make(map[string]*robotstxt.Group)
	g.limiters = make(map[string]*rate.Limiter)
}
