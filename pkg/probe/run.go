package probe

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"siteops/pkg/catalog"
)

// Run executes one planned check and renders its report value ("PASS 200",
// "FAIL 503 (...)"). Detail scrapes only run after a passing check, matching
// the report the original tooling produced.
func (p *Prober) Run(ctx context.Context, d catalog.ProbeDescriptor, auth *Credentials, verbose bool) string {
	req := Request{
		Host:           d.Target,
		Addr:           d.ProbeAddr,
		Port:           d.Port,
		Path:           d.Path,
		Expect:         d.Expect,
		ExpectRedirect: d.ExpectRedirect,
		Auth:           auth,
	}

	log.WithField("url", d.URL()).Debug("running check")
	res := p.Do(ctx, req)

	value := res.String()
	if verbose && res.Detail != "" {
		value = fmt.Sprintf("%s, %s", value, res.Detail)
	}

	if res.Outcome == OutcomePass {
		if detail := p.scrapeDetail(ctx, d, auth); detail != "" {
			value = fmt.Sprintf("%s (%s)", value, detail)
		}
	} else if d.Kind == catalog.KindPerServer {
		value = fmt.Sprintf("%s (FAIL)", value)
	}
	return value
}

// scrapeDetail fetches the extra report detail some kinds carry. The scrape
// runs against port 80, the way the original wget scrapes did.
func (p *Prober) scrapeDetail(ctx context.Context, d catalog.ProbeDescriptor, auth *Credentials) string {
	switch d.Detail {
	case catalog.DetailServerStatus:
		body, err := p.Fetch(ctx, d.Target, 80, "/server-status", auth)
		if err != nil {
			log.WithError(err).WithField("host", d.Target).Debug("server-status scrape failed")
			return ""
		}
		return ScrapeRequestCount(body)
	case catalog.DetailPHPVersion:
		body, err := p.Fetch(ctx, d.Target, 80, "/php-info", auth)
		if err != nil {
			log.WithError(err).WithField("host", d.Target).Debug("php-info scrape failed")
			return ""
		}
		return ScrapePHPVersion(body)
	}
	return ""
}

// RunPlan executes a whole plan and returns one rendered value per
// descriptor, in plan order. With parallel set the probes run concurrently;
// the result order is still the plan order, so reports read the same either
// way.
func (p *Prober) RunPlan(ctx context.Context, plan []catalog.ProbeDescriptor, auth *Credentials, verbose, parallel bool) []string {
	values := make([]string, len(plan))

	if !parallel {
		for i, d := range plan {
			values[i] = p.Run(ctx, d, auth, verbose)
		}
		return values
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, d := range plan {
		i, d := i, d
		g.Go(func() error {
			values[i] = p.Run(ctx, d, auth, verbose)
			return nil
		})
	}
	// Workers only record results; there is nothing to fail with.
	_ = g.Wait()
	return values
}
