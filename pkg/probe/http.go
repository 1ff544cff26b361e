// Package probe executes planned site checks: HTTP probes with a structured
// pass/fail contract, raw content fetches for detail scraping, and DNS
// lookups for the report's resolution lines.
package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

// Outcome is the normalized result class of a probe.
type Outcome string

const (
	OutcomePass Outcome = "PASS"
	OutcomeFail Outcome = "FAIL"
)

// Credentials carries HTTP basic-auth credentials.
type Credentials struct {
	Username string
	Password string
}

// Result is the structured outcome of one HTTP probe. Transport-level
// failures (timeout, refused connection, TLS error) carry a Diagnostic and
// no status code.
type Result struct {
	Outcome    Outcome
	Code       int
	Detail     string // response detail, shown in verbose reports
	Diagnostic string // transport failure text; set only on such failures
}

func (r Result) String() string {
	if r.Diagnostic != "" {
		return fmt.Sprintf("%s %s", r.Outcome, r.Diagnostic)
	}
	return fmt.Sprintf("%s %d", r.Outcome, r.Code)
}

// Request describes one HTTP probe. The scheme follows the port: 443 is
// probed over TLS, anything else in the clear. Addr, when set, is dialed in
// place of Host while the URL and Host header keep Host (the load-balancer
// check's arrangement).
type Request struct {
	Host string
	Addr string
	Port int
	Path string

	// Expect, when non-empty, must appear in the response body for the
	// probe to pass. ExpectRedirect makes 3xx the passing class instead
	// of 2xx.
	Expect         string
	ExpectRedirect bool
	Auth           *Credentials
}

const maxBodyBytes = 1 << 20

// Prober issues HTTP probes. Retries > 0 enables re-attempting
// transport-level failures at RetryInterval until the attempts are used up;
// HTTP-level failures are never retried.
type Prober struct {
	Timeout       time.Duration
	Retries       int
	RetryInterval time.Duration
}

func New(timeout time.Duration, retries int) *Prober {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Prober{Timeout: timeout, Retries: retries, RetryInterval: time.Second}
}

// Do runs the probe and classifies the response.
func (p *Prober) Do(ctx context.Context, req Request) Result {
	if p.Retries <= 0 {
		return p.attempt(ctx, req)
	}

	var res Result
	attempts := 0
	budget := time.Duration(p.Retries+1)*p.Timeout + time.Duration(p.Retries)*p.RetryInterval
	err := wait.PollUntilContextTimeout(ctx, p.RetryInterval, budget, true, func(ctx context.Context) (bool, error) {
		res = p.attempt(ctx, req)
		attempts++
		if res.Diagnostic != "" && attempts <= p.Retries {
			return false, nil
		}
		return true, nil
	})
	if err != nil && res == (Result{}) {
		res = Result{Outcome: OutcomeFail, Diagnostic: err.Error()}
	}
	return res
}

func (p *Prober) attempt(ctx context.Context, req Request) Result {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	client := &http.Client{
		Transport: p.transport(req),
		// Redirect policy is a classification concern, not a transport
		// one: always report the first response.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.url(), nil)
	if err != nil {
		return Result{Outcome: OutcomeFail, Diagnostic: err.Error()}
	}
	if req.Auth != nil {
		httpReq.SetBasicAuth(req.Auth.Username, req.Auth.Password)
	}

	start := time.Now()
	resp, err := client.Do(httpReq)
	if err != nil {
		return Result{Outcome: OutcomeFail, Diagnostic: diagnostic(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Result{Outcome: OutcomeFail, Diagnostic: diagnostic(err)}
	}
	elapsed := time.Since(start)

	return classify(req, resp.StatusCode, string(body), elapsed)
}

// classify applies the pass/fail contract: the status class must match the
// request's expectation, and the expected substring (if any) must be in the
// body.
func classify(req Request, code int, body string, elapsed time.Duration) Result {
	passClass := 2
	if req.ExpectRedirect {
		passClass = 3
	}
	if code/100 != passClass {
		return Result{Outcome: OutcomeFail, Code: code}
	}
	if req.Expect != "" && !strings.Contains(body, req.Expect) {
		return Result{
			Outcome: OutcomeFail,
			Code:    code,
			Detail:  fmt.Sprintf("string %q not found", req.Expect),
		}
	}
	return Result{
		Outcome: OutcomePass,
		Code:    code,
		Detail:  fmt.Sprintf("%d bytes in %.3f second response time", len(body), elapsed.Seconds()),
	}
}

func (p *Prober) transport(req Request) *http.Transport {
	t := &http.Transport{
		DisableKeepAlives: true,
	}
	if req.Port == 443 {
		t.TLSClientConfig = &tls.Config{ServerName: req.Host}
	}
	if req.Addr != "" && req.Addr != req.Host {
		dialAddr := net.JoinHostPort(req.Addr, fmt.Sprintf("%d", req.Port))
		dialer := &net.Dialer{}
		t.DialContext = func(ctx context.Context, network, _ string) (net.Conn, error) {
			return dialer.DialContext(ctx, network, dialAddr)
		}
	}
	return t
}

func (r Request) url() string {
	scheme := "http"
	if r.Port == 443 {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d%s", scheme, r.Host, r.Port, r.Path)
}

// diagnostic flattens a transport error into the short form used in FAIL
// report lines.
func diagnostic(err error) string {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	msg := err.Error()
	// url.Error wraps carry the full request URL; keep the interesting tail.
	if i := strings.LastIndex(msg, ": "); i >= 0 && i+2 < len(msg) {
		return msg[i+2:]
	}
	return msg
}
