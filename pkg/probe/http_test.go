package probe

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"
)

func testServer(t *testing.T) (host string, port int) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/check":
			fmt.Fprintln(w, "All good: PAGE_LOAD_STRING present")
		case "/plain":
			fmt.Fprintln(w, "nothing of interest")
		case "/moved":
			http.Redirect(w, r, "/check", http.StatusMovedPermanently)
		case "/secure":
			user, pass, ok := r.BasicAuth()
			if !ok || user != "test" || pass != "hunter2" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			fmt.Fprintln(w, "PAGE_LOAD_STRING")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parsing test server URL: %v", err)
	}
	h, p, err := net.SplitHostPort(u.Host)
	if err != nil {
		t.Fatalf("splitting test server address: %v", err)
	}
	port, err = strconv.Atoi(p)
	if err != nil {
		t.Fatalf("parsing test server port: %v", err)
	}
	return h, port
}

func TestProberClassification(t *testing.T) {
	host, port := testServer(t)
	prober := New(2*time.Second, 0)

	tests := []struct {
		name        string
		req         Request
		wantOutcome Outcome
		wantCode    int
	}{
		{
			name:        "passing page check",
			req:         Request{Host: host, Port: port, Path: "/check"},
			wantOutcome: OutcomePass,
			wantCode:    200,
		},
		{
			name:        "expected string found",
			req:         Request{Host: host, Port: port, Path: "/check", Expect: "PAGE_LOAD_STRING"},
			wantOutcome: OutcomePass,
			wantCode:    200,
		},
		{
			name:        "expected string missing fails despite 200",
			req:         Request{Host: host, Port: port, Path: "/plain", Expect: "PAGE_LOAD_STRING"},
			wantOutcome: OutcomeFail,
			wantCode:    200,
		},
		{
			name:        "not found",
			req:         Request{Host: host, Port: port, Path: "/nope"},
			wantOutcome: OutcomeFail,
			wantCode:    404,
		},
		{
			name:        "redirect expected and present",
			req:         Request{Host: host, Port: port, Path: "/moved", ExpectRedirect: true},
			wantOutcome: OutcomePass,
			wantCode:    301,
		},
		{
			name:        "redirect expected but page answers directly",
			req:         Request{Host: host, Port: port, Path: "/check", ExpectRedirect: true},
			wantOutcome: OutcomeFail,
			wantCode:    200,
		},
		{
			name: "basic auth accepted",
			req: Request{
				Host: host, Port: port, Path: "/secure",
				Auth: &Credentials{Username: "test", Password: "hunter2"},
			},
			wantOutcome: OutcomePass,
			wantCode:    200,
		},
		{
			name:        "basic auth required but absent",
			req:         Request{Host: host, Port: port, Path: "/secure"},
			wantOutcome: OutcomeFail,
			wantCode:    401,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := prober.Do(context.Background(), tt.req)
			if res.Outcome != tt.wantOutcome || res.Code != tt.wantCode {
				t.Errorf("got %s %d (%q), want %s %d", res.Outcome, res.Code, res.Diagnostic, tt.wantOutcome, tt.wantCode)
			}
		})
	}
}

func TestProberTransportFailure(t *testing.T) {
	prober := New(500*time.Millisecond, 0)
	res := prober.Do(context.Background(), Request{Host: "127.0.0.1", Port: 1, Path: "/"})

	if res.Outcome != OutcomeFail {
		t.Errorf("want FAIL, got %s", res.Outcome)
	}
	if res.Code != 0 || res.Diagnostic == "" {
		t.Errorf("transport failure should carry a diagnostic and no code, got %+v", res)
	}
	if !strings.Contains(res.String(), "FAIL") {
		t.Errorf("rendered result should lead with FAIL, got %q", res.String())
	}
}

func TestProberRetriesTransportFailures(t *testing.T) {
	prober := New(200*time.Millisecond, 2)
	prober.RetryInterval = 10 * time.Millisecond

	start := time.Now()
	res := prober.Do(context.Background(), Request{Host: "127.0.0.1", Port: 1, Path: "/"})
	if res.Outcome != OutcomeFail || res.Diagnostic == "" {
		t.Errorf("want transport FAIL after retries, got %+v", res)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("retries exceeded their budget")
	}
}

func TestProberDialsProbeAddr(t *testing.T) {
	host, port := testServer(t)

	// The URL names a host that does not resolve; the probe must reach the
	// server because Addr overrides the dial target.
	prober := New(2*time.Second, 0)
	res := prober.Do(context.Background(), Request{
		Host: "lb-target.invalid",
		Addr: host,
		Port: port,
		Path: "/check",
	})
	if res.Outcome != OutcomePass || res.Code != 200 {
		t.Errorf("probe through Addr override failed: %+v", res)
	}
}

func TestFetch(t *testing.T) {
	host, port := testServer(t)
	prober := New(2*time.Second, 0)

	body, err := prober.Fetch(context.Background(), host, port, "/check", nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.Contains(body, "PAGE_LOAD_STRING") {
		t.Errorf("unexpected body %q", body)
	}

	if _, err := prober.Fetch(context.Background(), host, port, "/nope", nil); err == nil {
		t.Error("Fetch of a 404 should fail")
	}
}

func TestScrapeRequestCount(t *testing.T) {
	body := "<html>\n<dt>3 requests currently being processed, 57 idle workers</dt>\n</html>"
	got := ScrapeRequestCount(body)
	want := "3 current, 57 idle workers"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	if got := ScrapeRequestCount("<html>no status here</html>"); got != "" {
		t.Errorf("want empty scrape, got %q", got)
	}
}

func TestScrapePHPVersion(t *testing.T) {
	body := "<tr><td>\n<h1 class=\"p\">PHP Version 8.1.27</h1>\n</td></tr>"
	if got := ScrapePHPVersion(body); got != "8.1.27" {
		t.Errorf("got %q, want 8.1.27", got)
	}
}
