package probe

import (
	"context"
	"strings"
	"testing"
	"time"

	"siteops/pkg/catalog"
)

func TestRunPlanPreservesOrder(t *testing.T) {
	host, port := testServer(t)
	prober := New(2*time.Second, 0)

	plan := []catalog.ProbeDescriptor{
		{Kind: catalog.KindHTTPCheck, Label: "Check-HTTP", Target: host, Port: port, Path: "/check", Expect: "PAGE_LOAD_STRING"},
		{Kind: catalog.KindHealth, Label: "Health", Target: host, Port: port, Path: "/nope"},
		{Kind: catalog.KindHTTPCheck, Label: "Check-HTTP", Target: host, Port: port, Path: "/plain", Expect: "PAGE_LOAD_STRING"},
	}

	for _, parallel := range []bool{false, true} {
		values := prober.RunPlan(context.Background(), plan, nil, false, parallel)
		if len(values) != len(plan) {
			t.Fatalf("parallel=%v: got %d values, want %d", parallel, len(values), len(plan))
		}
		if !strings.HasPrefix(values[0], "PASS 200") {
			t.Errorf("parallel=%v: first check should pass, got %q", parallel, values[0])
		}
		if !strings.HasPrefix(values[1], "FAIL 404") {
			t.Errorf("parallel=%v: second check should fail with 404, got %q", parallel, values[1])
		}
		if !strings.HasPrefix(values[2], "FAIL 200") {
			t.Errorf("parallel=%v: third check should fail on the missing string, got %q", parallel, values[2])
		}
	}
}

func TestRunAppendsVerboseDetail(t *testing.T) {
	host, port := testServer(t)
	prober := New(2*time.Second, 0)

	d := catalog.ProbeDescriptor{
		Kind: catalog.KindHTTPSCheck, Label: "Check-HTTPS",
		Target: host, Port: port, Path: "/check",
	}
	value := prober.Run(context.Background(), d, nil, true)
	if !strings.HasPrefix(value, "PASS 200, ") || !strings.Contains(value, "response time") {
		t.Errorf("verbose run should include the response detail, got %q", value)
	}
}
