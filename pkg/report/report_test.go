package report

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWriterLayout(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	w.Banner("acme")
	w.Env("prd")
	w.Line("Host", "acme-prd.x.com")
	w.Line("Page-String", "PASS 200")

	want := "################################\n" +
		"App: acme\n" +
		" prd:\n" +
		"  Host:            acme-prd.x.com\n" +
		"  Page-String:     PASS 200\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("report layout mismatch (-want +got):\n%s", diff)
	}
}
