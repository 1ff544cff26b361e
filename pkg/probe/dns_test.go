package probe

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type fakeResolver struct {
	ips   []net.IP
	cname string
	err   error
}

func (f *fakeResolver) LookupIP(ctx context.Context, host string) ([]net.IP, error) {
	return f.ips, f.err
}

func (f *fakeResolver) LookupCNAME(ctx context.Context, host string) (string, error) {
	if f.cname == "" {
		return "", errors.New("no cname")
	}
	return f.cname, nil
}

func TestLookupRecords(t *testing.T) {
	tests := []struct {
		name     string
		resolver *fakeResolver
		host     string
		want     []Record
	}{
		{
			name: "a and aaaa records",
			resolver: &fakeResolver{ips: []net.IP{
				net.ParseIP("10.1.2.3"),
				net.ParseIP("2001:db8::1"),
			}},
			host: "web.x.com",
			want: []Record{
				{Type: "A", Value: "10.1.2.3"},
				{Type: "AAAA", Value: "2001:db8::1"},
			},
		},
		{
			name: "cname alias reported first",
			resolver: &fakeResolver{
				cname: "edge.cdn.example.",
				ips:   []net.IP{net.ParseIP("10.9.9.9")},
			},
			host: "web.x.com",
			want: []Record{
				{Type: "CNAME", Value: "edge.cdn.example."},
				{Type: "A", Value: "10.9.9.9"},
			},
		},
		{
			name: "self cname suppressed",
			resolver: &fakeResolver{
				cname: "web.x.com.",
				ips:   []net.IP{net.ParseIP("10.0.0.1")},
			},
			host: "web.x.com",
			want: []Record{{Type: "A", Value: "10.0.0.1"}},
		},
		{
			name:     "resolution failure yields no records",
			resolver: &fakeResolver{err: errors.New("NXDOMAIN")},
			host:     "missing.x.com",
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LookupRecords(context.Background(), tt.resolver, tt.host)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("records mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
