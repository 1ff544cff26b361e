package probe

import (
	"context"
	"net"
	"strings"
)

// Resolver is the slice of DNS resolution the report needs. The indirection
// exists so tests can substitute a fake.
type Resolver interface {
	LookupIP(ctx context.Context, host string) ([]net.IP, error)
	LookupCNAME(ctx context.Context, host string) (string, error)
}

type netResolver struct {
	r *net.Resolver
}

// NewResolver returns a Resolver querying the given DNS server address
// ("8.8.8.8" or "8.8.8.8:53"). An empty server means the system resolver.
func NewResolver(server string) Resolver {
	if server == "" {
		return &netResolver{r: net.DefaultResolver}
	}
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}
	return &netResolver{r: &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, server)
		},
	}}
}

func (n *netResolver) LookupIP(ctx context.Context, host string) ([]net.IP, error) {
	return n.r.LookupIP(ctx, "ip", host)
}

func (n *netResolver) LookupCNAME(ctx context.Context, host string) (string, error) {
	return n.r.LookupCNAME(ctx, host)
}

// Record is one resolved DNS record for report purposes: the record type
// (A, AAAA, CNAME) and its destination value.
type Record struct {
	Type  string
	Value string
}

// LookupRecords resolves host and returns the records the report prints:
// the CNAME first when the name is an alias, then one record per address.
// An empty result means the name did not resolve.
func LookupRecords(ctx context.Context, r Resolver, host string) []Record {
	var records []Record

	if cname, err := r.LookupCNAME(ctx, host); err == nil {
		if trimmed := strings.TrimSuffix(cname, "."); trimmed != host && trimmed != "" {
			records = append(records, Record{Type: "CNAME", Value: cname})
		}
	}

	ips, err := r.LookupIP(ctx, host)
	if err != nil {
		return records
	}
	for _, ip := range ips {
		typ := "A"
		if ip.To4() == nil {
			typ = "AAAA"
		}
		records = append(records, Record{Type: typ, Value: ip.String()})
	}
	return records
}
