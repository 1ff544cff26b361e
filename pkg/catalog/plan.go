package catalog

import "fmt"

// CheckKind enumerates the planned check types.
type CheckKind string

const (
	KindPageString   CheckKind = "page-string"
	KindRedirect     CheckKind = "redirect"
	KindHTTPRedirect CheckKind = "http-redirect-to-https"
	KindHTTPCheck    CheckKind = "http-check"
	KindHTTPSCheck   CheckKind = "https-check"
	KindServerStatus CheckKind = "server-status"
	KindServerInfo   CheckKind = "server-info"
	KindPHPInfo      CheckKind = "php-info"
	KindLoadBalancer CheckKind = "load-balancer-check"
	KindPerServer    CheckKind = "per-server-check"
	KindHealth       CheckKind = "health-check"
)

// DetailKind names the extra content scrape attached to a passing check.
type DetailKind string

const (
	DetailNone         DetailKind = ""
	DetailServerStatus DetailKind = "server-status"
	DetailPHPVersion   DetailKind = "php-version"
)

// ProbeDescriptor is a single planned check, awaiting execution.
type ProbeDescriptor struct {
	Kind  CheckKind
	Label string // report label, e.g. "Page-String" or "Server prd1"

	// Target is the hostname the URL and Host header use. ProbeAddr, when
	// set, is the address actually dialed (load-balancer checks dial the
	// balancer while keeping the site's Host header).
	Target    string
	ProbeAddr string
	Port      int
	Path      string

	// Expect, when non-empty, is a substring the response body must
	// contain. ExpectRedirect flips the passing status class from 2xx
	// to 3xx.
	Expect         string
	ExpectRedirect bool
	Detail         DetailKind
}

// URL renders the probed URL; the scheme follows the port, as the original
// tooling's conventions had it.
func (d ProbeDescriptor) URL() string {
	scheme := "http"
	if d.Port == 443 {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d%s", scheme, d.Target, d.Port, d.Path)
}

// ResolveHostname computes the effective hostname for a site+environment.
// First match wins:
//
//	host present, non-empty: <host>.<domain>, short <host>
//	host present, empty:     <domain> for both
//	host absent:             <site>-<env>.<domain>, short <site>-<env>
//
// A missing domain, where the rule needs one, is a *ConfigError.
func ResolveHostname(site, envTag string, rec EnvRecord) (hostname, short string, err error) {
	switch {
	case rec.Host != nil && *rec.Host != "":
		if rec.Domain == "" {
			return "", "", &ConfigError{Site: site, Env: envTag, Field: "domain"}
		}
		return *rec.Host + "." + rec.Domain, *rec.Host, nil
	case rec.Host != nil:
		if rec.Domain == "" {
			return "", "", &ConfigError{Site: site, Env: envTag, Field: "domain"}
		}
		return rec.Domain, rec.Domain, nil
	default:
		if rec.Domain == "" {
			return "", "", &ConfigError{Site: site, Env: envTag, Field: "domain"}
		}
		short = site + "-" + envTag
		return short + "." + rec.Domain, short, nil
	}
}

// phpVersionMarker is both the expected page substring and the scrape anchor
// for php-info checks.
const phpVersionMarker = "PHP Version"

// Planner builds probe plans. PageString is the substring page checks look
// for in a loaded page.
type Planner struct {
	PageString string
}

// checkSpec ties one boolean flag to the field it needs and the descriptors
// it emits. The fixed planSteps order is the plan order.
type checkSpec struct {
	flag  string
	value func(EnvRecord) *bool
	// needs returns the name of a required record field that is absent,
	// or "" when the record satisfies this check.
	needs func(EnvRecord) string
	emit  func(p Planner, envTag string, rec EnvRecord, hostname, short string) []ProbeDescriptor
}

var planSteps = []checkSpec{
	{
		flag:  "check-string",
		value: func(r EnvRecord) *bool { return r.CheckString },
		needs: func(r EnvRecord) string { return requiring(r.Path == nil, "path") },
		emit: func(p Planner, envTag string, rec EnvRecord, hostname, short string) []ProbeDescriptor {
			return []ProbeDescriptor{{
				Kind: KindPageString, Label: "Page-String",
				Target: hostname, Port: 443, Path: *rec.Path, Expect: p.PageString,
			}}
		},
	},
	{
		flag:  "check-redirect",
		value: func(r EnvRecord) *bool { return r.CheckRedirect },
		needs: func(r EnvRecord) string { return requiring(r.Redirect == nil, "redirect") },
		emit: func(p Planner, envTag string, rec EnvRecord, hostname, short string) []ProbeDescriptor {
			return []ProbeDescriptor{{
				Kind: KindRedirect, Label: "Redirect",
				Target: hostname, Port: 443, Path: "/", ExpectRedirect: true,
			}}
		},
	},
	{
		flag:  "check-http-redir",
		value: func(r EnvRecord) *bool { return r.CheckHTTPRedir },
		needs: func(r EnvRecord) string { return "" },
		emit: func(p Planner, envTag string, rec EnvRecord, hostname, short string) []ProbeDescriptor {
			return []ProbeDescriptor{{
				Kind: KindHTTPRedirect, Label: "HTTP-Redirect",
				Target: hostname, Port: 80, Path: "/", ExpectRedirect: true,
			}}
		},
	},
	{
		flag:  "check-http",
		value: func(r EnvRecord) *bool { return r.CheckHTTP },
		needs: func(r EnvRecord) string { return "" },
		emit: func(p Planner, envTag string, rec EnvRecord, hostname, short string) []ProbeDescriptor {
			return []ProbeDescriptor{{
				Kind: KindHTTPCheck, Label: "Check-HTTP",
				Target: hostname, Port: 80, Path: "/check", Expect: p.PageString,
			}}
		},
	},
	{
		flag:  "check-https",
		value: func(r EnvRecord) *bool { return r.CheckHTTPS },
		needs: func(r EnvRecord) string { return "" },
		emit: func(p Planner, envTag string, rec EnvRecord, hostname, short string) []ProbeDescriptor {
			return []ProbeDescriptor{{
				Kind: KindHTTPSCheck, Label: "Check-HTTPS",
				Target: hostname, Port: 443, Path: "/check", Expect: p.PageString,
			}}
		},
	},
	{
		flag:  "check-status",
		value: func(r EnvRecord) *bool { return r.CheckStatus },
		needs: func(r EnvRecord) string { return "" },
		emit: func(p Planner, envTag string, rec EnvRecord, hostname, short string) []ProbeDescriptor {
			return []ProbeDescriptor{{
				Kind: KindServerStatus, Label: "Server-Status",
				Target: hostname, Port: 443, Path: "/server-status", Detail: DetailServerStatus,
			}}
		},
	},
	{
		flag:  "check-info",
		value: func(r EnvRecord) *bool { return r.CheckInfo },
		needs: func(r EnvRecord) string { return "" },
		emit: func(p Planner, envTag string, rec EnvRecord, hostname, short string) []ProbeDescriptor {
			return []ProbeDescriptor{{
				Kind: KindServerInfo, Label: "Server-Info",
				Target: hostname, Port: 443, Path: "/server-info",
			}}
		},
	},
	{
		flag:  "check-php",
		value: func(r EnvRecord) *bool { return r.CheckPHP },
		needs: func(r EnvRecord) string { return "" },
		emit: func(p Planner, envTag string, rec EnvRecord, hostname, short string) []ProbeDescriptor {
			return []ProbeDescriptor{{
				Kind: KindPHPInfo, Label: "PHP-Info",
				Target: hostname, Port: 443, Path: "/php-info",
				Expect: phpVersionMarker, Detail: DetailPHPVersion,
			}}
		},
	},
	{
		flag:  "check-lb",
		value: func(r EnvRecord) *bool { return r.CheckLB },
		needs: func(r EnvRecord) string { return requiring(r.LB == nil, "lb") },
		emit: func(p Planner, envTag string, rec EnvRecord, hostname, short string) []ProbeDescriptor {
			return []ProbeDescriptor{{
				Kind: KindLoadBalancer, Label: "LB-Check",
				Target: hostname, ProbeAddr: *rec.LB, Port: 443, Path: "/check",
			}}
		},
	},
	{
		flag:  "check-servers",
		value: func(r EnvRecord) *bool { return r.CheckServers },
		needs: func(r EnvRecord) string { return requiring(r.Servers == nil, "servers") },
		emit: func(p Planner, envTag string, rec EnvRecord, hostname, short string) []ProbeDescriptor {
			descs := make([]ProbeDescriptor, 0, len(rec.Servers))
			for _, suffix := range rec.Servers {
				server := short + suffix + "." + rec.Domain
				descs = append(descs, ProbeDescriptor{
					Kind: KindPerServer, Label: "Server " + envTag + suffix,
					Target: server, Port: 80, Path: "/check",
					Expect: p.PageString, Detail: DetailServerStatus,
				})
			}
			return descs
		},
	},
	{
		flag:  "check-health",
		value: func(r EnvRecord) *bool { return r.CheckHealth },
		needs: func(r EnvRecord) string { return requiring(r.Health == nil, "health") },
		emit: func(p Planner, envTag string, rec EnvRecord, hostname, short string) []ProbeDescriptor {
			return []ProbeDescriptor{{
				Kind: KindHealth, Label: "Health",
				Target: hostname, Port: 443, Path: *rec.Health,
			}}
		},
	},
}

func requiring(missing bool, field string) string {
	if missing {
		return field
	}
	return ""
}

// BuildPlan turns one environment record into its ordered probe plan.
// Validation is eager: every flag must be present, and every enabled check's
// required field must be set, before any descriptor is emitted.
func (p Planner) BuildPlan(site, envTag string, rec EnvRecord, hostname, short string) ([]ProbeDescriptor, error) {
	for _, step := range planSteps {
		enabled := step.value(rec)
		if enabled == nil {
			return nil, &ConfigError{Site: site, Env: envTag, Field: step.flag}
		}
		if !*enabled {
			continue
		}
		if field := step.needs(rec); field != "" {
			return nil, &ConfigError{Site: site, Env: envTag, Field: field}
		}
	}

	var plan []ProbeDescriptor
	for _, step := range planSteps {
		if *step.value(rec) {
			plan = append(plan, step.emit(p, envTag, rec, hostname, short)...)
		}
	}
	return plan, nil
}
