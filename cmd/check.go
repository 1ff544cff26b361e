package cmd

import (
	"context"
	"fmt"
	"slices"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"siteops/pkg/catalog"
	"siteops/pkg/probe"
	"siteops/pkg/report"
)

type checkOptions struct {
	File       string
	Username   string
	Password   string
	NoAuth     bool
	PageString string
	DNSServer  string
	Timeout    time.Duration
	Retries    int
	Parallel   bool
	Verbose    bool

	Dev      bool
	Tst      bool
	Stg      bool
	Pre      bool
	Prd      bool
	Public   bool
	Internal bool
}

var checkOpts checkOptions

var checkCmd = &cobra.Command{ // nolint:gochecknoglobals
	PersistentPreRunE: configLogger,
	Use:               "check [site ...]",
	Short:             "Probe every configured site environment and print a status report",
	SilenceUsage:      false,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Load(checkOpts.File)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		filter := envFilter()
		planner := catalog.Planner{PageString: checkOpts.PageString}
		prober := probe.New(checkOpts.Timeout, checkOpts.Retries)
		resolver := probe.NewResolver(checkOpts.DNSServer)
		rep := report.NewWriter(cmd.OutOrStdout())

		var auth *probe.Credentials
		if !checkOpts.NoAuth {
			auth = &probe.Credentials{Username: checkOpts.Username, Password: checkOpts.Password}
		}

		for _, site := range cat.SiteNames() {
			if len(args) > 0 && !slices.Contains(args, site) {
				continue
			}

			rep.Banner(site)
			for _, tag := range cat.EnvTags(site) {
				if !filter.Match(tag) {
					continue
				}
				rep.Env(tag)
				checkEnvironment(ctx, rep, planner, prober, resolver, auth, site, tag, cat.Sites[site][tag])
			}
		}

		return nil
	},
}

// checkEnvironment reports one site environment: the resolved hostname, its
// DNS records, and each planned check's outcome. Configuration errors fail
// this environment only.
func checkEnvironment(ctx context.Context, rep *report.Writer, planner catalog.Planner, prober *probe.Prober, resolver probe.Resolver, auth *probe.Credentials, site, tag string, rec catalog.EnvRecord) {
	hostname, short, err := catalog.ResolveHostname(site, tag, rec)
	if err != nil {
		log.WithError(err).Errorf("❌ skipping %s-%s", site, tag)
		return
	}
	rep.Line("Host", hostname)

	if records := probe.LookupRecords(ctx, resolver, hostname); len(records) > 0 {
		for _, r := range records {
			rep.Line("DNS", fmt.Sprintf("%s %s", r.Type, r.Value))
		}
	} else {
		rep.Line("DNS", "FAIL")
	}

	plan, err := planner.BuildPlan(site, tag, rec, hostname, short)
	if err != nil {
		log.WithError(err).Errorf("❌ skipping checks for %s-%s", site, tag)
		return
	}

	values := prober.RunPlan(ctx, plan, auth, checkOpts.Verbose, checkOpts.Parallel)
	for i, d := range plan {
		if d.Kind == catalog.KindPageString || d.Kind == catalog.KindRedirect {
			rep.Line("URL", d.URL())
		}
		value := values[i]
		if d.Expect != "" && d.Kind != catalog.KindPHPInfo {
			value = fmt.Sprintf("%s (%s)", value, d.Expect)
		}
		rep.Line(d.Label, value)
	}
}

func envFilter() catalog.TagFilter {
	filter := catalog.TagFilter{}
	for tag, selected := range map[string]bool{
		"dev":      checkOpts.Dev,
		"tst":      checkOpts.Tst,
		"stg":      checkOpts.Stg,
		"pre":      checkOpts.Pre,
		"prd":      checkOpts.Prd,
		"public":   checkOpts.Public,
		"internal": checkOpts.Internal,
	} {
		if selected {
			filter.Add(tag)
		}
	}
	return filter
}

func init() {
	checkCmd.Flags().StringVarP(&checkOpts.File, "file", "f", "sites.yml", "site data file")
	checkCmd.Flags().StringVar(&checkOpts.Username, "username", "test", "basic-auth username")
	checkCmd.Flags().StringVar(&checkOpts.Password, "password", "", "basic-auth password")
	checkCmd.Flags().BoolVar(&checkOpts.NoAuth, "noauth", false, "disable basic authentication")
	checkCmd.Flags().StringVar(&checkOpts.PageString, "page-string", "PAGE_LOAD_STRING", "substring a loaded page must contain")
	checkCmd.Flags().StringVar(&checkOpts.DNSServer, "dns-server", "8.8.8.8", "DNS server for record lookups")
	checkCmd.Flags().DurationVar(&checkOpts.Timeout, "timeout", 5*time.Second, "per-probe timeout")
	checkCmd.Flags().IntVar(&checkOpts.Retries, "retries", 0, "retries for transport-level probe failures")
	checkCmd.Flags().BoolVar(&checkOpts.Parallel, "parallel", false, "run each environment's checks concurrently")
	checkCmd.Flags().BoolVarP(&checkOpts.Verbose, "verbose", "v", false, "include response details in the report")

	checkCmd.Flags().BoolVar(&checkOpts.Dev, "dev", false, "only dev instances")
	checkCmd.Flags().BoolVar(&checkOpts.Tst, "tst", false, "only tst instances")
	checkCmd.Flags().BoolVar(&checkOpts.Stg, "stg", false, "only stg instances")
	checkCmd.Flags().BoolVar(&checkOpts.Pre, "pre", false, "only pre instances")
	checkCmd.Flags().BoolVar(&checkOpts.Prd, "prd", false, "only prd instances")
	checkCmd.Flags().BoolVar(&checkOpts.Public, "public", false, "only public instances")
	checkCmd.Flags().BoolVar(&checkOpts.Internal, "internal", false, "only internal instances")
}
