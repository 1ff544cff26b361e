// Package catalog models the declarative site/environment catalog and turns
// each environment record into an ordered probe plan.
package catalog

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Catalog is the parsed sites file: site name -> environment tag -> record.
type Catalog struct {
	Sites map[string]Site `yaml:"sites"`
}

// Site maps an environment tag (dev, prd, public, ...) to its record.
type Site map[string]EnvRecord

// EnvRecord is one environment's sparse configuration. Pointer fields
// distinguish an absent key from an empty value: hostname resolution and the
// per-kind gating both depend on key presence, and a missing boolean flag is
// a configuration error rather than false.
type EnvRecord struct {
	Host     *string  `yaml:"host"`
	Domain   string   `yaml:"domain"`
	Path     *string  `yaml:"path"`
	Redirect *string  `yaml:"redirect"`
	LB       *string  `yaml:"lb"`
	Health   *string  `yaml:"health"`
	Servers  []string `yaml:"servers"`

	CheckString    *bool `yaml:"check-string"`
	CheckRedirect  *bool `yaml:"check-redirect"`
	CheckHTTPRedir *bool `yaml:"check-http-redir"`
	CheckHTTP      *bool `yaml:"check-http"`
	CheckHTTPS     *bool `yaml:"check-https"`
	CheckStatus    *bool `yaml:"check-status"`
	CheckInfo      *bool `yaml:"check-info"`
	CheckPHP       *bool `yaml:"check-php"`
	CheckLB        *bool `yaml:"check-lb"`
	CheckServers   *bool `yaml:"check-servers"`
	CheckHealth    *bool `yaml:"check-health"`
}

// ConfigError reports a required field missing from an environment record.
// It fails that environment only; other sites and environments proceed.
type ConfigError struct {
	Site  string
	Env   string
	Field string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("site %q env %q: missing required field %q", e.Site, e.Env, e.Field)
}

// Load reads and parses a sites file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sites file %s: %w", path, err)
	}
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parsing sites file %s: %w", path, err)
	}
	if cat.Sites == nil {
		return nil, fmt.Errorf("sites file %s has no \"sites\" section", path)
	}
	return &cat, nil
}

// SiteNames returns the site names sorted alphabetically.
func (c *Catalog) SiteNames() []string {
	names := make([]string, 0, len(c.Sites))
	for name := range c.Sites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// envTagOrder is the canonical reporting order for the known environment
// tags. Unknown tags sort after these, alphabetically.
var envTagOrder = map[string]int{
	"dev":      0,
	"tst":      1,
	"stg":      2,
	"pre":      3,
	"prd":      4,
	"public":   5,
	"internal": 6,
}

// EnvTags returns a site's environment tags in canonical order.
func (c *Catalog) EnvTags(site string) []string {
	tags := make([]string, 0, len(c.Sites[site]))
	for tag := range c.Sites[site] {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		oi, iok := envTagOrder[tags[i]]
		oj, jok := envTagOrder[tags[j]]
		switch {
		case iok && jok:
			return oi < oj
		case iok:
			return true
		case jok:
			return false
		default:
			return tags[i] < tags[j]
		}
	})
	return tags
}

// TagFilter selects environment tags. An empty filter selects everything.
type TagFilter map[string]bool

func (f TagFilter) Add(tag string) { f[tag] = true }

func (f TagFilter) Match(tag string) bool {
	if len(f) == 0 {
		return true
	}
	return f[tag]
}
