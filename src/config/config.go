// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package config loads the YAML configuration shared by the netintel
// command: the lookup client settings and the dns block for the DNS API
// server.
//
//	api_base: https://intel.example.com/api
//	timeout: 15s
//	concurrency: 8
//	auto_analyze: true
//	propagation_check: false
//	analyze_endpoints: [/analyze/, /analyze, /analyze/analyze]
//	log_level: info
//	registrable_whois: true
//	dns:
//	  listen: ":8080"
//	  resolvers:
//	    - {name: Cloudflare, address: 1.1.1.1}
//	  record_types: [A, AAAA, MX]
//	  cache_ttl: 1m
//	  rate_limit: 5
//	  rate_burst: 10
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/H0llyW00dzZ/netintel/src/dnsapi"
	"github.com/H0llyW00dzZ/netintel/src/netintel"
)

// ErrInvalidConfig is returned when a configuration file parses but holds
// values that cannot be used.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// DefaultListen is the address the DNS API server binds when none is set.
const DefaultListen = ":8080"

// Config is the root of the configuration file. Zero values mean "use the
// library default".
type Config struct {
	APIBase          string        `yaml:"api_base"`
	Timeout          time.Duration `yaml:"timeout"`
	Concurrency      int           `yaml:"concurrency"`
	AutoAnalyze      bool          `yaml:"auto_analyze"`
	PropagationCheck bool          `yaml:"propagation_check"`
	AnalyzeEndpoints StringList    `yaml:"analyze_endpoints"`
	LogLevel         string        `yaml:"log_level"`
	RegistrableWHOIS bool          `yaml:"registrable_whois"`
	Providers        []Provider    `yaml:"providers"`
	DNS              DNS           `yaml:"dns"`
}

// Provider is a DNS provider expected in DNS lookup answers.
type Provider struct {
	Name    string     `yaml:"name"`
	Aliases StringList `yaml:"aliases"`
}

// DNS configures the DNS API server.
type DNS struct {
	Listen               string            `yaml:"listen"`
	Resolvers            []dnsapi.Resolver `yaml:"resolvers"`
	PropagationResolvers []dnsapi.Resolver `yaml:"propagation_resolvers"`
	RecordTypes          StringList        `yaml:"record_types"`
	Timeout              time.Duration     `yaml:"timeout"`
	Concurrency          int               `yaml:"concurrency"`

	// CacheTTL is nil when unset; an explicit 0 disables caching.
	CacheTTL *time.Duration `yaml:"cache_ttl"`

	// RateLimit is requests per second per client. It is nil when unset;
	// an explicit 0 disables rate limiting.
	RateLimit      *float64   `yaml:"rate_limit"`
	RateBurst      int        `yaml:"rate_burst"`
	TrustedProxies StringList `yaml:"trusted_proxies"`
	HealthProbe    string     `yaml:"health_probe"`
}

// StringList accepts either a YAML sequence or a comma-separated scalar.
type StringList []string

// UnmarshalYAML implements [yaml.Unmarshaler].
func (s *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		aux := make([]string, 0, len(value.Content))
		for _, node := range value.Content {
			aux = append(aux, node.Value)
		}
		*s = cleanStringSlice(aux)
		return nil
	case yaml.ScalarNode:
		*s = cleanStringSlice(strings.Split(value.Value, ","))
		return nil
	default:
		return fmt.Errorf("%w: line %d: expected a list or a comma-separated string", ErrInvalidConfig, value.Line)
	}
}

// Load reads the configuration file at path. An empty path returns the zero
// configuration.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(raw)
}

// Parse decodes and validates a YAML document. JSON documents parse too.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first unusable value.
func (c Config) Validate() error {
	switch {
	case c.Timeout < 0:
		return fmt.Errorf("%w: timeout must not be negative", ErrInvalidConfig)
	case c.Concurrency < 0:
		return fmt.Errorf("%w: concurrency must not be negative", ErrInvalidConfig)
	case c.DNS.Timeout < 0:
		return fmt.Errorf("%w: dns.timeout must not be negative", ErrInvalidConfig)
	case c.DNS.CacheTTL != nil && *c.DNS.CacheTTL < 0:
		return fmt.Errorf("%w: dns.cache_ttl must not be negative", ErrInvalidConfig)
	case c.DNS.RateLimit != nil && *c.DNS.RateLimit < 0:
		return fmt.Errorf("%w: dns.rate_limit must not be negative", ErrInvalidConfig)
	}

	if _, err := c.Level(); err != nil {
		return err
	}

	for _, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("%w: provider without name", ErrInvalidConfig)
		}
	}
	for _, list := range [][]dnsapi.Resolver{c.DNS.Resolvers, c.DNS.PropagationResolvers} {
		for _, r := range list {
			if r.Name == "" || r.Address == "" {
				return fmt.Errorf("%w: resolver needs both name and address", ErrInvalidConfig)
			}
		}
	}
	return nil
}

// Level returns the configured log level, info when unset.
func (c Config) Level() (zerolog.Level, error) {
	if c.LogLevel == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return level, nil
}

// SubmitOptions returns the per-submission switches.
func (c Config) SubmitOptions() netintel.SubmitOptions {
	return netintel.SubmitOptions{
		AutoAnalyze:      c.AutoAnalyze,
		PropagationCheck: c.PropagationCheck,
	}
}

// InspectorOptions maps the configuration to [netintel.Option] values.
// Unset fields are left to the library defaults.
func (c Config) InspectorOptions(logger zerolog.Logger) []netintel.Option {
	opts := []netintel.Option{
		netintel.WithLogger(logger),
		netintel.WithRegistrableWHOIS(c.RegistrableWHOIS),
	}
	if c.APIBase != "" {
		opts = append(opts, netintel.WithAPIBase(c.APIBase))
	}
	if c.Timeout > 0 {
		opts = append(opts, netintel.WithTimeout(c.Timeout))
	}
	if c.Concurrency > 0 {
		opts = append(opts, netintel.WithConcurrency(c.Concurrency))
	}
	if len(c.AnalyzeEndpoints) > 0 {
		opts = append(opts, netintel.WithAnalyzeEndpoints(c.AnalyzeEndpoints...))
	}
	if len(c.Providers) > 0 {
		providers := make([]netintel.Provider, 0, len(c.Providers))
		for _, p := range c.Providers {
			aliases := []string(p.Aliases)
			if len(aliases) == 0 {
				aliases = []string{p.Name}
			}
			providers = append(providers, netintel.Provider{Name: p.Name, Aliases: aliases})
		}
		opts = append(opts, netintel.WithProviders(providers))
	}
	return opts
}

// ListenAddr returns the DNS API listen address.
func (c Config) ListenAddr() string {
	if c.DNS.Listen == "" {
		return DefaultListen
	}
	return c.DNS.Listen
}

// ServerOptions maps the dns block to [dnsapi.Option] values.
func (c Config) ServerOptions(logger zerolog.Logger) []dnsapi.Option {
	d := c.DNS
	opts := []dnsapi.Option{dnsapi.WithLogger(logger)}

	if len(d.Resolvers) > 0 {
		opts = append(opts, dnsapi.WithResolvers(d.Resolvers))
	}
	if len(d.PropagationResolvers) > 0 {
		opts = append(opts, dnsapi.WithPropagationResolvers(d.PropagationResolvers))
	}
	if len(d.RecordTypes) > 0 {
		opts = append(opts, dnsapi.WithRecordTypes(d.RecordTypes...))
	}
	if d.Timeout > 0 {
		opts = append(opts, dnsapi.WithTimeout(d.Timeout))
	}
	if d.Concurrency > 0 {
		opts = append(opts, dnsapi.WithConcurrency(d.Concurrency))
	}
	if d.CacheTTL != nil {
		opts = append(opts, dnsapi.WithCacheTTL(*d.CacheTTL))
	}
	if d.RateLimit != nil {
		opts = append(opts, dnsapi.WithRateLimit(rate.Limit(*d.RateLimit), d.RateBurst))
	}
	if len(d.TrustedProxies) > 0 {
		opts = append(opts, dnsapi.WithTrustedProxies(d.TrustedProxies...))
	}
	if d.HealthProbe != "" {
		opts = append(opts, dnsapi.WithHealthProbe(d.HealthProbe))
	}
	return opts
}

func cleanStringSlice(values []string) []string {
	list := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			list = append(list, v)
		}
	}
	return list
}
