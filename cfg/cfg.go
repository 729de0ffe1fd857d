/*
Copyright 2025, 2026 Dima Krasner

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package cfg defines the calico configuration file format and defaults.
package cfg

import (
	"regexp"
	"time"
)

// FederationMode controls which remote hosts this instance exchanges
// objects with.
type FederationMode string

const (
	// FederationOpen federates with every host not explicitly blocked.
	FederationOpen FederationMode = "open"

	// FederationAllowList federates only with hosts in FederationHosts.
	FederationAllowList FederationMode = "allowlist"

	// FederationBlocked disables federation entirely.
	FederationBlocked FederationMode = "blocked"
)

// Config represents a calico configuration file.
type Config struct {
	DatabaseOptions string

	FederationMode     FederationMode
	BlockedHosts       []string
	FederationHosts    []string
	SilencedHosts      []string
	MediaSilencedHosts []string

	// optional CSV files merged into the host sets above, hot-reloaded
	BlockedHostsFile  string
	SilencedHostsFile string

	// hosting providers that place unrelated instances under one
	// registrable domain; each is treated as a public suffix of its own
	MultiTenantSuffixes []string

	SignedGets bool

	RecursionLimit      int
	MaxResolverRequests int

	FetchTimeout            time.Duration
	MaxResponseBodySize     int64
	ResolverMaxIdleConns    int
	ResolverIdleConnTimeout time.Duration

	ActorCacheSize int
	ActorCacheTTL  time.Duration

	ProhibitedWords         []string
	ProhibitedWordsRegex    string
	CompiledProhibitedWords *regexp.Regexp `json:"-"`

	// allows plain-HTTP object URLs; never enable outside development
	Development bool

	DisableIntegrityProofs bool
}

// FillDefaults replaces missing or invalid settings with defaults.
func (c *Config) FillDefaults() {
	if c.DatabaseOptions == "" {
		c.DatabaseOptions = "_journal_mode=WAL&_synchronous=1&_busy_timeout=5000"
	}

	if c.FederationMode == "" {
		c.FederationMode = FederationOpen
	}

	if c.RecursionLimit <= 0 {
		c.RecursionLimit = 256
	}

	if c.MaxResolverRequests <= 0 {
		c.MaxResolverRequests = 16
	}

	if c.FetchTimeout <= 0 {
		c.FetchTimeout = time.Second * 30
	}

	if c.MaxResponseBodySize <= 0 {
		c.MaxResponseBodySize = 1024 * 1024
	}

	if c.ResolverMaxIdleConns <= 0 {
		c.ResolverMaxIdleConns = 128
	}

	if c.ResolverIdleConnTimeout <= 0 {
		c.ResolverIdleConnTimeout = time.Minute
	}

	if c.ActorCacheSize <= 0 {
		c.ActorCacheSize = 4096
	}

	if c.ActorCacheTTL <= 0 {
		c.ActorCacheTTL = time.Minute * 10
	}

	if c.ProhibitedWordsRegex != "" {
		c.CompiledProhibitedWords = regexp.MustCompile(c.ProhibitedWordsRegex)
	}
}
