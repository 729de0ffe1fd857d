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

package fed

import "github.com/calico-social/calico/cfg"

// Policy is this instance's federation policy. It is evaluated per host on
// every remote access and never cached by the Resolver: host lists reload
// at runtime and a stale allow decision is a hole.
type Policy struct {
	Mode          cfg.FederationMode
	Blocked       *HostList
	Federation    *HostList
	Silenced      *HostList
	MediaSilenced *HostList
}

// NewPolicy builds a [Policy] from configuration. CSV host files named in
// the configuration are merged in and hot-reloaded.
func NewPolicy(config *cfg.Config) (*Policy, error) {
	p := Policy{
		Mode:          config.FederationMode,
		Blocked:       NewHostList(config.BlockedHosts),
		Federation:    NewHostList(config.FederationHosts),
		Silenced:      NewHostList(config.SilencedHosts),
		MediaSilenced: NewHostList(config.MediaSilencedHosts),
	}

	if config.BlockedHostsFile != "" {
		if err := p.Blocked.Watch(config.BlockedHostsFile); err != nil {
			return nil, err
		}
	}

	if config.SilencedHostsFile != "" {
		if err := p.Silenced.Watch(config.SilencedHostsFile); err != nil {
			p.Blocked.Close()
			return nil, err
		}
	}

	return &p, nil
}

// IsBlockedHost determines whether a host is blocked, directly or as a
// subdomain of a blocked domain.
func (p *Policy) IsBlockedHost(host string) bool {
	return p.Blocked.Match(host)
}

// IsSilencedHost determines whether a host is silenced.
func (p *Policy) IsSilencedHost(host string) bool {
	return p.Silenced.Match(host)
}

// IsMediaSilencedHost determines whether media from a host is silenced.
func (p *Policy) IsMediaSilencedHost(host string) bool {
	return p.MediaSilenced.Match(host)
}

// IsFederationAllowedHost determines whether this instance may exchange
// objects with a host.
func (p *Policy) IsFederationAllowedHost(host string) bool {
	if p.Mode == cfg.FederationBlocked {
		return false
	}

	if p.Mode == cfg.FederationAllowList && !p.Federation.Match(host) {
		return false
	}

	return !p.Blocked.Match(host)
}

// Close frees resources.
func (p *Policy) Close() {
	p.Blocked.Close()
	p.Federation.Close()
	p.Silenced.Close()
	p.MediaSilenced.Close()
}
