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

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// ToPuny lower-cases and IDN-encodes a hostname. It fails closed: a
// hostname that cannot be encoded is unusable and callers must treat the
// error as such.
func ToPuny(host string) (string, error) {
	ascii, err := idna.Lookup.ToASCII(strings.ToLower(host))
	if err != nil {
		return "", fmt.Errorf("cannot encode host %s: %w", host, err)
	}

	return ascii, nil
}

// IsSelfHost determines whether a host is this instance. The comparison
// includes the port: an instance on a non-default port owns only URIs that
// name that port, matching [IsURILocal]. An empty host means a relative
// reference, which is local by definition.
func IsSelfHost(domain, host string) (bool, error) {
	if host == "" {
		return true, nil
	}

	name, port, _ := strings.Cut(host, ":")
	ascii, err := ToPuny(name)
	if err != nil {
		return false, err
	}
	if port != "" {
		ascii += ":" + port
	}

	return ascii == domain, nil
}

// IsURILocal determines whether a URI, including any port, points at this
// instance.
func IsURILocal(domain, uri string) (bool, error) {
	host, err := PunyHost(uri)
	if err != nil {
		return false, err
	}

	return host == domain, nil
}

// ExtractDBHost returns the IDN-encoded host of a URI, without the port:
// the canonical "where did this come from" key.
func ExtractDBHost(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("cannot parse %s: %w", uri, err)
	}

	return ToPuny(u.Hostname())
}

// PunyHost returns the IDN-encoded host of a URI plus :port if one is
// specified: the strict scheme-independent origin.
func PunyHost(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("cannot parse %s: %w", uri, err)
	}

	host, err := ToPuny(u.Hostname())
	if err != nil {
		return "", err
	}

	if port := u.Port(); port != "" {
		return host + ":" + port, nil
	}

	return host, nil
}

// PunyHostPSLDomain returns the public-suffix-list registrable domain of a
// URI's host, plus :port if one is specified: the relaxed authority used
// where legitimate deployments spread one instance across subdomains.
// Hosts under a suffix in multiTenant are not collapsed past that suffix,
// because unrelated instances share the registrable domain there.
func PunyHostPSLDomain(uri string, multiTenant []string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("cannot parse %s: %w", uri, err)
	}

	host, err := ToPuny(u.Hostname())
	if err != nil {
		return "", err
	}

	domain := registrableDomain(host, multiTenant)

	if port := u.Port(); port != "" {
		return domain + ":" + port, nil
	}

	return domain, nil
}

func registrableDomain(host string, multiTenant []string) string {
	for _, suffix := range multiTenant {
		if host == suffix {
			return host
		}

		if strings.HasSuffix(host, "."+suffix) {
			// keep one label below the hosting suffix
			prefix := host[:len(host)-len(suffix)-1]
			if i := strings.LastIndexByte(prefix, '.'); i >= 0 {
				prefix = prefix[i+1:]
			}
			return prefix + "." + suffix
		}
	}

	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// the host is itself a public suffix, or an IP: no relaxation
		return host
	}

	return domain
}
