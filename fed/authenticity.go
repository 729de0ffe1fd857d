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
	"strings"

	"github.com/calico-social/calico/ap"
)

// AssertIDMatchesURLAuthority fails unless an object's ID shares authority
// with the URL it was fetched from: a server may not mint IDs for another
// authority. Objects without an ID cannot be authenticated at all.
func AssertIDMatchesURLAuthority(id, url string, multiTenant []string) error {
	if id == "" {
		return fmt.Errorf("cannot authenticate %s: %w", url, ErrMissingID)
	}

	same, err := HaveSameAuthority(id, url, multiTenant)
	if err != nil {
		return err
	}

	if !same {
		return fmt.Errorf("%s was fetched from %s: %w", id, url, ErrAuthorityMismatch)
	}

	return nil
}

// HaveSameAuthority determines whether two URLs belong to one authority:
// equal strings trivially do, otherwise their registrable domains must
// match.
func HaveSameAuthority(url1, url2 string, multiTenant []string) (bool, error) {
	if url1 == url2 {
		return true, nil
	}

	domain1, err := PunyHostPSLDomain(url1, multiTenant)
	if err != nil {
		return false, err
	}

	domain2, err := PunyHostPSLDomain(url2, multiTenant)
	if err != nil {
		return false, err
	}

	return domain1 == domain2, nil
}

// FindSameAuthorityURL returns the first candidate URL sharing authority
// with target, preserving declaration order: when a note offers several
// URLs, the author's first same-authority one wins. Non-HTTPS candidates
// are skipped unless insecure URLs are allowed.
func FindSameAuthorityURL(target string, candidates []ap.Link, multiTenant []string, allowHTTP bool) string {
	targetDomain, err := PunyHostPSLDomain(target, multiTenant)
	if err != nil {
		return ""
	}

	for _, candidate := range candidates {
		href := candidate.Href
		if href == "" {
			continue
		}

		if !strings.HasPrefix(href, "https://") && !(allowHTTP && strings.HasPrefix(href, "http://")) {
			continue
		}

		domain, err := PunyHostPSLDomain(href, multiTenant)
		if err != nil {
			continue
		}

		if domain == targetDomain {
			return href
		}
	}

	return ""
}
