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

package httpsig

import (
	"fmt"
	"net/http"
	"net/textproto"
	"strings"
)

// buildSignatureString assembles the string covered by the signature, one
// "name: value" line per covered header, in the order they are declared in
// the Signature header.
func buildSignatureString(r *http.Request, headers []string) (string, error) {
	lines := make([]string, 0, len(headers))

	for _, h := range headers {
		if h == "(request-target)" {
			lines = append(lines, fmt.Sprintf("(request-target): %s %s", strings.ToLower(r.Method), r.URL.RequestURI()))
			continue
		}
		if strings.HasPrefix(h, "(") {
			return "", fmt.Errorf("unsupported header: %s", h)
		}

		values := r.Header[textproto.CanonicalMIMEHeaderKey(h)]
		if len(values) == 0 {
			return "", fmt.Errorf("unspecified header: %s", h)
		}

		trimmed := make([]string, len(values))
		for i, v := range values {
			trimmed[i] = strings.TrimSpace(v)
		}

		lines = append(lines, strings.ToLower(h)+": "+strings.Join(trimmed, ", "))
	}

	return strings.Join(lines, "\n"), nil
}
