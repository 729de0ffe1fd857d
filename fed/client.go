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
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/calico-social/calico/buildinfo"
	"github.com/calico-social/calico/cfg"
	"github.com/calico-social/calico/httpsig"
)

var userAgent = "calico/" + buildinfo.Version

// Client sends HTTP requests.
type Client interface {
	Do(*http.Request) (*http.Response, error)
}

// NewClient returns a [Client] with the configured timeout and connection
// pool limits, suitable for fetching from many hosts.
func NewClient(config *cfg.Config) Client {
	return &http.Client{
		Timeout: config.FetchTimeout,
		Transport: &http.Transport{
			MaxIdleConns:    config.ResolverMaxIdleConns,
			IdleConnTimeout: config.ResolverIdleConnTimeout,
		},
	}
}

type sender struct {
	Domain string
	Config *cfg.Config
	client Client
}

// get fetches one ActivityPub document, signing the request when key is
// set. The response must identify itself as ActivityPub: accepting any
// JSON would let a server serve an attacker-controlled document from an
// unrelated endpoint.
func (s *sender) get(ctx context.Context, key httpsig.Key, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", uri, err)
	}

	if req.URL.Scheme != "https" && !(s.Config.Development && req.URL.Scheme == "http") {
		return nil, fmt.Errorf("cannot fetch %s: %w", uri, ErrInvalidScheme)
	}

	if req.URL.Host == "localhost" || req.URL.Host == "localhost.localdomain" || req.URL.Host == "127.0.0.1" || req.URL.Host == "::1" {
		if !s.Config.Development {
			return nil, fmt.Errorf("cannot fetch %s: %w", uri, ErrInvalidHost)
		}
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", `application/activity+json, application/ld+json; profile="https://www.w3.org/ns/activitystreams"`)

	if key.ID != "" {
		slog.Debug("Fetching object", "url", uri, "key", key.ID)
		if err := httpsig.Sign(req, key, time.Now()); err != nil {
			return nil, fmt.Errorf("failed to sign request for %s: %w", uri, err)
		}
	} else {
		slog.Debug("Fetching object", "url", uri)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, Retryable(fmt.Errorf("failed to fetch %s: %w", uri, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:

	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("failed to fetch %s: %d: %w", uri, resp.StatusCode, ErrRemoteGone)

	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return nil, Retryable(fmt.Errorf("failed to fetch %s: %d", uri, resp.StatusCode))

	default:
		return nil, fmt.Errorf("failed to fetch %s: %d", uri, resp.StatusCode)
	}

	if err := validateContentType(resp.Header.Get("Content-Type")); err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", uri, err)
	}

	if resp.ContentLength > s.Config.MaxResponseBodySize {
		return nil, fmt.Errorf("failed to fetch %s: response is too big", uri)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.Config.MaxResponseBodySize))
	if err != nil {
		return nil, Retryable(fmt.Errorf("failed to fetch %s: %w", uri, err))
	}

	return body, nil
}

func validateContentType(contentType string) error {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidContentType, contentType)
	}

	if mediaType == "application/activity+json" {
		return nil
	}

	if mediaType == "application/ld+json" {
		for _, profile := range strings.Fields(params["profile"]) {
			if profile == "https://www.w3.org/ns/activitystreams" {
				return nil
			}
		}
	}

	return fmt.Errorf("%w: %s", ErrInvalidContentType, contentType)
}
