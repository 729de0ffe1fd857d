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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calico_resolver_fetches_total",
		Help: "Number of remote object fetches, by outcome.",
	}, []string{"outcome"})

	blockedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calico_resolver_blocked_total",
		Help: "Number of resolutions refused by federation policy.",
	})

	authorityFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calico_resolver_authority_failures_total",
		Help: "Number of fetched objects rejected for claiming a foreign authority.",
	})

	localResolutionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calico_resolver_local_total",
		Help: "Number of resolutions served from local records.",
	})
)
