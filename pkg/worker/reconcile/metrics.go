// Copyright 2023 The chuhe.io Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "workservice",
		Subsystem: "reconcile",
		Name:      "cycles_total",
		Help:      "Completed reconciliation cycles per procedure and result.",
	}, []string{"procedure", "result"})

	cycleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "workservice",
		Subsystem: "reconcile",
		Name:      "cycle_duration_seconds",
		Help:      "Wall time of one reconciliation cycle.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"procedure"})

	entityErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "workservice",
		Subsystem: "reconcile",
		Name:      "entity_errors_total",
		Help:      "Entities skipped within a cycle because of an error.",
	}, []string{"procedure"})

	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "workservice",
		Subsystem: "reconcile",
		Name:      "transitions_total",
		Help:      "State transitions applied by the loop, labeled by resulting status.",
	}, []string{"procedure", "status"})
)
