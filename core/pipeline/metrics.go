/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Tabula Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package pipeline

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts stage evaluations and times recomputations.
type Metrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the pipeline collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tabula",
			Subsystem: "pipeline",
			Name:      "stage_runs_total",
			Help:      "Pipeline stage evaluations by stage and cache result.",
		}, []string{"stage", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tabula",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Time spent recomputing a pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"stage"}),
	}
	for _, c := range []prometheus.Collector{m.runs, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering pipeline metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) hit(stage string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(stage, "hit").Inc()
}

func (m *Metrics) miss(stage string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(stage, "miss").Inc()
	m.duration.WithLabelValues(stage).Observe(elapsed.Seconds())
}
