// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package util

import (
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"
)

// PerfStats records the time and allocation counters at the start of a
// compilation stage, so that the cost of the stage can be reported once it
// completes.
type PerfStats struct {
	started time.Time
	allocs  uint64
	bytes   uint64
	gcs     uint32
}

// NewPerfStats snapshots the current counters.
func NewPerfStats() *PerfStats {
	var m runtime.MemStats
	//
	runtime.ReadMemStats(&m)
	//
	return &PerfStats{time.Now(), m.Mallocs, m.TotalAlloc, m.NumGC}
}

// Elapsed returns the wall-clock time since the snapshot was taken.
func (p *PerfStats) Elapsed() time.Duration {
	return time.Since(p.started)
}

// Log reports, at debug level, how long the stage named by prefix took along
// with the allocations it made.
func (p *PerfStats) Log(prefix string) {
	var m runtime.MemStats
	//
	runtime.ReadMemStats(&m)
	//
	log.WithFields(log.Fields{
		"allocs": m.Mallocs - p.allocs,
		"gc":     m.NumGC - p.gcs,
	}).Debugf("%s took %s using %d Kb", prefix, p.Elapsed().Round(time.Microsecond), (m.TotalAlloc-p.bytes)/1024)
}
