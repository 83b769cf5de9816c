/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"
)

// SlowQueryHook warns through the database logger about successful queries
// slower than the threshold.
type SlowQueryHook struct {
	threshold time.Duration
	logger    Logger
}

var _ bun.QueryHook = (*SlowQueryHook)(nil)

func NewSlowQueryHook(threshold time.Duration, logger Logger) *SlowQueryHook {
	return &SlowQueryHook{threshold: threshold, logger: logger}
}

func (h *SlowQueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *SlowQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if event.Err != nil || h.logger == nil || h.threshold <= 0 {
		return
	}
	duration := time.Since(event.StartTime)
	if duration <= h.threshold {
		return
	}
	h.logger.Warn(color.New(color.FgYellow, color.Bold).Sprint("Database slow query detected"),
		"duration", duration.Round(time.Microsecond),
		"slow_threshold", h.threshold,
		"operation", event.Operation(),
		"query", colorizeQuery(event.Operation(), event.Query),
	)
}

func colorizeQuery(operation, query string) string {
	attr := color.FgRed
	switch operation {
	case "SELECT":
		attr = color.FgGreen
	case "INSERT":
		attr = color.FgBlue
	case "UPDATE":
		attr = color.FgYellow
	case "DELETE":
		attr = color.FgMagenta
	}
	// Sprint, not the *String helpers: queries may contain '%'.
	return color.New(attr).Sprint(query)
}
