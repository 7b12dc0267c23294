// SPDX-License-Identifier: BSD-3-Clause

package report

import (
	"context"
	"log/slog"
)

// LogSink is a Sink that writes every event as a structured log line. It
// is typically wrapped by an application-specific Sink that also turns
// reports into outbound OutComponents via OutFactory (spec §4.9 closing
// the loop back to the telemetry stream).
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink wraps logger. A nil logger falls back to slog.Default().
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Report implements Sink.
func (s *LogSink) Report(ctx context.Context, ev Event) error {
	attrs := []any{
		slog.String("kind", ev.Kind.String()),
		slog.Uint64("servType", uint64(ev.ServType)),
		slog.Uint64("servSubType", uint64(ev.ServSubType)),
		slog.Uint64("discriminant", uint64(ev.Discriminant)),
		slog.Uint64("instanceId", ev.InstanceID),
	}
	if ev.Failure != FailureNone {
		attrs = append(attrs, slog.String("failure", ev.Failure.String()))
		s.logger.WarnContext(ctx, "verification report", attrs...)
		return nil
	}
	s.logger.InfoContext(ctx, "verification report", attrs...)
	return nil
}
