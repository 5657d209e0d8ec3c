package csl

import (
	"context"
	"log/slog"

	"csl_trmnl/internal/metrics"
)

// Repeating warnings are common in packages written for other clients, so a
// few kinds are only reported once per package plus a summary.
type throttleKind int

const (
	throttleObj8AircraftArgs throttleKind = iota
	throttleObj8ExtraArgs
	throttleObj8PartType
	throttleVertOffsetArgs
	throttleKindCount
)

var throttleMessages = [throttleKindCount]string{
	throttleObj8AircraftArgs: "OBJ8_AIRCRAFT command takes 1 argument",
	throttleObj8ExtraArgs:    "OBJ8 command takes only 3 arguments, rest ignored",
	throttleObj8PartType:     "valid OBJ8 part types are LIGHTS or SOLID",
	throttleVertOffsetArgs:   "VERT_OFFSET command takes 1 argument",
}

const (
	warnLevel = slog.LevelWarn
	infoLevel = slog.LevelInfo
)

// throttleLimit is how many occurrences of a kind are reported immediately.
const throttleLimit = 1

type throttle struct {
	counts [throttleKindCount]int
}

// allow counts one occurrence of k and reports whether it should be shown.
func (t *throttle) allow(k throttleKind) bool {
	t.counts[k]++
	return t.counts[k] <= throttleLimit
}

// diagnostics reports parse problems for one declaration file.
type diagnostics struct {
	logger   *slog.Logger
	metrics  *metrics.Metrics
	file     string
	throttle throttle
}

func newDiagnostics(logger *slog.Logger, m *metrics.Metrics, file string) *diagnostics {
	return &diagnostics{logger: logger, metrics: m, file: file}
}

func (d *diagnostics) report(level slog.Level, cmd string, line Line, msg string, args ...any) {
	severity := "warning"
	if level < slog.LevelWarn {
		severity = "info"
	}
	d.metrics.Diagnostic(severity, cmd)
	attrs := append([]any{"file", d.file, "line", line.Num, "text", line.Text}, args...)
	d.logger.Log(context.Background(), level, msg, attrs...)
}

func (d *diagnostics) warn(cmd string, line Line, msg string, args ...any) {
	d.report(slog.LevelWarn, cmd, line, msg, args...)
}

// debug logs a line that is ignored on purpose. It is not a diagnostic and
// is not counted.
func (d *diagnostics) debug(cmd string, line Line, msg string, args ...any) {
	attrs := append([]any{"file", d.file, "line", line.Num, "text", line.Text, "command", cmd}, args...)
	d.logger.Debug(msg, attrs...)
}

// limited reports kind's message only while the throttle allows it.
func (d *diagnostics) limited(level slog.Level, kind throttleKind, cmd string, line Line, args ...any) {
	if d.throttle.allow(kind) {
		d.report(level, cmd, line, throttleMessages[kind], args...)
		return
	}
	d.metrics.Diagnostic("suppressed", cmd)
}

// flush summarises suppressed messages and resets the counters.
func (d *diagnostics) flush() {
	for k := throttleKind(0); k < throttleKindCount; k++ {
		if n := d.throttle.counts[k]; n > throttleLimit {
			d.logger.Warn("Repeated message suppressed",
				"file", d.file,
				"count", n,
				"message", throttleMessages[k],
			)
		}
	}
	d.throttle = throttle{}
}
