package apperr

import (
	"context"
	"errors"
	"regexp"

	"go.uber.org/zap"
)

// Classified is implemented by errors that are expected on some path and
// already handled, so they are not sent to the sink.
type Classified interface {
	Classified() bool
}

var sensitiveKey = regexp.MustCompile(`(?i)(token|password|passwd|secret|authori[sz]ation|cookie|api[-_]?key)`)

const redacted = "[REDACTED]"

// Redact returns a copy of v with every value under a sensitive key replaced.
// Maps and slices are walked recursively.
func Redact(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if sensitiveKey.MatchString(k) {
				out[k] = redacted
				continue
			}
			out[k] = Redact(val)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if sensitiveKey.MatchString(k) {
				out[k] = redacted
				continue
			}
			out[k] = val
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Redact(val)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Redact(val)
		}
		return out
	}
	return v
}

// Reporter sends unexpected errors to the observability sink.
type Reporter struct {
	logger *zap.Logger
}

func NewReporter(logger *zap.Logger) *Reporter {
	return &Reporter{logger: logger.Named("sink")}
}

// Report records err with redacted context. Known errors are skipped and
// Report returns false for them.
func (r *Reporter) Report(ctx context.Context, err error, fields map[string]any) bool {
	if err == nil || IsKnown(err) {
		return false
	}
	r.logger.Error("unexpected error",
		zap.Error(err),
		zap.Any("context", Redact(fields)),
	)
	return true
}

// IsKnown reports whether err has already been classified.
func IsKnown(err error) bool {
	if KindOf(err) != KindUnknown {
		return true
	}
	var c Classified
	return errors.As(err, &c) && c.Classified()
}
