package tune

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// discardLogger is used when no logger is configured.
func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// slogAdapter adapts slog.Logger to the retryablehttp.LeveledLogger interface.
// The retrying transport logs request URLs, so the credential is masked first,
// both raw and in its query-escaped form.
type slogAdapter struct {
	logger *slog.Logger
	secret string
}

func (s *slogAdapter) Error(msg string, keysAndValues ...interface{}) {
	s.logger.Error(msg, s.scrub(keysAndValues)...)
}

func (s *slogAdapter) Info(msg string, keysAndValues ...interface{}) {
	s.logger.Info(msg, s.scrub(keysAndValues)...)
}

func (s *slogAdapter) Debug(msg string, keysAndValues ...interface{}) {
	s.logger.Debug(msg, s.scrub(keysAndValues)...)
}

func (s *slogAdapter) Warn(msg string, keysAndValues ...interface{}) {
	s.logger.Warn(msg, s.scrub(keysAndValues)...)
}

func (s *slogAdapter) scrub(keysAndValues []interface{}) []interface{} {
	if s.secret == "" {
		return keysAndValues
	}
	replacer := s.replacer()
	out := make([]interface{}, len(keysAndValues))
	for i, v := range keysAndValues {
		var str string
		switch val := v.(type) {
		case string:
			str = val
		case fmt.Stringer:
			str = val.String()
		case error:
			str = val.Error()
		default:
			out[i] = v
			continue
		}
		out[i] = replacer.Replace(str)
	}
	return out
}

func (s *slogAdapter) replacer() *strings.Replacer {
	pairs := []string{s.secret, "REDACTED"}
	for _, escaped := range []string{url.QueryEscape(s.secret), url.PathEscape(s.secret)} {
		if escaped != s.secret {
			pairs = append(pairs, escaped, "REDACTED")
		}
	}
	return strings.NewReplacer(pairs...)
}
