// Package redact keeps scanned URLs and embedded credential material out of
// log output. Scan targets routinely carry session tokens, email addresses,
// and userinfo tricks, so every log line in this codebase goes through Logf.
package redact

import (
	"fmt"
	"log"
	"net/url"
	"path"
	"regexp"
	"strings"
)

var (
	bearerRe    = regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9._\-+/=]+)`)
	apiKeyRe    = regexp.MustCompile(`(?i)(api[_-]?key(?:s)?\s*[:=]\s*)([A-Za-z0-9._\-+/=]+)`)
	tokenishRe  = regexp.MustCompile(`(?i)(key|token|password|session|secret)\s*[:=]\s*([A-Za-z0-9._\-+/=]{6,})`)
	userinfoRe  = regexp.MustCompile(`(https?://)[^/\s@"'<>]+@`)
	urlRe       = regexp.MustCompile(`https?://[^\s"'<>]+`)
	sensParamRe = regexp.MustCompile(`(?i)([?&](?:token|password|session|key|username|email|account|auth)=)([^&\s"'<>]+)`)
)

// String redacts known secret patterns from free-form strings.
func String(s string) string {
	if s == "" {
		return s
	}

	out := s
	out = bearerRe.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyRe.ReplaceAllString(out, "${1}[REDACTED]")
	out = tokenishRe.ReplaceAllStringFunc(out, func(m string) string {
		if strings.Contains(m, "[REDACTED]") {
			return m
		}
		matches := tokenishRe.FindStringSubmatch(m)
		if len(matches) < 3 {
			return m
		}
		return matches[1] + "=[REDACTED]"
	})
	out = urlRe.ReplaceAllStringFunc(out, redactURL)
	for strings.Contains(out, "[REDACTED][REDACTED]") {
		out = strings.ReplaceAll(out, "[REDACTED][REDACTED]", "[REDACTED]")
	}
	return out
}

// Any formats the value with %+v and redacts secrets.
func Any(v any) string {
	return String(fmt.Sprintf("%+v", v))
}

// Sprintf formats like fmt.Sprintf and redacts the result.
func Sprintf(format string, args ...interface{}) string {
	return String(fmt.Sprintf(format, args...))
}

// Logf prints a redacted log line.
func Logf(format string, args ...interface{}) {
	log.Print(Sprintf(format, args...))
}

// Fatalf prints a redacted fatal log line.
func Fatalf(format string, args ...interface{}) {
	log.Fatal(Sprintf(format, args...))
}

// URLPreview reduces a scan target to scheme, host, and last path segment
// with userinfo and query stripped. Audit sinks use this when the configured
// logging level forbids full URLs.
func URLPreview(raw string) string {
	return redactURL(strings.TrimSpace(raw))
}

// Truncate shortens s to at most max bytes, appending an ellipsis marker.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func redactURL(raw string) string {
	trimmed := userinfoRe.ReplaceAllString(strings.TrimSpace(raw), "${1}")
	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "[REDACTED_URL]"
	}

	host := u.Host
	if u.Path == "" || u.Path == "/" {
		if u.RawQuery == "" {
			return fmt.Sprintf("%s://%s/", u.Scheme, host)
		}
		return fmt.Sprintf("%s://%s/[REDACTED_QUERY]", u.Scheme, host)
	}

	base := path.Base(strings.TrimSuffix(u.Path, "/"))
	if base == "." || base == "/" || base == "" {
		return fmt.Sprintf("%s://%s/[REDACTED_PATH]", u.Scheme, host)
	}
	return fmt.Sprintf("%s://%s/%s", u.Scheme, host, base)
}

// QueryMasked keeps the full URL shape but masks the values of
// credential-bearing query parameters. Used at the "redacted" logging level
// where the path matters for triage but captured credentials must not leak.
func QueryMasked(raw string) string {
	out := userinfoRe.ReplaceAllString(strings.TrimSpace(raw), "${1}[REDACTED]@")
	return sensParamRe.ReplaceAllString(out, "${1}[REDACTED]")
}
