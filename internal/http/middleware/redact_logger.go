// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, the access logger mounted by the
// router. It scrubs secrets from request metadata before anything reaches the
// log stream:
//
//   - Fully masks sensitive headers (Authorization, Cookie, Set-Cookie, the
//     webhook signature header, plus any configured extras)
//   - Replaces token-, UUID- and email-shaped substrings in query strings and
//     remaining header values with typed placeholders
//   - Never logs request or response bodies
//
// It also attaches the request-scoped zerolog.Logger consumed by LoggerFrom,
// so handler and service logs inherit the scrubbed request fields.
package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RedactOptions configures extra scrub behavior for RedactingLogger.
//
// MaskHeaders lists additional header names whose values are replaced with
// "[REDACTED]" wholesale. Matching is case-insensitive and merged with the
// built-in set (Authorization, Cookie, Set-Cookie and the webhook signature
// header).
type RedactOptions struct {
	MaskHeaders []string
}

// RedactingLogger returns the access-logging middleware with secret scrubbing.
//
// Behavior:
//   - Logs method, path, query string, status, sizes, latency, and request
//     headers, with scrubbing applied to the query and header values.
//   - Masks the built-in sensitive headers and opts.MaskHeaders in full;
//     everywhere else, substrings shaped like API tokens, UUIDs, or email
//     addresses are replaced via regex substitution.
//   - Stores a request-scoped zerolog.Logger under the "logger" context key
//     so LoggerFrom works downstream.
//   - Log level follows the response: info, warn for 4xx, error for 5xx.
//
// NOTE: scrub tokens before UUIDs so the UUID pattern never matches inside a
// partially replaced token.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	// Compile patterns once. The token shape covers the JWT-style API keys
	// Monday issues (three dot-separated base64url segments).
	tokenRE := regexp.MustCompile(`\beyJ[A-Za-z0-9_\-]{8,}\.[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+`)
	uuidRE := regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`)
	emailRE := regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)

	scrub := func(s string) string {
		if s == "" {
			return s
		}
		out := tokenRE.ReplaceAllString(s, "[REDACTED:token]")
		out = uuidRE.ReplaceAllString(out, "[REDACTED:id]")
		out = emailRE.ReplaceAllString(out, "[REDACTED:email]")
		return out
	}

	// Header mask set (case-insensitive).
	masked := map[string]struct{}{
		"authorization":                  {},
		"cookie":                         {},
		"set-cookie":                     {},
		strings.ToLower(signatureHeader): {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			masked[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			// Fallback when route not matched / 404.
			path = c.Request.URL.Path
		}
		safeQuery := scrub(truncate(c.Request.URL.RawQuery, maxQueryLogLength))

		safeHeaders := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := masked[strings.ToLower(k)]; ok {
				safeHeaders[k] = "[REDACTED]"
				continue
			}
			safeHeaders[k] = scrub(strings.Join(vv, ", "))
		}

		rid, _ := c.Get(requestIDKey)
		l := log.With().
			Str("request_id", asString(rid)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("remote_ip", c.ClientIP()).
			Str("query", safeQuery).
			Int64("bytes_in", c.Request.ContentLength).
			Logger()

		// Make it available to handlers/services.
		c.Set("logger", &l)

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		ev := l.Info()
		switch {
		case status >= 500:
			ev = l.Error()
		case status >= 400:
			ev = l.Warn()
		}
		ev.
			Int("status", status).
			Int("bytes_out", c.Writer.Size()).
			Dur("latency", latency).
			Interface("headers", safeHeaders).
			Msg("request")
	}
}
