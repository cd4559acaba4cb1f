package logger

import (
	"log/slog"
	"strings"
)

// bearerPrefix marks an Authorization header value.
const bearerPrefix = "Bearer "

// jwtPrefix is the base64url encoding of `{"` that starts every JWT header.
const jwtPrefix = "eyJ"

// Attribute keys whose values are never logged.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"credential",
	"authorization",
	"bearer",
	"cookie",
}

const redactedValue = "***REDACTED***"

// redactSensitive redacts bearer credentials, JWT-looking values and
// values stored under sensitive keys.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()
		if strings.HasPrefix(strVal, bearerPrefix) {
			return slog.String(a.Key, bearerPrefix+maskValue(strings.TrimPrefix(strVal, bearerPrefix)))
		}
		if looksLikeJWT(strVal) {
			return slog.String(a.Key, maskValue(strVal))
		}
		if IsSensitiveKey(a.Key) && strVal != "" {
			return slog.String(a.Key, redactedValue)
		}
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// maskValue keeps the first and last three characters of long values.
func maskValue(value string) string {
	if len(value) <= 12 {
		return "***"
	}
	return value[:3] + "..." + value[len(value)-3:]
}

func looksLikeJWT(value string) bool {
	return strings.HasPrefix(value, jwtPrefix) && strings.Count(value, ".") == 2
}

// RedactString masks a credential before it is embedded in a message.
func RedactString(value string) string {
	if strings.HasPrefix(value, bearerPrefix) {
		return bearerPrefix + maskValue(strings.TrimPrefix(value, bearerPrefix))
	}
	if looksLikeJWT(value) {
		return maskValue(value)
	}
	return value
}

// IsSensitiveKey checks if an attribute key names a credential.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
