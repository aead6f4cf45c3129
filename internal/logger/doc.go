// Package logger wraps a zap sugared logger with key/value helpers and
// redaction of credentials and user identifiers.
package logger
