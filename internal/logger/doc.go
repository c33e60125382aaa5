// Package logger wraps zap with a console encoder and context-scoped loggers.
//
// Components receive a context, name their scope with WithName or WithKV and
// log through the *KV helpers so every line carries structured fields.
package logger
