// Package errors provides the classified error type used across static-builder.
//
// Every failure in the build pipeline is fatal: a half-rendered site must not
// ship. Errors therefore carry a category (what kind of input or stage failed)
// and a severity, plus structured context such as the offending source path.
// Adapters present them to the CLI (exit codes, slog) and to HTTP clients
// (JSON payloads from the dev server).
//
// Example usage:
//
//	err := errors.FrontMatterError("front matter parsing failed").
//		WithContext("source", path).
//		WithCause(yamlErr).
//		Build()
package errors
