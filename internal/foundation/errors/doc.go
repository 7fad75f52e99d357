// Package errors provides the classified error primitives used across docsite.
//
// Every error that crosses a package boundary is a ClassifiedError carrying a
// category, a severity and structured context. The CLI and HTTP adapters turn
// those into exit codes and status codes respectively.
//
// Example usage:
//
//	err := errors.ContentError("malformed frontmatter").
//		WithContext("document", path).
//		WithCause(yamlErr).
//		Build()
package errors
