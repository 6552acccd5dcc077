// Package errors provides the classified error type used across docpublisher.
//
// Every failure that leaves a package boundary is a ClassifiedError carrying a
// category, a severity, a retry strategy and structured context. The publish
// engine relies on three categories in particular:
//   - CategoryConfig: malformed navigation or configuration, fatal before any remote call
//   - CategoryConflict: a remote page belongs to a different source repository
//   - CategoryRemote: anything surfaced by the remote page store
//
// Example usage:
//
//	err := errors.ConflictError("page title belongs to a different repository").
//		WithContext("title", title).
//		WithContext("owner", page.Source.Repo).
//		Build()
package errors
