// Package toolkit groups tools into a named collection with an optional
// cross-cutting result cache (TTL plus custom invalidation) and declarative
// builder-based registration.
package toolkit
