// Package core provides the foundational domain types used by pagemesh. It
// defines the core abstractions for:
//
//   - PageURI (versioned identity for any addressable object)
//   - Page (a materialized object carrying token-count metadata)
//   - PageReference (an agent result pointing at a page with an explanation)
//   - Response codes and the shared error taxonomy
//
// The package intentionally keeps implementation concerns (handler dispatch,
// caching, tool execution, agent orchestration) out of scope, exposing small
// types that the higher layers compose. All exported identifiers include
// concise documentation to aid discoverability and external consumption.
package core
