// Package router maps page URIs to the handlers that materialize them and
// caches the resulting pages by exact versioned URI.
//
// A Router owns one root namespace. Handlers are registered per page type and
// invoked at most once per distinct URI; concurrent resolutions of the same
// URI are collapsed into a single handler call. Cached pages may carry a
// validator that decides whether a stored page is still fresh, forcing
// re-materialization when it is not.
package router
