package router

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/pagemesh/core"
	"github.com/hupe1980/pagemesh/logging"
)

// HandlerFunc materializes the page identified by uri. The uri passed to the
// handler always carries a concrete version (never the latest sentinel).
type HandlerFunc func(ctx context.Context, uri core.PageURI) (core.Page, error)

// ValidatorFunc reports whether a cached page is still usable. Returning
// false (or an error) causes the router to discard the cached copy and
// materialize the page again.
type ValidatorFunc func(ctx context.Context, page core.Page) (bool, error)

// DefaultParallelism bounds concurrent handler invocations in ResolveMany
// when the caller does not request a limit.
const DefaultParallelism = 8

type handlerEntry struct {
	materialize  HandlerFunc
	validate     ValidatorFunc
	cacheEnabled bool
}

// Options configures a Router.
type Options struct {
	// Logger used for router diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// RegisterOptions configures a single handler registration.
type RegisterOptions struct {
	// Validator decides whether a cached page of this type is still fresh.
	// Nil means cached pages never expire.
	Validator ValidatorFunc

	// Cache controls whether materialized pages of this type are stored.
	// Defaults to true.
	Cache bool
}

// WithValidator attaches a freshness check to a handler registration.
func WithValidator(v ValidatorFunc) func(o *RegisterOptions) {
	return func(o *RegisterOptions) { o.Validator = v }
}

// WithoutCache disables page caching for a handler registration. Every
// resolution of the type invokes the handler.
func WithoutCache() func(o *RegisterOptions) {
	return func(o *RegisterOptions) { o.Cache = false }
}

// Router resolves page URIs to pages, caching materialized pages by exact
// versioned URI. All methods are safe for concurrent use.
type Router struct {
	root   string
	logger logging.Logger

	mu       sync.RWMutex
	handlers map[string]handlerEntry
	cache    map[core.PageURI]core.Page
	latest   map[string]int

	group singleflight.Group
}

// New creates a Router for the given root namespace.
func New(root string, optFns ...func(o *Options)) *Router {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Router{
		root:     root,
		logger:   opts.Logger,
		handlers: make(map[string]handlerEntry),
		cache:    make(map[core.PageURI]core.Page),
		latest:   make(map[string]int),
	}
}

// Root returns the router's root namespace.
func (r *Router) Root() string { return r.root }

// RegisterHandler binds a page type to the handler that materializes pages
// of that type. Registering the same type twice is a configuration error.
func (r *Router) RegisterHandler(pageType string, fn HandlerFunc, optFns ...func(o *RegisterOptions)) error {
	if pageType == "" {
		return core.NewConfigurationError("router", "page type must not be empty")
	}

	if fn == nil {
		return core.NewConfigurationError("router", "handler for page type %q must not be nil", pageType)
	}

	opts := RegisterOptions{
		Cache: true,
	}

	for _, optFn := range optFns {
		optFn(&opts)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[pageType]; exists {
		return core.NewConfigurationError("router", "handler already registered for page type %q", pageType)
	}

	r.handlers[pageType] = handlerEntry{
		materialize:  fn,
		validate:     opts.Validator,
		cacheEnabled: opts.Cache,
	}

	r.logger.Debug("Registered page handler", "page_type", pageType, "cache", opts.Cache)

	return nil
}

// Resolve returns the page identified by uri, materializing it through the
// registered handler on a cache miss. A URI without a version resolves to the
// latest known version of the page, or version 1 when none is known yet.
// Concurrent resolutions of the same URI share a single handler invocation.
func (r *Router) Resolve(ctx context.Context, uri core.PageURI) (core.Page, error) {
	pinned, entry, err := r.pin(uri)
	if err != nil {
		return nil, err
	}

	v, err, _ := r.group.Do(pinned.String(), func() (interface{}, error) {
		return r.resolvePinned(ctx, pinned, entry)
	})
	if err != nil {
		return nil, err
	}

	return v.(core.Page), nil
}

// pin normalizes the URI against the router's root, substitutes the latest
// known version for the latest sentinel and looks up the handler entry.
func (r *Router) pin(uri core.PageURI) (core.PageURI, handlerEntry, error) {
	if uri.Root == "" {
		uri.Root = r.root
	} else if uri.Root != r.root {
		return core.PageURI{}, handlerEntry{}, &core.ValidationError{
			Field:   "root",
			Value:   uri.Root,
			Message: fmt.Sprintf("uri root does not match router root %q", r.root),
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.handlers[uri.Type]
	if !ok {
		return core.PageURI{}, handlerEntry{}, core.NewConfigurationError("router", "no handler registered for page type %q", uri.Type)
	}

	if uri.Version == core.LatestVersion {
		if v := r.latest[latestKey(uri)]; v > 0 {
			uri.Version = v
		} else {
			uri.Version = 1
		}
	}

	return uri, entry, nil
}

func (r *Router) resolvePinned(ctx context.Context, uri core.PageURI, entry handlerEntry) (core.Page, error) {
	if entry.cacheEnabled {
		r.mu.RLock()
		cached, hit := r.cache[uri]
		r.mu.RUnlock()

		if hit {
			fresh := true

			if entry.validate != nil {
				ok, err := entry.validate(ctx, cached)
				if err != nil {
					r.logger.Warn("Page validator failed, regenerating page", "uri", uri.String(), "error", err)
					fresh = false
				} else if !ok {
					r.logger.Debug("Cached page stale, regenerating", "uri", uri.String())
					fresh = false
				}
			}

			if fresh {
				return cached, nil
			}
		}
	}

	page, err := entry.materialize(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("materialize %s: %w", uri.String(), err)
	}

	r.mu.Lock()
	if entry.cacheEnabled {
		r.cache[uri] = page
	}

	if uri.Version > r.latest[latestKey(uri)] {
		r.latest[latestKey(uri)] = uri.Version
	}
	r.mu.Unlock()

	return page, nil
}

func latestKey(uri core.PageURI) string {
	return uri.Type + ":" + uri.ID
}

// Result is the per-URI outcome of a bulk resolution.
type Result struct {
	Page core.Page
	Err  error
}

// ResolveMany resolves all uris with at most limit handler invocations in
// flight at once (DefaultParallelism when limit < 1). The returned slice has
// one entry per input URI in input order; a failure in one slot does not
// cancel the others.
func (r *Router) ResolveMany(ctx context.Context, uris []core.PageURI, limit int) []Result {
	if limit < 1 {
		limit = DefaultParallelism
	}

	results := make([]Result, len(uris))

	g := &errgroup.Group{}
	g.SetLimit(limit)

	for i, uri := range uris {
		g.Go(func() error {
			page, err := r.Resolve(ctx, uri)
			results[i] = Result{Page: page, Err: err}
			return nil
		})
	}

	_ = g.Wait()

	return results
}

// CreatePageURI returns a URI for the next unused version of the identified
// page, starting at version 1 when no version of the page is known.
func (r *Router) CreatePageURI(pageType, id string) core.PageURI {
	r.mu.RLock()
	v := r.latest[pageType+":"+id]
	r.mu.RUnlock()

	return core.PageURI{Root: r.root, Type: pageType, ID: id, Version: v + 1}
}

// ResolveReferences resolves the pages behind a set of references, attaching
// each page to its reference. References whose page cannot be materialized
// are kept in the output with the failure recorded on the reference. When
// resolvePages is false the references are returned untouched.
func (r *Router) ResolveReferences(ctx context.Context, refs []core.PageReference, resolvePages bool) []core.PageReference {
	if !resolvePages || len(refs) == 0 {
		return refs
	}

	uris := make([]core.PageURI, len(refs))
	for i, ref := range refs {
		uris[i] = ref.URI
	}

	results := r.ResolveMany(ctx, uris, DefaultParallelism)

	for i := range refs {
		if results[i].Err != nil {
			r.logger.Warn("Failed to resolve reference", "uri", refs[i].URI.String(), "error", results[i].Err)
			refs[i].RecordResolveError(results[i].Err)

			continue
		}

		refs[i].AttachPage(results[i].Page)
	}

	return refs
}
