// Package pagemesh provides a high-level facade over the page router and the
// retrieval agent, enabling rapid construction of LLM-driven retrieval
// systems. Most applications interact with this package by:
//  1. Creating an App via New() with a root namespace
//  2. Registering page handlers for each page type
//  3. Attaching a retriever (typically an agent.ReactAgent over toolkits)
//  4. Calling Search, which resolves the returned references through the
//     router
//
// All defaults are safe for local development and testing; production
// deployments typically supply a structured logger.
package pagemesh

import (
	"context"

	"github.com/hupe1980/pagemesh/core"
	"github.com/hupe1980/pagemesh/logging"
	"github.com/hupe1980/pagemesh/router"
)

// Retriever produces page references for a query. agent.ReactAgent is the
// canonical implementation; tests may supply something simpler.
type Retriever interface {
	Search(ctx context.Context, query string) ([]core.PageReference, error)
}

// Options configures the App instance.
type Options struct {
	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// ResolveReferences controls whether Search materializes the pages
	// behind the returned references. Defaults to true.
	ResolveReferences bool
}

// App aggregates the page router and the retriever behind a single entry
// point owning one root namespace.
type App struct {
	root      string
	router    *router.Router
	retriever Retriever
	logger    logging.Logger
	resolve   bool
	actions   map[string]actionEntry
}

// New creates an App for the given root namespace.
func New(root string, optFns ...func(o *Options)) *App {
	opts := Options{
		Logger:            logging.NoOpLogger{},
		ResolveReferences: true,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &App{
		root: root,
		router: router.New(root, func(o *router.Options) {
			o.Logger = opts.Logger
		}),
		logger:  opts.Logger,
		resolve: opts.ResolveReferences,
		actions: make(map[string]actionEntry),
	}
}

// Root returns the app's root namespace.
func (a *App) Root() string { return a.root }

// Router exposes the underlying page router for handler registration and
// direct resolution.
func (a *App) Router() *router.Router { return a.router }

// SetRetriever attaches the retriever driving Search. The retriever is
// assigned exactly once; a second assignment is a configuration error.
func (a *App) SetRetriever(r Retriever) error {
	if a.retriever != nil {
		return core.NewConfigurationError("app", "retriever already set")
	}

	a.retriever = r

	return nil
}

// RegisterHandler binds a page type to its materialization handler on the
// underlying router.
func (a *App) RegisterHandler(pageType string, fn router.HandlerFunc, optFns ...func(o *router.RegisterOptions)) error {
	return a.router.RegisterHandler(pageType, fn, optFns...)
}

// Resolve materializes the page identified by uri.
func (a *App) Resolve(ctx context.Context, uri core.PageURI) (core.Page, error) {
	return a.router.Resolve(ctx, uri)
}

// Search runs the attached retriever and resolves the returned references
// through the router. References the retriever already resolved (from pages
// touched during the search) are kept as-is.
func (a *App) Search(ctx context.Context, query string) ([]core.PageReference, error) {
	if a.retriever == nil {
		return nil, core.NewConfigurationError("app", "no retriever set, call SetRetriever first")
	}

	refs, err := a.retriever.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	if !a.resolve {
		return refs, nil
	}

	pending := make([]int, 0, len(refs))
	uris := make([]core.PageURI, 0, len(refs))

	for i := range refs {
		if !refs[i].Resolved() {
			pending = append(pending, i)
			uris = append(uris, refs[i].URI)
		}
	}

	results := a.router.ResolveMany(ctx, uris, router.DefaultParallelism)

	for slot, i := range pending {
		if results[slot].Err != nil {
			a.logger.Warn("Failed to resolve reference", "uri", refs[i].URI.String(), "error", results[slot].Err)
			refs[i].RecordResolveError(results[slot].Err)

			continue
		}

		refs[i].AttachPage(results[slot].Page)
	}

	return refs, nil
}
