package toolkit

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/pagemesh/core"
	"github.com/hupe1980/pagemesh/logging"
	"github.com/hupe1980/pagemesh/tool"
)

// DefaultMaxDocs is the page length used when pagination is requested
// without an explicit one.
const DefaultMaxDocs = 20

// Options configures a Toolkit.
type Options struct {
	// Name identifies the toolkit in logs and conflict warnings.
	Name string

	// Logger used for toolkit diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// RegisterOptions configures a single tool registration.
type RegisterOptions struct {
	// Cache enables result caching for the tool.
	Cache bool

	// TTL bounds the age of cached results. Zero means no expiry.
	TTL time.Duration

	// Invalidator is an additional freshness check on cached results.
	Invalidator InvalidatorFunc

	// Paginate enables client-side pagination with MaxDocs per page.
	Paginate bool

	// MaxDocs is the page length when Paginate is set. Defaults to
	// DefaultMaxDocs.
	MaxDocs int

	// MaxTokens is the token budget per page when Paginate is set.
	// Defaults to tool.DefaultMaxTokens.
	MaxTokens int
}

// WithCache enables result caching with the given TTL (zero = no expiry).
func WithCache(ttl time.Duration) func(o *RegisterOptions) {
	return func(o *RegisterOptions) {
		o.Cache = true
		o.TTL = ttl
	}
}

// WithInvalidator attaches a freshness check to cached results. Implies
// caching.
func WithInvalidator(fn InvalidatorFunc) func(o *RegisterOptions) {
	return func(o *RegisterOptions) {
		o.Cache = true
		o.Invalidator = fn
	}
}

// WithPagination enables client-side pagination. maxDocs and maxTokens fall
// back to the package defaults when < 1.
func WithPagination(maxDocs, maxTokens int) func(o *RegisterOptions) {
	return func(o *RegisterOptions) {
		o.Paginate = true
		o.MaxDocs = maxDocs
		o.MaxTokens = maxTokens
	}
}

type toolEntry struct {
	tool        *tool.Tool
	cache       bool
	ttl         time.Duration
	invalidator InvalidatorFunc
}

// Toolkit owns a set of tools plus an optional cross-cutting result cache.
// All methods are safe for concurrent use once registration is complete;
// Register itself is not synchronized and belongs in setup code.
type Toolkit struct {
	name    string
	logger  logging.Logger
	entries map[string]*toolEntry
	order   []string
	cache   *resultCache
}

// New creates an empty Toolkit.
func New(optFns ...func(o *Options)) *Toolkit {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Toolkit{
		name:    opts.Name,
		logger:  opts.Logger,
		entries: make(map[string]*toolEntry),
		cache:   newResultCache(),
	}
}

// Name returns the toolkit's name.
func (k *Toolkit) Name() string { return k.name }

// Register builds a tool from the definition and function and adds it to the
// toolkit. Registering a name twice silently replaces the prior tool (last
// registration wins), which supports test overrides and refinement.
func (k *Toolkit) Register(def tool.Definition, fn any, optFns ...func(o *RegisterOptions)) error {
	opts := RegisterOptions{
		MaxDocs:   DefaultMaxDocs,
		MaxTokens: tool.DefaultMaxTokens,
	}

	for _, optFn := range optFns {
		optFn(&opts)
	}

	if opts.MaxDocs < 1 {
		opts.MaxDocs = DefaultMaxDocs
	}

	if opts.MaxTokens < 1 {
		opts.MaxTokens = tool.DefaultMaxTokens
	}

	toolOpts := []func(o *tool.Options){
		tool.WithLogger(k.logger),
	}

	if opts.Paginate {
		toolOpts = append(toolOpts, tool.WithPageSize(opts.MaxDocs), tool.WithMaxTokens(opts.MaxTokens))
	}

	t, err := tool.New(def, fn, toolOpts...)
	if err != nil {
		return err
	}

	if _, exists := k.entries[def.Name]; exists {
		k.logger.Debug("Replacing registered tool", "toolkit", k.name, "tool", def.Name)
	} else {
		k.order = append(k.order, def.Name)
	}

	k.entries[def.Name] = &toolEntry{
		tool:        t,
		cache:       opts.Cache,
		ttl:         opts.TTL,
		invalidator: opts.Invalidator,
	}

	return nil
}

// GetTool returns the named tool or an error when absent.
func (k *Toolkit) GetTool(name string) (*tool.Tool, error) {
	entry, ok := k.entries[name]
	if !ok {
		return nil, &core.ValidationError{
			Field:   "tool",
			Value:   name,
			Message: fmt.Sprintf("tool %q is not registered in toolkit %q", name, k.name),
		}
	}

	return entry.tool, nil
}

// Tools returns all registered tools in registration order.
func (k *Toolkit) Tools() []*tool.Tool {
	tools := make([]*tool.Tool, 0, len(k.order))
	for _, name := range k.order {
		tools = append(tools, k.entries[name].tool)
	}

	return tools
}

// Invoke dispatches an invocation to the named tool, consulting the result
// cache when the tool was registered with caching. Only successful results
// are cached; error envelopes and failures always recompute. Callbacks
// observe the result's pages, on cache hits included.
func (k *Toolkit) Invoke(ctx context.Context, name string, input tool.Input, callbacks ...tool.PagesCallback) (map[string]any, error) {
	entry, ok := k.entries[name]
	if !ok {
		return nil, &core.ValidationError{
			Field:   "tool",
			Value:   name,
			Message: fmt.Sprintf("tool %q is not registered in toolkit %q", name, k.name),
		}
	}

	if !entry.cache {
		return entry.tool.Invoke(ctx, input, callbacks...)
	}

	args, err := tool.ResolveInput(input, entry.tool.Definition())
	if err != nil {
		return nil, err
	}

	key, err := cacheKey(name, args)
	if err != nil {
		return nil, err
	}

	if cached, hit := k.cache.get(key, entry.ttl, entry.invalidator); hit {
		k.logger.Debug("Tool cache hit", "toolkit", k.name, "tool", name)

		if len(cached.pages) > 0 {
			for _, cb := range callbacks {
				cb(name, cached.pages)
			}
		}

		return cached.value, nil
	}

	var pages []core.Page

	track := func(_ string, p []core.Page) { pages = p }

	result, err := entry.tool.Invoke(ctx, tool.ArgsInput(args), append(callbacks, track)...)
	if err != nil {
		return nil, err
	}

	if _, isEnvelope := result["response_code"]; !isEnvelope {
		k.cache.put(key, result, pages)
	}

	return result, nil
}
