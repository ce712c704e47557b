// Package tool implements the function calling subsystem that lets agents
// invoke structured retrieval capabilities with declared parameters,
// consistent error envelopes and optional token-budgeted pagination.
package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/pagemesh/core"
	"github.com/hupe1980/pagemesh/logging"
)

// PagesFunc is a tool implementation returning the full matching page set.
// Returning core.ErrNoPagesFound (or wrapping it) signals an explicit
// no-match; a nil error with zero pages is treated the same way.
type PagesFunc func(ctx context.Context, args map[string]any) ([]core.Page, error)

// PaginatedFunc is a tool implementation that paginates natively. The
// wrapper passes cursor arguments straight through and trusts the function's
// continuation metadata.
type PaginatedFunc func(ctx context.Context, args map[string]any) (*PaginatedResponse, error)

// Param describes one declared tool parameter.
type Param struct {
	// Name of the argument as the model must supply it
	Name string
	// Type hint shown to the model (e.g. "string", "integer")
	Type string
	// Description shown to the model
	Description string
	// Required arguments missing at invocation produce a validation error
	Required bool
}

// Definition is the explicit metadata attached to a tool at registration
// time. It is built by the registering code, never derived by reflection, and
// serves both prompt rendering and input validation.
type Definition struct {
	// Tool identifier (snake_case recommended)
	Name string
	// Human-readable description shown to models
	Description string
	// Ordered parameter declarations
	Parameters []Param
}

// ExecutionError wraps an unexpected failure of the underlying tool function
// so callers can distinguish it from a legitimate empty result.
type ExecutionError struct {
	Tool string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("tool %q execution failed: %v", e.Tool, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Options configures a Tool.
type Options struct {
	// PageSize enables client-side pagination with the given page length.
	// Nil disables pagination; values below 1 are rejected.
	PageSize *int

	// MaxTokens is the token budget per client-side page. Ignored unless
	// PageSize is set. Defaults to DefaultMaxTokens.
	MaxTokens int

	// Logger used for invocation diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// DefaultMaxTokens is the per-page token budget used when pagination is
// enabled without an explicit budget.
const DefaultMaxTokens = 2048

// WithPageSize enables client-side pagination with the given page length.
func WithPageSize(n int) func(o *Options) {
	return func(o *Options) { o.PageSize = &n }
}

// WithMaxTokens sets the token budget per client-side page.
func WithMaxTokens(n int) func(o *Options) {
	return func(o *Options) { o.MaxTokens = n }
}

// WithLogger sets the logger used for invocation diagnostics.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// Tool wraps a retrieval function with metadata, input coercion, output
// serialization and optional pagination. A Tool has no mutable state after
// construction and is safe for concurrent use.
type Tool struct {
	def       Definition
	pagesFn   PagesFunc
	paginated PaginatedFunc
	pageSize  int
	maxTokens int
	logger    logging.Logger
}

// New constructs a Tool from explicit metadata and a function. The function
// must be a PagesFunc or a PaginatedFunc; anything else is a configuration
// error citing the offending type. Enabling PageSize on a PaginatedFunc is a
// configuration error, since the function already paginates itself.
func New(def Definition, fn any, optFns ...func(o *Options)) (*Tool, error) {
	if def.Name == "" {
		return nil, core.NewConfigurationError("tool", "tool name must not be empty")
	}

	opts := Options{
		MaxTokens: DefaultMaxTokens,
		Logger:    logging.NoOpLogger{},
	}

	for _, optFn := range optFns {
		optFn(&opts)
	}

	t := &Tool{
		def:       def,
		maxTokens: opts.MaxTokens,
		logger:    opts.Logger,
	}

	if opts.PageSize != nil {
		if *opts.PageSize < 1 {
			return nil, core.NewConfigurationError("tool", "tool %q: page size must be >= 1, got %d", def.Name, *opts.PageSize)
		}

		t.pageSize = *opts.PageSize
	}

	switch f := fn.(type) {
	case PagesFunc:
		t.pagesFn = f
	case func(ctx context.Context, args map[string]any) ([]core.Page, error):
		t.pagesFn = f
	case PaginatedFunc:
		if t.pageSize > 0 {
			return nil, core.NewConfigurationError("tool", "tool %q: cannot paginate a tool that already paginates itself", def.Name)
		}

		t.paginated = f
	case func(ctx context.Context, args map[string]any) (*PaginatedResponse, error):
		if t.pageSize > 0 {
			return nil, core.NewConfigurationError("tool", "tool %q: cannot paginate a tool that already paginates itself", def.Name)
		}

		t.paginated = f
	default:
		return nil, core.NewConfigurationError("tool", "tool %q: unsupported function type %T, must return pages or a paginated response", def.Name, fn)
	}

	if t.pageSize > 0 {
		t.def.Parameters = appendPageParam(t.def.Parameters)
	}

	return t, nil
}

// appendPageParam declares the page argument added by client-side pagination
// unless the registering code already declared one.
func appendPageParam(params []Param) []Param {
	for _, p := range params {
		if p.Name == "page" {
			return params
		}
	}

	return append(params, Param{
		Name:        "page",
		Type:        "integer",
		Description: "Zero-based page number to retrieve",
	})
}

// Name returns the unique tool name used in prompt rendering and dispatch.
func (t *Tool) Name() string { return t.def.Name }

// Description returns the short natural language description exposed to models.
func (t *Tool) Description() string { return t.def.Description }

// Definition returns the tool's declared metadata.
func (t *Tool) Definition() Definition { return t.def }

// Paginated reports whether invocations of this tool return paged results,
// either natively or through the client-side wrapper.
func (t *Tool) Paginated() bool { return t.paginated != nil || t.pageSize > 0 }

// FormattedDescription renders the tool for the agent prompt: name,
// description, declared arguments and a pagination note when the tool pages
// its results.
func (t *Tool) FormattedDescription() string {
	var sb strings.Builder

	sb.WriteString("- ")
	sb.WriteString(t.def.Name)
	sb.WriteString(": ")
	sb.WriteString(t.def.Description)

	if len(t.def.Parameters) > 0 {
		sb.WriteString("\n  Arguments:")

		for _, p := range t.def.Parameters {
			sb.WriteString("\n    ")
			sb.WriteString(p.Name)
			sb.WriteString(" (")
			sb.WriteString(p.Type)

			if p.Required {
				sb.WriteString(", required")
			}

			sb.WriteString(")")

			if p.Description != "" {
				sb.WriteString(": ")
				sb.WriteString(p.Description)
			}
		}
	}

	if t.Paginated() {
		sb.WriteString("\n  Note: results are paginated; request further pages to see more matches.")
	}

	return sb.String()
}

// PagesCallback observes the pages included in a successful invocation,
// before serialization. Used by the agent loop to track which pages a search
// has touched.
type PagesCallback func(toolName string, pages []core.Page)

// Invoke coerces the input, validates required arguments and calls the
// wrapped function. Callbacks observe the pages of a successful result.
//
// Outcome semantics:
//
//	explicit no-match or zero pages -> NOT_FOUND envelope, nil error
//	unexpected function error       -> *ExecutionError
//	missing/invalid arguments       -> *core.ValidationError
//	success                         -> serialized result map
func (t *Tool) Invoke(ctx context.Context, input Input, callbacks ...PagesCallback) (map[string]any, error) {
	args, err := ResolveInput(input, t.def)
	if err != nil {
		return nil, err
	}

	for _, p := range t.def.Parameters {
		if !p.Required {
			continue
		}

		if _, ok := args[p.Name]; !ok {
			return nil, &core.ValidationError{
				Field:   p.Name,
				Message: fmt.Sprintf("tool %q: missing required argument", t.def.Name),
			}
		}
	}

	var resp *PaginatedResponse

	if t.paginated != nil {
		resp, err = t.invokeNative(ctx, args)
	} else {
		resp, err = t.invokePages(ctx, args)
	}

	if err != nil {
		return t.failure(err)
	}

	// A nil response means the function produced nothing at all. An empty
	// Results slice with a response present is a legitimate empty page
	// (e.g. a request beyond the last page) and stays a success.
	if resp == nil {
		return notFoundEnvelope(core.ErrNoPagesFound.Error()), nil
	}

	if len(resp.Results) > 0 {
		for _, cb := range callbacks {
			cb(t.def.Name, resp.Results)
		}
	}

	return resp.marshalMap()
}

func (t *Tool) invokeNative(ctx context.Context, args map[string]any) (*PaginatedResponse, error) {
	resp, err := t.paginated(ctx, args)
	if err != nil {
		return nil, err
	}

	if resp == nil || len(resp.Results) == 0 {
		return nil, nil
	}

	return resp, nil
}

func (t *Tool) invokePages(ctx context.Context, args map[string]any) (*PaginatedResponse, error) {
	page := 0

	if t.pageSize > 0 {
		var err error

		page, args, err = popPageArg(args)
		if err != nil {
			return nil, err
		}
	}

	pages, err := t.pagesFn(ctx, args)
	if err != nil {
		return nil, err
	}

	if len(pages) == 0 {
		return nil, nil
	}

	if t.pageSize > 0 {
		return paginate(pages, page, t.pageSize, t.maxTokens), nil
	}

	return &PaginatedResponse{Results: pages}, nil
}

// failure maps an explicit no-match to the NOT_FOUND envelope, forwards
// validation errors untouched and wraps everything else as an execution
// error.
func (t *Tool) failure(err error) (map[string]any, error) {
	if errors.Is(err, core.ErrNoPagesFound) {
		t.logger.Debug("Tool returned no documents", "tool", t.def.Name)

		return notFoundEnvelope(err.Error()), nil
	}

	var valErr *core.ValidationError
	if errors.As(err, &valErr) {
		return nil, err
	}

	t.logger.Error("Tool execution failed", "tool", t.def.Name, "error", err)

	return nil, &ExecutionError{Tool: t.def.Name, Err: err}
}

// popPageArg extracts the requested page number from the argument map,
// removing it so the wrapped function never sees it. A negative page number
// fails fast.
func popPageArg(args map[string]any) (int, map[string]any, error) {
	raw, ok := args["page"]
	if !ok {
		return 0, args, nil
	}

	rest := make(map[string]any, len(args)-1)
	for k, v := range args {
		if k != "page" {
			rest[k] = v
		}
	}

	page, ok := toInt(raw)
	if !ok {
		return 0, nil, &core.ValidationError{
			Field:   "page",
			Value:   fmt.Sprintf("%v", raw),
			Message: "page must be an integer",
		}
	}

	if page < 0 {
		return 0, nil, &core.ValidationError{
			Field:   "page",
			Value:   fmt.Sprintf("%d", page),
			Message: "page must not be negative",
		}
	}

	return page, rest, nil
}

// toInt accepts the numeric shapes JSON decoding and Go callers produce.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}

		return int(n), true
	default:
		return 0, false
	}
}

func notFoundEnvelope(msg string) map[string]any {
	return map[string]any{
		"response_code": string(core.ResponseNotFound),
		"references":    []any{},
		"error_message": msg,
	}
}
