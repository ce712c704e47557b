package pagemesh

import (
	"context"
	"fmt"
	"sort"

	"github.com/hupe1980/pagemesh/core"
	"github.com/hupe1980/pagemesh/tool"
)

// ActionFunc performs a mutation against the page it is given and reports
// whether the mutation succeeded. Extra named arguments beyond the target
// page arrive in args.
type ActionFunc func(ctx context.Context, page core.Page, args map[string]any) (bool, error)

// ActionOptions configures a single action registration.
type ActionOptions struct {
	// PageParam is the argument name carrying the target page's URI.
	// Defaults to "uri". A positional string input binds to this parameter.
	PageParam string

	// PageType restricts the action to pages of the given type. Empty
	// accepts any type.
	PageType string
}

// WithPageParam sets the argument name carrying the target page's URI.
func WithPageParam(name string) func(o *ActionOptions) {
	return func(o *ActionOptions) { o.PageParam = name }
}

// WithPageType restricts the action to pages of a single type. Invoking the
// action with a URI of any other type fails without calling the function.
func WithPageType(pageType string) func(o *ActionOptions) {
	return func(o *ActionOptions) { o.PageType = pageType }
}

type actionEntry struct {
	fn        ActionFunc
	pageParam string
	pageType  string
}

// RegisterAction binds a named boolean action to the app. Actions receive a
// materialized page rather than a URI: InvokeAction resolves the URI argument
// through the router before calling fn, so the function mutates the same
// instance later resolutions observe. Registering a name twice is a
// configuration error.
func (a *App) RegisterAction(name string, fn ActionFunc, optFns ...func(o *ActionOptions)) error {
	if name == "" {
		return core.NewConfigurationError("app", "action name must not be empty")
	}

	if fn == nil {
		return core.NewConfigurationError("app", "action %q must not have a nil function", name)
	}

	opts := ActionOptions{
		PageParam: "uri",
	}

	for _, optFn := range optFns {
		optFn(&opts)
	}

	if _, exists := a.actions[name]; exists {
		return core.NewConfigurationError("app", "action %q already registered", name)
	}

	a.actions[name] = actionEntry{
		fn:        fn,
		pageParam: opts.PageParam,
		pageType:  opts.PageType,
	}

	a.logger.Debug("Registered action", "action", name, "page_param", opts.PageParam)

	return nil
}

// Actions returns the registered action names in sorted order.
func (a *App) Actions() []string {
	names := make([]string, 0, len(a.actions))
	for name := range a.actions {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// InvokeAction executes a registered action against the page named by its
// URI argument and returns a success envelope:
//
//	{"success": bool}                      the function's verdict
//	{"success": false, "error": message}   resolution or execution failed
//
// Execution failures are reported inside the envelope with a nil error, so
// a failed mutation reads the same way as a refused one. Only an unknown
// action name or unusable input is returned as an error.
func (a *App) InvokeAction(ctx context.Context, name string, input tool.Input) (map[string]any, error) {
	entry, ok := a.actions[name]
	if !ok {
		return nil, &core.ValidationError{
			Field:   "action",
			Value:   name,
			Message: fmt.Sprintf("action %q is not registered", name),
		}
	}

	args, err := resolveActionInput(input, entry.pageParam)
	if err != nil {
		return nil, err
	}

	page, rest, err := a.resolveActionPage(ctx, entry, args)
	if err != nil {
		a.logger.Error("Action failed", "action", name, "error", err)

		return actionFailure(err), nil
	}

	result, err := entry.fn(ctx, page, rest)
	if err != nil {
		a.logger.Error("Action failed", "action", name, "error", err)

		return actionFailure(err), nil
	}

	return map[string]any{"success": result}, nil
}

// resolveActionInput coerces an invocation input into named arguments. A
// positional string binds to the action's page parameter.
func resolveActionInput(input tool.Input, pageParam string) (map[string]any, error) {
	switch in := input.(type) {
	case tool.StringInput:
		return map[string]any{pageParam: string(in)}, nil
	case tool.ArgsInput:
		args := make(map[string]any, len(in))
		for k, v := range in {
			args[k] = v
		}

		return args, nil
	case nil:
		return map[string]any{}, nil
	default:
		return nil, &core.ValidationError{
			Field:   "input",
			Message: "unsupported input kind",
		}
	}
}

// resolveActionPage extracts the page argument, resolves it through the
// router and returns the remaining arguments with the page argument removed.
func (a *App) resolveActionPage(ctx context.Context, entry actionEntry, args map[string]any) (core.Page, map[string]any, error) {
	raw, ok := args[entry.pageParam]
	if !ok {
		return nil, nil, fmt.Errorf("missing required argument %q", entry.pageParam)
	}

	var (
		uri core.PageURI
		err error
	)

	switch v := raw.(type) {
	case string:
		uri, err = core.ParsePageURI(v)
		if err != nil {
			return nil, nil, err
		}
	case core.PageURI:
		uri = v
	default:
		return nil, nil, fmt.Errorf("argument %q must be a page URI, got %T", entry.pageParam, raw)
	}

	if entry.pageType != "" && uri.Type != entry.pageType {
		return nil, nil, fmt.Errorf("action accepts pages of type %q, got %q", entry.pageType, uri.Type)
	}

	page, err := a.router.Resolve(ctx, uri)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to retrieve page: %w", err)
	}

	rest := make(map[string]any, len(args)-1)
	for k, v := range args {
		if k != entry.pageParam {
			rest[k] = v
		}
	}

	return page, rest, nil
}

func actionFailure(err error) map[string]any {
	return map[string]any{
		"success": false,
		"error":   err.Error(),
	}
}
