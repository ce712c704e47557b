package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/pagemesh/core"
	"github.com/hupe1980/pagemesh/logging"
	"github.com/hupe1980/pagemesh/model"
	"github.com/hupe1980/pagemesh/tool"
	"github.com/hupe1980/pagemesh/toolkit"
)

// DefaultMaxIterations bounds the think/act cycle when no budget is given.
const DefaultMaxIterations = 10

// Options configures a ReactAgent.
type Options struct {
	// MaxIterations is the hard iteration budget. Each iteration makes
	// exactly one model call.
	MaxIterations int

	// Logger used for loop diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// ReactAgent drives a language model through a bounded think/act cycle: it
// renders a prompt listing the available tools, parses the model's chosen
// action, dispatches it through the owning toolkit and feeds the observation
// back until the model produces a final answer or the budget runs out.
//
// Tool names must be unique across toolkits; on collision the first
// toolkit's tool wins and a warning is logged.
type ReactAgent struct {
	completer     model.Completer
	toolkits      []*toolkit.Toolkit
	registry      map[string]*toolkit.Toolkit
	systemPrompt  string
	maxIterations int
	logger        logging.Logger
}

// New creates a ReactAgent over one or more toolkits.
func New(completer model.Completer, toolkits []*toolkit.Toolkit, optFns ...func(o *Options)) (*ReactAgent, error) {
	if completer == nil {
		return nil, core.NewConfigurationError("agent", "completer must not be nil")
	}

	if len(toolkits) == 0 {
		return nil, core.NewConfigurationError("agent", "at least one toolkit is required")
	}

	opts := Options{
		MaxIterations: DefaultMaxIterations,
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxIterations < 1 {
		return nil, core.NewConfigurationError("agent", "max iterations must be >= 1, got %d", opts.MaxIterations)
	}

	a := &ReactAgent{
		completer:     completer,
		toolkits:      toolkits,
		registry:      make(map[string]*toolkit.Toolkit),
		maxIterations: opts.MaxIterations,
		logger:        opts.Logger,
	}

	var (
		descriptions []string
		names        []string
	)

	for _, tk := range toolkits {
		for _, t := range tk.Tools() {
			if _, exists := a.registry[t.Name()]; exists {
				a.logger.Warn("Tool name conflict, using first occurrence", "tool", t.Name())

				continue
			}

			a.registry[t.Name()] = tk
			descriptions = append(descriptions, t.FormattedDescription())
			names = append(names, t.Name())
		}
	}

	a.systemPrompt = renderSystemPrompt(descriptions, names)

	return a, nil
}

// action is one parsed model turn.
type action struct {
	Thought     string          `json:"thought"`
	Action      string          `json:"action"`
	ActionInput json.RawMessage `json:"action_input"`
}

func (a action) toJSON() string {
	out, _ := json.MarshalIndent(map[string]any{
		"thought":      a.Thought,
		"action":       a.Action,
		"action_input": a.ActionInput,
	}, "", "  ")

	return string(out)
}

// Search runs the ReAct loop for a query and returns the final page
// references. Neither "no results" nor an exhausted iteration budget is an
// error; both return an empty list. The loop checks ctx between iterations,
// so cancellation takes effect after the current iteration completes.
func (a *ReactAgent) Search(ctx context.Context, query string) ([]core.PageReference, error) {
	searchID := uuid.NewString()
	start := time.Now()

	a.logger.Info("Starting agent search", "search_id", searchID, "query", query)

	accessed := make(map[string]core.Page)

	track := func(toolName string, pages []core.Page) {
		for _, p := range pages {
			accessed[p.URI().String()] = p
			a.logger.Debug("Tracked page", "search_id", searchID, "tool", toolName, "uri", p.URI().String())
		}
	}

	messages := []model.Message{
		model.SystemMessage(a.systemPrompt),
		model.UserMessage(query),
	}

	for iteration := 0; iteration < a.maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		output, err := a.completer.Complete(ctx, messages)
		if err != nil {
			a.logger.Error("Model completion failed", "search_id", searchID, "error", err)

			return []core.PageReference{}, nil
		}

		act, ok := a.parseOutput(output)
		if !ok {
			// Unrecoverable parse failure, reported as an empty result.
			a.logger.Error("Failed to parse model output", "search_id", searchID, "output", output)

			return []core.PageReference{}, nil
		}

		if strings.EqualFold(act.Action, FinalAnswerAction) {
			refs := a.finish(act, accessed)
			a.logSearchCompleted(searchID, iteration+1, len(refs), time.Since(start))

			return refs, nil
		}

		observation := a.executeTool(ctx, searchID, act, track)

		messages = append(messages,
			model.AssistantMessage(act.toJSON()),
			model.UserMessage(observation),
		)
	}

	a.logger.Warn("Iteration budget exhausted without a final answer", "search_id", searchID, "max_iterations", a.maxIterations)

	return []core.PageReference{}, nil
}

// searchLogger is the optional richer interface a logger can implement to
// receive aggregate metrics for completed searches.
type searchLogger interface {
	LogSearch(searchID string, iterations, references int, dur time.Duration)
}

func (a *ReactAgent) logSearchCompleted(searchID string, iterations, references int, dur time.Duration) {
	if sl, ok := a.logger.(searchLogger); ok {
		sl.LogSearch(searchID, iterations, references, dur)

		return
	}

	a.logger.Info("Search completed", "search_id", searchID, "iterations", iterations, "references", references, "duration", dur)
}

// parseOutput extracts and repairs the JSON action from raw model output.
func (a *ReactAgent) parseOutput(output string) (action, bool) {
	payload := FixJSONEscapes(ExtractJSON(output))

	var act action
	if err := json.Unmarshal([]byte(payload), &act); err != nil {
		return action{}, false
	}

	return act, true
}

// finish converts the final answer into page references, attaching any page
// the search already touched. A non-success response code yields an empty
// list.
func (a *ReactAgent) finish(act action, accessed map[string]core.Page) []core.PageReference {
	resp := ParseResponse(string(act.ActionInput))

	if resp.ResponseCode != core.ResponseSuccess {
		a.logger.Debug("Final answer without results", "response_code", string(resp.ResponseCode), "error_message", resp.ErrorMessage)

		return []core.PageReference{}
	}

	refs := resp.References
	for i := range refs {
		if p, ok := accessed[refs[i].URI.String()]; ok {
			refs[i].AttachPage(p)
		}
	}

	return refs
}

// executeTool dispatches the chosen action and formats the observation fed
// back to the model. All failures here are recoverable: the model sees them
// as observations and can retry with corrected input.
func (a *ReactAgent) executeTool(ctx context.Context, searchID string, act action, track tool.PagesCallback) string {
	tk, ok := a.registry[act.Action]
	if !ok {
		a.logger.Warn("Unknown tool requested", "search_id", searchID, "tool", act.Action)

		return errorObservation(fmt.Sprintf("Tool %q is not available. Valid tools: %s", act.Action, strings.Join(a.toolNames(), ", ")))
	}

	input, err := parseActionInput(act.ActionInput)
	if err != nil {
		return errorObservation(fmt.Sprintf("Invalid action_input for tool %q: %v", act.Action, err))
	}

	start := time.Now()

	result, err := tk.Invoke(ctx, act.Action, input, track)
	if err != nil {
		a.logger.Warn("Tool execution failed", "search_id", searchID, "tool", act.Action, "duration", time.Since(start), "error", err)

		return errorObservation(fmt.Sprintf("Tool execution failed: %v", err))
	}

	a.logger.Debug("Tool executed", "search_id", searchID, "tool", act.Action, "duration", time.Since(start))

	return observation(result)
}

func (a *ReactAgent) toolNames() []string {
	names := make([]string, 0, len(a.registry))
	for name := range a.registry {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// parseActionInput maps the raw action_input payload onto a tool input: a
// JSON object becomes named arguments, a JSON string a positional value and
// a missing payload empty arguments.
func parseActionInput(raw json.RawMessage) (tool.Input, error) {
	if len(raw) == 0 {
		return tool.ArgsInput{}, nil
	}

	return tool.ParseArgs(string(raw))
}

func observation(result map[string]any) string {
	out, err := json.MarshalIndent(map[string]any{"observation": result}, "", "  ")
	if err != nil {
		return errorObservation(fmt.Sprintf("failed to serialize observation: %v", err))
	}

	return string(out)
}

func errorObservation(msg string) string {
	out, _ := json.MarshalIndent(map[string]any{"observation": map[string]any{"error": msg}}, "", "  ")

	return string(out)
}
