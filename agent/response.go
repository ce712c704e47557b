package agent

import (
	"encoding/json"
	"fmt"

	"github.com/hupe1980/pagemesh/core"
)

// Response is the structured final answer of a search: a response code, the
// page references the model selected and an optional error message.
type Response struct {
	ResponseCode core.ResponseCode    `json:"response_code"`
	References   []core.PageReference `json:"references"`
	ErrorMessage string               `json:"error_message,omitempty"`
}

// ErrorResponse builds a Response for the given code, falling back to the
// code's default message when none is supplied.
func ErrorResponse(code core.ResponseCode, message string) Response {
	if message == "" {
		message = code.DefaultMessage()
	}

	return Response{
		ResponseCode: code,
		References:   []core.PageReference{},
		ErrorMessage: message,
	}
}

// ParseResponse turns a raw final-answer payload into a Response. It never
// fails: malformed JSON, a missing response code or an unknown code all
// produce an INTERNAL_ERROR response with a synthesized message.
func ParseResponse(text string) Response {
	payload := FixJSONEscapes(ExtractJSON(text))

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return ErrorResponse(core.ResponseInternalError, fmt.Sprintf("failed to parse JSON response: %v", err))
	}

	// Unwrap an enclosing action/action_input envelope.
	if action, ok := parsed["action"]; ok {
		var name string
		if err := json.Unmarshal(action, &name); err == nil && name == FinalAnswerAction {
			if inner, ok := parsed["action_input"]; ok {
				return parseResponseObject(inner)
			}
		}
	}

	return parseResponseObject(json.RawMessage(payload))
}

func parseResponseObject(raw json.RawMessage) Response {
	var probe struct {
		ResponseCode *core.ResponseCode `json:"response_code"`
	}

	if err := json.Unmarshal(raw, &probe); err != nil {
		return ErrorResponse(core.ResponseInternalError, fmt.Sprintf("failed to parse response: %v", err))
	}

	if probe.ResponseCode == nil {
		return ErrorResponse(core.ResponseInternalError, "missing response code in output")
	}

	if !probe.ResponseCode.Valid() {
		return ErrorResponse(core.ResponseInternalError, fmt.Sprintf("unknown response code %q", string(*probe.ResponseCode)))
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return ErrorResponse(core.ResponseInternalError, fmt.Sprintf("failed to parse response: %v", err))
	}

	if resp.References == nil {
		resp.References = []core.PageReference{}
	}

	return resp
}
