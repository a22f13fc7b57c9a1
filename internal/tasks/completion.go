package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/playgen/internal/models"
	"github.com/sashabaranov/go-openai"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// CompletionKind discriminates a [CompletionResult].
type CompletionKind int

const (
	CompletionOK CompletionKind = iota
	CompletionSchemaViolation
	CompletionNoToolCall
)

func (k CompletionKind) String() string {
	switch k {
	case CompletionOK:
		return "ok"
	case CompletionSchemaViolation:
		return "schema_violation"
	case CompletionNoToolCall:
		return "no_tool_call"
	default:
		return ""
	}
}

// CompletionResult is the interpretation of a chat completion response.
//
// Spec is set only when Kind is [CompletionOK]; Violations only when Kind is [CompletionSchemaViolation].
type CompletionResult struct {
	Kind       CompletionKind
	Spec       models.PlaylistSpec
	Violations []string
}

// Err returns nil for [CompletionOK] and a [*MalformedCompletionError] otherwise.
func (r CompletionResult) Err() error {
	switch r.Kind {
	case CompletionOK:
		return nil
	case CompletionNoToolCall:
		return &MalformedCompletionError{Reason: "no " + ToolName + " call in response"}
	default:
		return &MalformedCompletionError{Reason: "arguments do not match schema", Violations: r.Violations}
	}
}

// Interpret extracts the create_playlist call from the first choice of resp and validates its arguments.
//
// Calls are read from tool_calls and then from the legacy function_call field. Identical duplicates count as one
// call; differing calls are ambiguous and reported as a schema violation.
func Interpret(resp openai.ChatCompletionResponse) CompletionResult {
	if len(resp.Choices) == 0 {
		return CompletionResult{Kind: CompletionNoToolCall}
	}

	msg := resp.Choices[0].Message
	var calls []string
	add := func(name, arguments string) {
		if name != ToolName {
			return
		}
		arguments = strings.TrimSpace(arguments)
		for _, c := range calls {
			if c == arguments {
				return
			}
		}
		calls = append(calls, arguments)
	}

	for _, tc := range msg.ToolCalls {
		add(tc.Function.Name, tc.Function.Arguments)
	}
	if msg.FunctionCall != nil {
		add(msg.FunctionCall.Name, msg.FunctionCall.Arguments)
	}

	switch len(calls) {
	case 0:
		return CompletionResult{Kind: CompletionNoToolCall}
	case 1:
		return ParseArguments(calls[0])
	default:
		return CompletionResult{
			Kind:       CompletionSchemaViolation,
			Violations: []string{fmt.Sprintf("ambiguous: %d differing %s calls", len(calls), ToolName)},
		}
	}
}

// ParseArguments validates the JSON arguments of a create_playlist call and decodes them.
func ParseArguments(arguments string) CompletionResult {
	var doc any
	if err := json.Unmarshal([]byte(arguments), &doc); err != nil {
		return CompletionResult{
			Kind:       CompletionSchemaViolation,
			Violations: []string{fmt.Sprintf("arguments are not valid JSON: %v", err)},
		}
	}

	if err := compiledSchema.Validate(doc); err != nil {
		return CompletionResult{Kind: CompletionSchemaViolation, Violations: violations(err)}
	}

	var spec models.PlaylistSpec
	if err := json.Unmarshal([]byte(arguments), &spec); err != nil {
		return CompletionResult{
			Kind:       CompletionSchemaViolation,
			Violations: []string{fmt.Sprintf("arguments could not be decoded: %v", err)},
		}
	}

	return CompletionResult{Kind: CompletionOK, Spec: spec}
}

// violations flattens a validation error tree into "location: message" leaves.
func violations(err error) []string {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []string{err.Error()}
	}

	var out []string
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			out = append(out, fmt.Sprintf("%s: %s", loc, e.Message))
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(verr)
	return out
}
