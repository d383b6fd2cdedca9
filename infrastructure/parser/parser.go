// Package parser extracts tool invocations from model responses. A
// response yields at most one tool call; a response with no action marker
// is the candidate final answer.
package parser

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/balizero/zantara-agentic/domain/agent"
	"github.com/balizero/zantara-agentic/infrastructure/gateway"
)

// actionLine matches a text action directive such as
//
//	Action: vector_search({"query": "kitas"})
//	Action: calculator
var actionLine = regexp.MustCompile(`(?i)^\s*action:\s*([\w.-]+)\s*(?:\((.*)\))?\s*$`)

// actionInputLine matches a follow-up arguments line such as
//
//	Action Input: {"query": "kitas"}
var actionInputLine = regexp.MustCompile(`(?i)^\s*action\s+input:\s*(.*)$`)

// Parse extracts zero-or-one tool call from a gateway response. Native
// function-call objects take priority over text heuristics when both are
// present. The second return value is false when the response carries no
// tool call, which signals the text is the candidate final answer.
func Parse(resp *gateway.Response) (agent.ToolCall, bool) {
	if call, ok := parseNative(resp.ToolCalls); ok {
		return call, true
	}
	return parseText(resp.Text)
}

// parseNative extracts the first native function call.
func parseNative(calls []gateway.NativeToolCall) (agent.ToolCall, bool) {
	if len(calls) == 0 {
		return agent.ToolCall{}, false
	}
	native := calls[0]
	if native.Name == "" {
		return agent.ToolCall{}, false
	}
	return agent.ToolCall{
		Name:      native.Name,
		Arguments: decodeArguments(native.Arguments),
	}, true
}

// parseText scans for the first action directive. Missing arguments are an
// empty mapping; extra candidate action lines are ignored.
func parseText(text string) (agent.ToolCall, bool) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		m := actionLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		name := m[1]
		if strings.EqualFold(name, "none") {
			return agent.ToolCall{}, false
		}

		args := m[2]
		if args == "" {
			args = followupArguments(lines[i+1:])
		}
		return agent.ToolCall{
			Name:      name,
			Arguments: decodeArguments(args),
		}, true
	}
	return agent.ToolCall{}, false
}

// followupArguments looks for an "Action Input:" line after the directive.
func followupArguments(rest []string) string {
	for _, line := range rest {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if m := actionInputLine.FindStringSubmatch(line); m != nil {
			return m[1]
		}
		return ""
	}
	return ""
}

// decodeArguments parses a JSON argument object. Malformed or absent
// arguments degrade to an empty mapping rather than failing the step.
func decodeArguments(raw string) map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return map[string]any{}
	}
	return args
}

// answerPrefix strips a leading answer marker from final-answer text.
var answerPrefix = regexp.MustCompile(`(?i)^\s*(final\s+answer|answer)\s*:\s*`)

// StripAnswerPrefix removes "Answer:" / "Final Answer:" scaffolding from a
// candidate final answer.
func StripAnswerPrefix(text string) string {
	return strings.TrimSpace(answerPrefix.ReplaceAllString(strings.TrimSpace(text), ""))
}

// thoughtLine matches reasoning scaffolding that is not answer material.
var thoughtLine = regexp.MustCompile(`(?i)^\s*(thought|reasoning|observation)\s*:`)

// FinalText reduces a no-action response to its answer text. Thought and
// observation lines are dropped, so a response that is pure reasoning
// yields "" and the loop keeps going instead of answering with scaffolding.
func FinalText(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if thoughtLine.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return StripAnswerPrefix(strings.Join(kept, "\n"))
}
