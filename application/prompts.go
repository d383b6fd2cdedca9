package application

import (
	"fmt"
	"strings"

	"github.com/balizero/zantara-agentic/domain/agent"
	"github.com/balizero/zantara-agentic/domain/tool"
)

// systemPrompt is the fixed instruction block for the reasoning model. It
// teaches the Action/Action Input wire format the parser understands.
const systemPrompt = `You are ZANTARA, a retrieval-augmented assistant.

Answer strictly from the evidence gathered through tools. When the evidence
does not cover the question, say so instead of guessing.

To use a tool, reply with:
Thought: <why the tool is needed>
Action: <tool_name>
Action Input: <JSON object with the tool arguments>

When you have enough evidence, reply with:
Final Answer: <your answer, citing the sources you used>

Mirror the language of the user: answer in Indonesian when the question is
in Indonesian, otherwise in English.`

// InitialPrompt renders the first user turn of a reasoning run.
func InitialPrompt(query string, tools []tool.Tool) string {
	var b strings.Builder
	b.WriteString("Available tools:\n")
	for _, t := range tools {
		fmt.Fprintf(&b, "- %s: %s\n", t.Name(), t.Description())
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(query)
	return b.String()
}

// ObservationPrompt renders the follow-up turn after a tool round.
func ObservationPrompt(toolName, observation string, state *agent.State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Observation from %s:\n%s\n\n", toolName, observation)
	fmt.Fprintf(&b, "Step %d of %d used. ", state.CurrentStep, state.MaxSteps)
	b.WriteString("Continue with another Action, or reply with Final Answer.")
	return b.String()
}

// SynthesisPrompt asks the model for a final answer from the gathered
// context, used when the loop exhausts its budget without one.
func SynthesisPrompt(state *agent.State) string {
	var b strings.Builder
	b.WriteString("No more tool calls are allowed. Using only the evidence below, ")
	b.WriteString("write the final answer to the original question.\n\n")
	fmt.Fprintf(&b, "Question: %s\n\nEvidence:\n", state.Query)
	for i, c := range state.ContextGathered {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, c)
	}
	return b.String()
}
