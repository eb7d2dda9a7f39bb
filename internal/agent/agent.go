// Package agent runs the conversational loop around the tool registry. The
// model answers questions about the ledger but every financial figure comes
// from a tool invocation; the model is never trusted to compute numbers.
package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/dvloznov/momo-agent/internal/tools"
)

const systemPrompt = "You are a personal finance assistant for mobile-money transactions.\n" +
	"Rules:\n" +
	"- For ANY amount, total, count or ranking, call one of the provided tools.\n" +
	"- NEVER compute, estimate or guess a financial figure yourself.\n" +
	"- If a tool returns an error, explain it and ask the user to rephrase.\n" +
	"- Amounts in tool results are exact decimal strings; repeat them as given.\n" +
	"- Answer concisely in plain language."

// maxToolRounds bounds the call-respond loop for one question so a
// misbehaving model cannot spin forever.
const maxToolRounds = 8

// Agent holds one chat session: the model client, the tool registry and the
// conversation history.
type Agent struct {
	client   *genai.Client
	model    string
	registry *tools.Registry
	config   *genai.GenerateContentConfig
	history  []*genai.Content
	log      zerolog.Logger
}

// New creates a chat session. The client reads its API key from the
// environment (GEMINI_API_KEY), same as every other genai caller.
func New(ctx context.Context, model string, registry *tools.Registry, log zerolog.Logger) (*Agent, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("agent.New: create genai client: %w", err)
	}

	return &Agent{
		client:   client,
		model:    model,
		registry: registry,
		config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			Tools:             []*genai.Tool{{FunctionDeclarations: declarations(registry)}},
		},
		log: log,
	}, nil
}

// Ask sends one user question and drives the function-calling loop until the
// model produces a text answer.
func (a *Agent) Ask(ctx context.Context, question string) (string, error) {
	a.history = append(a.history, genai.NewContentFromText(question, genai.RoleUser))
	a.log.Info().Str("question", question).Msg("user question")

	for round := 0; round < maxToolRounds; round++ {
		resp, err := a.client.Models.GenerateContent(ctx, a.model, a.history, a.config)
		if err != nil {
			return "", fmt.Errorf("Ask: generate content: %w", err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return "", fmt.Errorf("Ask: empty response from model")
		}
		a.history = append(a.history, resp.Candidates[0].Content)

		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			answer := resp.Text()
			a.log.Info().Str("answer", answer).Msg("model answer")
			return answer, nil
		}

		parts := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			a.log.Info().Str("tool", call.Name).Interface("args", call.Args).Msg("tool call")
			result := a.registry.Invoke(call.Name, call.Args)
			if result.Error != nil {
				a.log.Warn().Str("tool", call.Name).Str("code", result.Error.Code).
					Str("message", result.Error.Message).Msg("tool call failed")
			}
			parts = append(parts, genai.NewPartFromFunctionResponse(call.Name, resultPayload(result)))
		}
		a.history = append(a.history, genai.NewContentFromParts(parts, genai.RoleUser))
	}

	return "", fmt.Errorf("Ask: no text answer after %d tool rounds", maxToolRounds)
}

// declarations exports the registry as model-callable function declarations.
// The registry schemas are the single source of truth; this is a straight
// translation, not a second contract.
func declarations(r *tools.Registry) []*genai.FunctionDeclaration {
	ts := r.Tools()
	decls := make([]*genai.FunctionDeclaration, 0, len(ts))
	for _, t := range ts {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  toGenAISchema(t.Schema),
		})
	}
	return decls
}

func toGenAISchema(s tools.Schema) *genai.Schema {
	properties := make(map[string]*genai.Schema, len(s.Params))
	var required []string

	for _, p := range s.Params {
		ps := &genai.Schema{Description: p.Description}
		switch p.Type {
		case tools.TypeInteger:
			ps.Type = genai.TypeInteger
			if p.Min != nil {
				min := float64(*p.Min)
				ps.Minimum = &min
			}
			if p.Max != nil {
				max := float64(*p.Max)
				ps.Maximum = &max
			}
		default:
			ps.Type = genai.TypeString
			ps.Enum = p.Enum
		}
		properties[p.Name] = ps
		if p.Required {
			required = append(required, p.Name)
		}
	}

	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: properties,
		Required:   required,
	}
}

// resultPayload flattens a tool result into the map shape the function
// response part expects.
func resultPayload(res tools.Result) map[string]any {
	raw, err := json.Marshal(res)
	if err != nil {
		return map[string]any{"ok": false, "error": "unserializable tool result"}
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return map[string]any{"ok": false, "error": "unserializable tool result"}
	}
	return payload
}
