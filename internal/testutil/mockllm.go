// Package testutil provides test doubles for fruitbot, most importantly a
// scripted LLM registered as a Genkit model.
package testutil

import (
	"context"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// ModelName is the provider-qualified name the mock registers under.
const ModelName = "mock/test-model"

// Scripted is one canned model response: optional tool requests plus text.
type Scripted struct {
	Text  string
	Tools []*ai.ToolRequest
}

// MockCall records a single call to the mock model.
type MockCall struct {
	Messages int    // message count of the request
	LastRole ai.Role
	Response string
}

// MockLLM returns scripted responses in order. When the script is empty it
// returns the repeat response if one is set, otherwise the fallback text.
// The repeat response makes it trivial to simulate a model that requests
// tool calls forever.
//
// Thread-safe for concurrent use.
type MockLLM struct {
	mu       sync.Mutex
	script   []Scripted
	repeat   *Scripted
	fallback string
	calls    []MockCall
}

// NewMockLLM creates a mock LLM with the given fallback text response.
func NewMockLLM(fallback string) *MockLLM {
	return &MockLLM{fallback: fallback}
}

// Enqueue appends a scripted response; responses are consumed in order.
func (m *MockLLM) Enqueue(resp Scripted) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, resp)
}

// EnqueueText appends a text-only scripted response.
func (m *MockLLM) EnqueueText(text string) {
	m.Enqueue(Scripted{Text: text})
}

// EnqueueToolCall appends a scripted response requesting a single tool call.
func (m *MockLLM) EnqueueToolCall(name, ref string, input any) {
	m.Enqueue(Scripted{Tools: []*ai.ToolRequest{{Name: name, Ref: ref, Input: input}}})
}

// SetRepeat sets the response returned on every call once the script is
// exhausted.
func (m *MockLLM) SetRepeat(resp Scripted) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.repeat = &resp
}

// Calls returns a copy of all recorded calls.
func (m *MockLLM) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]MockCall, len(m.calls))
	copy(cp, m.calls)
	return cp
}

// RegisterModel registers the mock as a Genkit model and returns a reference.
func (m *MockLLM) RegisterModel(g *genkit.Genkit) ai.Model {
	return genkit.DefineModel(g, ModelName, &ai.ModelOptions{
		Label: "Mock Test Model",
		Supports: &ai.ModelSupports{
			Multiturn:  true,
			Tools:      true,
			SystemRole: true,
			Media:      false,
		},
	}, m.generate)
}

// generate is the Genkit model function.
func (m *MockLLM) generate(ctx context.Context, req *ai.ModelRequest, cb ai.ModelStreamCallback) (*ai.ModelResponse, error) {
	m.mu.Lock()
	var resp Scripted
	switch {
	case len(m.script) > 0:
		resp = m.script[0]
		m.script = m.script[1:]
	case m.repeat != nil:
		resp = *m.repeat
	default:
		resp = Scripted{Text: m.fallback}
	}

	call := MockCall{Messages: len(req.Messages), Response: resp.Text}
	if n := len(req.Messages); n > 0 {
		call.LastRole = req.Messages[n-1].Role
	}
	m.calls = append(m.calls, call)
	m.mu.Unlock()

	if cb != nil && resp.Text != "" {
		_ = cb(ctx, &ai.ModelResponseChunk{
			Content: []*ai.Part{ai.NewTextPart(resp.Text)},
		})
	}

	var parts []*ai.Part
	for _, tr := range resp.Tools {
		parts = append(parts, &ai.Part{
			Kind:        ai.PartToolRequest,
			ToolRequest: tr,
		})
	}
	if resp.Text != "" || len(parts) == 0 {
		parts = append(parts, ai.NewTextPart(resp.Text))
	}

	return &ai.ModelResponse{
		Request: req,
		Message: &ai.Message{
			Role:    ai.RoleModel,
			Content: parts,
		},
	}, nil
}
