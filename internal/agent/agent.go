// Package agent drives the fruitbot conversation loop.
//
// One call to ExecuteStream is one user turn: the transcript is replayed to
// the model together with the tool catalog, requested tool calls are
// dispatched sequentially in issue order, their results are fed back, and
// the loop repeats until the model produces a final text answer or the step
// budget runs out. The loop owns tool dispatch and the budget; Genkit is
// asked to return tool requests instead of resolving them itself.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/fruitify/fruitbot/internal/session"
)

const (
	// DefaultMaxSteps bounds tool-call rounds per user turn.
	DefaultMaxSteps = 10

	// fallbackResponseMessage is returned when the model yields an empty
	// final answer with no tool requests.
	fallbackResponseMessage = "I apologize, but I couldn't generate a response. Please try rephrasing your question."

	// exhaustedResponseMessage terminates a turn whose step budget ran out
	// before the model produced a final answer.
	exhaustedResponseMessage = "I wasn't able to finish that request within my step limit. Please try again or simplify the request."
)

// StreamCallback is called for each chunk of streaming response text.
// Return an error to abort the stream.
type StreamCallback func(ctx context.Context, chunk *ai.ModelResponseChunk) error

// Response is the result of one user turn.
type Response struct {
	FinalText string // text delivered to the user
	Steps     int    // model invocations performed
	ToolCalls int    // tool calls dispatched
	Exhausted bool   // step budget ran out before a final answer
}

// Config contains all required parameters for the Agent.
type Config struct {
	Genkit   *genkit.Genkit
	Sessions *session.Store
	Logger   *slog.Logger
	Tools    []ai.Tool // registered commerce tools

	ModelName string // provider-qualified model name
	MaxSteps  int    // tool-call round budget per turn (0 = DefaultMaxSteps)

	RateLimiter *rate.Limiter // optional; nil = default limiter
}

func (cfg Config) validate() error {
	if cfg.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if cfg.Sessions == nil {
		return errors.New("session store is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if len(cfg.Tools) == 0 {
		return errors.New("at least one tool is required")
	}
	if cfg.ModelName == "" {
		return errors.New("model name is required")
	}
	return nil
}

// Agent runs bounded, tool-calling conversation turns against one model.
//
// Configuration is captured immutably at construction; the only mutable
// state the Agent touches is the session store and the commerce store
// behind the tools.
type Agent struct {
	g         *genkit.Genkit
	sessions  *session.Store
	logger    *slog.Logger
	toolRefs  []ai.ToolRef
	toolNames string

	modelName string
	maxSteps  int
	limiter   *rate.Limiter
}

// New creates an Agent from cfg.
func New(cfg Config) (*Agent, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	maxSteps := cfg.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	// Default: 10 requests/sec sustained, burst of 30.
	limiter := cfg.RateLimiter
	if limiter == nil {
		limiter = rate.NewLimiter(10, 30)
	}

	toolRefs := make([]ai.ToolRef, len(cfg.Tools))
	names := make([]string, len(cfg.Tools))
	for i, t := range cfg.Tools {
		toolRefs[i] = t
		names[i] = t.Name()
	}

	a := &Agent{
		g:         cfg.Genkit,
		sessions:  cfg.Sessions,
		logger:    cfg.Logger,
		toolRefs:  toolRefs,
		toolNames: strings.Join(names, ", "),
		modelName: cfg.ModelName,
		maxSteps:  maxSteps,
		limiter:   limiter,
	}

	a.logger.Info("agent initialized",
		"model", a.modelName,
		"tools", len(a.toolRefs),
		"max_steps", a.maxSteps,
	)
	return a, nil
}

// Execute runs one user turn without streaming.
func (a *Agent) Execute(ctx context.Context, chatID uuid.UUID, input string) (*Response, error) {
	return a.ExecuteStream(ctx, chatID, input, nil)
}

// ExecuteStream runs one user turn. If callback is non-nil it receives each
// text chunk as the model produces it; the full final text is always
// returned in the Response.
//
// Transcript bookkeeping: the user message, every intermediate model/tool
// message, and the final assistant message are appended to the chat in the
// exact order they occurred. Tool results within a step keep the order in
// which the calls were issued.
func (a *Agent) ExecuteStream(ctx context.Context, chatID uuid.UUID, input string, callback StreamCallback) (*Response, error) {
	history, err := a.sessions.History(chatID)
	if err != nil {
		return nil, fmt.Errorf("getting history: %w", err)
	}

	userMsg := ai.NewUserMessage(ai.NewTextPart(input))
	messages := append(history, userMsg)
	newMessages := []*ai.Message{userMsg}

	var partial []string
	resp := &Response{}

	for step := 1; step <= a.maxSteps; step++ {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}

		opts := []ai.GenerateOption{
			ai.WithModelName(a.modelName),
			ai.WithMessages(messages...),
			ai.WithTools(a.toolRefs...),
			ai.WithReturnToolRequests(true),
		}
		if callback != nil {
			opts = append(opts, ai.WithStreaming(ai.ModelStreamCallback(callback)))
		}

		modelResp, err := genkit.Generate(ctx, a.g, opts...)
		if err != nil {
			return nil, fmt.Errorf("generating response: %w", err)
		}
		resp.Steps = step

		requests := modelResp.ToolRequests()
		if len(requests) == 0 {
			text := modelResp.Text()
			if strings.TrimSpace(text) == "" {
				a.logger.Warn("model returned empty response with no tool requests", "chat_id", chatID)
				text = fallbackResponseMessage
			}
			resp.FinalText = text
			newMessages = append(newMessages, ai.NewModelMessage(ai.NewTextPart(text)))
			a.persist(chatID, newMessages)
			return resp, nil
		}

		a.logger.Debug("dispatching tool calls",
			"chat_id", chatID,
			"step", step,
			"count", len(requests),
		)

		// Text accompanying a tool round is kept as partial output in case
		// the budget runs out before a final answer.
		if text := strings.TrimSpace(modelResp.Text()); text != "" {
			partial = append(partial, text)
		}

		messages = append(messages, modelResp.Message)
		newMessages = append(newMessages, modelResp.Message)

		// Sequential dispatch, in issue order: preserves the transcript
		// ordering guarantee and avoids interleaved cart mutation.
		parts := make([]*ai.Part, 0, len(requests))
		for _, req := range requests {
			parts = append(parts, a.dispatch(ctx, req))
			resp.ToolCalls++
		}
		toolMsg := ai.NewMessage(ai.RoleTool, nil, parts...)
		messages = append(messages, toolMsg)
		newMessages = append(newMessages, toolMsg)
	}

	// Budget exhausted: terminate the turn deterministically with whatever
	// text accumulated, or an explicit sentinel.
	resp.Exhausted = true
	resp.FinalText = strings.Join(partial, "\n")
	if resp.FinalText == "" {
		resp.FinalText = exhaustedResponseMessage
	}
	a.logger.Warn("step budget exhausted",
		"chat_id", chatID,
		"max_steps", a.maxSteps,
		"tool_calls", resp.ToolCalls,
	)
	newMessages = append(newMessages, ai.NewModelMessage(ai.NewTextPart(resp.FinalText)))
	a.persist(chatID, newMessages)
	return resp, nil
}

// dispatch executes one tool request and returns the correlated response
// part. Unknown tools and execution or schema failures become structured
// error payloads the model can read and recover from; they never abort the
// conversation.
func (a *Agent) dispatch(ctx context.Context, req *ai.ToolRequest) *ai.Part {
	tool := genkit.LookupTool(a.g, req.Name)
	if tool == nil {
		a.logger.Warn("model requested unknown tool", "tool", req.Name)
		return ai.NewToolResponsePart(&ai.ToolResponse{
			Name:   req.Name,
			Ref:    req.Ref,
			Output: map[string]any{"error": fmt.Sprintf("unknown tool %q; available tools: %s", req.Name, a.toolNames)},
		})
	}

	output, err := tool.RunRaw(ctx, req.Input)
	if err != nil {
		a.logger.Warn("tool call failed", "tool", req.Name, "error", err)
		return ai.NewToolResponsePart(&ai.ToolResponse{
			Name:   req.Name,
			Ref:    req.Ref,
			Output: map[string]any{"error": err.Error()},
		})
	}

	return ai.NewToolResponsePart(&ai.ToolResponse{
		Name:   req.Name,
		Ref:    req.Ref,
		Output: output,
	})
}

// persist appends the turn's messages to the transcript. Best-effort: the
// turn already succeeded from the user's point of view.
func (a *Agent) persist(chatID uuid.UUID, msgs []*ai.Message) {
	if err := a.sessions.AppendMessages(chatID, msgs...); err != nil {
		a.logger.Warn("appending messages to transcript", "chat_id", chatID, "error", err)
	}
}
