package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/fruitify/fruitbot/internal/commerce"
	"github.com/fruitify/fruitbot/internal/log"
	"github.com/fruitify/fruitbot/internal/session"
	"github.com/fruitify/fruitbot/internal/testutil"
	"github.com/fruitify/fruitbot/internal/tools"
)

type harness struct {
	agent    *Agent
	sessions *session.Store
	store    *commerce.Store
	chatID   uuid.UUID
	mock     *testutil.MockLLM
}

func newHarness(t *testing.T, maxSteps int) *harness {
	t.Helper()
	ctx := context.Background()

	g := genkit.Init(ctx)
	mock := testutil.NewMockLLM("fallback answer")
	mock.RegisterModel(g)

	store := commerce.NewSeededStore()
	sessions := session.New(store, log.NewNop())
	chat, err := sessions.CreateChat(commerce.DefaultUserID)
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}

	kit, err := tools.NewKit(store, commerce.DefaultUserID, log.NewNop())
	if err != nil {
		t.Fatalf("NewKit: %v", err)
	}
	registered, err := kit.Register(g)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	ag, err := New(Config{
		Genkit:      g,
		Sessions:    sessions,
		Logger:      log.NewNop(),
		Tools:       registered,
		ModelName:   testutil.ModelName,
		MaxSteps:    maxSteps,
		RateLimiter: rate.NewLimiter(rate.Inf, 0),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return &harness{agent: ag, sessions: sessions, store: store, chatID: chat.ID, mock: mock}
}

func TestConfig_validate(t *testing.T) {
	t.Parallel()

	stubG := new(genkit.Genkit)
	stubS := new(session.Store)
	stubL := slog.New(slog.DiscardHandler)
	stubTools := []ai.Tool{nil}

	tests := []struct {
		name        string
		cfg         Config
		errContains string
	}{
		{name: "nil genkit", cfg: Config{}, errContains: "genkit instance is required"},
		{name: "nil session store", cfg: Config{Genkit: stubG}, errContains: "session store is required"},
		{name: "nil logger", cfg: Config{Genkit: stubG, Sessions: stubS}, errContains: "logger is required"},
		{name: "empty tools", cfg: Config{Genkit: stubG, Sessions: stubS, Logger: stubL}, errContains: "at least one tool is required"},
		{name: "empty model", cfg: Config{Genkit: stubG, Sessions: stubS, Logger: stubL, Tools: stubTools}, errContains: "model name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.validate()
			if err == nil {
				t.Fatal("validate() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("validate() error = %q, want to contain %q", err.Error(), tt.errContains)
			}
		})
	}
}

func TestExecute_FinalTextOnly(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 0)
	h.mock.EnqueueText("Hello there!")

	resp, err := h.agent.Execute(context.Background(), h.chatID, "hi")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.FinalText != "Hello there!" {
		t.Errorf("FinalText = %q, want %q", resp.FinalText, "Hello there!")
	}
	if resp.Steps != 1 || resp.ToolCalls != 0 || resp.Exhausted {
		t.Errorf("Response = %+v, want one clean step", resp)
	}

	history, err := h.sessions.History(h.chatID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	// system + greeting + user + assistant
	if len(history) != 4 {
		t.Fatalf("history has %d messages, want 4", len(history))
	}
	if history[2].Role != ai.RoleUser || history[2].Text() != "hi" {
		t.Errorf("user message = %q/%q", history[2].Role, history[2].Text())
	}
	if history[3].Role != ai.RoleModel || history[3].Text() != "Hello there!" {
		t.Errorf("assistant message = %q/%q", history[3].Role, history[3].Text())
	}
}

func TestExecute_ToolDispatchAndTranscriptOrder(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 0)
	h.mock.EnqueueToolCall(tools.ToolGetCart, "call-1", map[string]any{})
	h.mock.EnqueueText("Your cart has apples.")

	resp, err := h.agent.Execute(context.Background(), h.chatID, "what's in my cart?")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Steps != 2 || resp.ToolCalls != 1 {
		t.Errorf("Response = %+v, want 2 steps and 1 tool call", resp)
	}
	if resp.FinalText != "Your cart has apples." {
		t.Errorf("FinalText = %q", resp.FinalText)
	}

	history, err := h.sessions.History(h.chatID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	wantRoles := []ai.Role{ai.RoleSystem, ai.RoleModel, ai.RoleUser, ai.RoleModel, ai.RoleTool, ai.RoleModel}
	if len(history) != len(wantRoles) {
		t.Fatalf("history has %d messages, want %d", len(history), len(wantRoles))
	}
	for i, role := range wantRoles {
		if history[i].Role != role {
			t.Errorf("history[%d].Role = %q, want %q", i, history[i].Role, role)
		}
	}

	toolMsg := history[4]
	if len(toolMsg.Content) != 1 || toolMsg.Content[0].ToolResponse == nil {
		t.Fatalf("tool message = %+v, want one tool response part", toolMsg)
	}
	tr := toolMsg.Content[0].ToolResponse
	if tr.Name != tools.ToolGetCart || tr.Ref != "call-1" {
		t.Errorf("tool response correlation = %q/%q, want %q/%q", tr.Name, tr.Ref, tools.ToolGetCart, "call-1")
	}
}

func TestExecute_ToolMutatesRepository(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 0)
	h.mock.EnqueueToolCall(tools.ToolAddToCart, "call-add", map[string]any{
		"itemId":   commerce.SeedItemBananaID,
		"quantity": 2,
	})
	h.mock.EnqueueText("Added two bananas.")

	if _, err := h.agent.Execute(context.Background(), h.chatID, "add 2 bananas"); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	cart := h.store.Cart(commerce.DefaultUserID)
	var bananaQty int
	for _, line := range cart.Lines {
		if line.ItemID == commerce.SeedItemBananaID {
			bananaQty = line.Quantity
		}
	}
	if bananaQty != 2 {
		t.Errorf("banana quantity = %d, want 2", bananaQty)
	}
}

func TestExecute_StepBudgetTermination(t *testing.T) {
	t.Parallel()

	const maxSteps = 3

	h := newHarness(t, maxSteps)
	// A model that always requests another tool call must never loop forever.
	h.mock.SetRepeat(testutil.Scripted{
		Tools: []*ai.ToolRequest{{Name: tools.ToolListItems, Ref: "again", Input: map[string]any{}}},
	})

	resp, err := h.agent.Execute(context.Background(), h.chatID, "list everything forever")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !resp.Exhausted {
		t.Error("Exhausted = false, want true")
	}
	if resp.Steps != maxSteps {
		t.Errorf("Steps = %d, want exactly %d", resp.Steps, maxSteps)
	}
	if resp.ToolCalls != maxSteps {
		t.Errorf("ToolCalls = %d, want %d", resp.ToolCalls, maxSteps)
	}
	if got := len(h.mock.Calls()); got != maxSteps {
		t.Errorf("model invoked %d times, want %d", got, maxSteps)
	}
	if !strings.Contains(resp.FinalText, "step limit") {
		t.Errorf("FinalText = %q, want the exhaustion sentinel", resp.FinalText)
	}

	// The turn still ends with a well-formed assistant message.
	history, err := h.sessions.History(h.chatID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	last := history[len(history)-1]
	if last.Role != ai.RoleModel || last.Text() != resp.FinalText {
		t.Errorf("last message = %q/%q, want assistant sentinel", last.Role, last.Text())
	}
}

func TestExecute_StepBudgetSurfacesPartialText(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 1)
	h.mock.Enqueue(testutil.Scripted{
		Text:  "Let me check the catalog.",
		Tools: []*ai.ToolRequest{{Name: tools.ToolListItems, Ref: "r1", Input: map[string]any{}}},
	})

	resp, err := h.agent.Execute(context.Background(), h.chatID, "browse")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !resp.Exhausted {
		t.Error("Exhausted = false, want true")
	}
	if resp.FinalText != "Let me check the catalog." {
		t.Errorf("FinalText = %q, want the accumulated partial text", resp.FinalText)
	}
}

func TestExecute_UnknownToolIsRecoverable(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 0)
	h.mock.EnqueueToolCall("no-such-tool", "r1", map[string]any{})
	h.mock.EnqueueText("Sorry, let me try differently.")

	resp, err := h.agent.Execute(context.Background(), h.chatID, "do something odd")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.FinalText != "Sorry, let me try differently." {
		t.Errorf("FinalText = %q, conversation should survive an unknown tool", resp.FinalText)
	}

	history, err := h.sessions.History(h.chatID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	toolMsg := history[4]
	out := fmt.Sprintf("%v", toolMsg.Content[0].ToolResponse.Output)
	if !strings.Contains(out, "unknown tool") {
		t.Errorf("tool error payload = %q, want an unknown-tool error", out)
	}
}

func TestExecute_EmptyResponseFallback(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 0)
	h.mock.EnqueueText("")

	resp, err := h.agent.Execute(context.Background(), h.chatID, "hm")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(resp.FinalText, "rephrasing") {
		t.Errorf("FinalText = %q, want the fallback message", resp.FinalText)
	}
}

func TestExecuteStream_DeliversChunks(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 0)
	h.mock.EnqueueText("streamed reply")

	var streamed strings.Builder
	resp, err := h.agent.ExecuteStream(context.Background(), h.chatID, "hi",
		func(_ context.Context, chunk *ai.ModelResponseChunk) error {
			streamed.WriteString(chunk.Text())
			return nil
		})
	if err != nil {
		t.Fatalf("ExecuteStream: %v", err)
	}
	if streamed.String() != resp.FinalText {
		t.Errorf("streamed %q, final %q; want them equal", streamed.String(), resp.FinalText)
	}
}

func TestExecute_CancelledContext(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 0)
	h.mock.EnqueueText("never delivered")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := h.agent.Execute(ctx, h.chatID, "hi"); !errors.Is(err, context.Canceled) {
		t.Errorf("Execute with cancelled context = %v, want context.Canceled", err)
	}
}

func TestExecute_UnknownChat(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 0)

	if _, err := h.agent.Execute(context.Background(), uuid.New(), "hi"); err == nil {
		t.Error("Execute with unknown chat should fail")
	}
}
