package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/firebase/genkit/go/ai"
	"github.com/spf13/cobra"

	"github.com/fruitify/fruitbot/internal/agent"
	"github.com/fruitify/fruitbot/internal/commerce"
	"github.com/fruitify/fruitbot/internal/config"
	"github.com/fruitify/fruitbot/internal/log"
	"github.com/fruitify/fruitbot/internal/session"
	"github.com/fruitify/fruitbot/internal/tools"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive shopping conversation",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

var (
	userPromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	botPromptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	faintStyle      = lipgloss.NewStyle().Faint(true)
)

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := log.New(log.Config{
		Level: cfg.LogLevelValue(),
		JSON:  cfg.LogJSON,
	})

	g, err := newGenkit(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing AI provider: %w", err)
	}

	store := commerce.NewSeededStore()

	// Unknown user is the only hard startup failure: every tool binds to it.
	userID := cfg.UserID
	if userID == "" {
		userID = commerce.DefaultUserID
	}
	user, err := store.User(userID)
	if err != nil {
		return fmt.Errorf("resolving store user %q: %w", userID, err)
	}

	sessions := session.New(store, logger)
	chat, err := sessions.CreateChat(user.ID)
	if err != nil {
		return fmt.Errorf("creating chat session: %w", err)
	}

	kit, err := tools.NewKit(store, user.ID, logger)
	if err != nil {
		return fmt.Errorf("creating tool kit: %w", err)
	}
	registered, err := kit.Register(g)
	if err != nil {
		return fmt.Errorf("registering tools: %w", err)
	}

	bot, err := agent.New(agent.Config{
		Genkit:    g,
		Sessions:  sessions,
		Logger:    logger,
		Tools:     registered,
		ModelName: cfg.FullModelName(),
		MaxSteps:  cfg.MaxSteps,
	})
	if err != nil {
		return fmt.Errorf("creating agent: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, botPromptStyle.Render("FruitBot:"), session.Greeting)
	fmt.Fprintln(out, faintStyle.Render(fmt.Sprintf("Logged in as %s. Type /exit to quit.", user.Name)))
	fmt.Fprintln(out)

	return conversationLoop(ctx, bot, chat, cmd.InOrStdin(), out)
}

// conversationLoop reads user lines and runs one agent turn per line until
// EOF, an exit command, or context cancellation.
func conversationLoop(ctx context.Context, bot *agent.Agent, chat *session.Chat, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			fmt.Fprintln(out, "\nGoodbye!")
			return nil
		}

		fmt.Fprint(out, userPromptStyle.Render("You: "))
		if !scanner.Scan() {
			// EOF (Ctrl+D)
			fmt.Fprintln(out, "\nGoodbye!")
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/exit" || input == "/quit" {
			fmt.Fprintln(out, "Goodbye!")
			break
		}

		fmt.Fprint(out, botPromptStyle.Render("FruitBot: "))

		var streamed int
		resp, err := bot.ExecuteStream(ctx, chat.ID, input,
			func(_ context.Context, chunk *ai.ModelResponseChunk) error {
				text := chunk.Text()
				streamed += len(text)
				fmt.Fprint(out, text)
				return nil
			})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(out, "\nGoodbye!")
				return nil
			}
			fmt.Fprintf(out, "error: %v\n\n", err)
			continue
		}

		// Tool-only turns stream nothing; print the final text ourselves.
		if streamed == 0 {
			fmt.Fprint(out, resp.FinalText)
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out)
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}
