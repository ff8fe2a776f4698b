package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wolfman30/storefront-ai-assistant/cmd/mainconfig"
	"github.com/wolfman30/storefront-ai-assistant/internal/app/bootstrap"
	appconfig "github.com/wolfman30/storefront-ai-assistant/internal/config"
	"github.com/wolfman30/storefront-ai-assistant/internal/conversation"
	"github.com/wolfman30/storefront-ai-assistant/internal/profile"
	"github.com/wolfman30/storefront-ai-assistant/pkg/logging"
)

// Engine runs chat turns (allows fakes in tests).
type Engine interface {
	HandleTurn(ctx context.Context, req conversation.TurnRequest) (*conversation.TurnResult, error)
	Reset(ctx context.Context, sessionID string) error
}

// EngineFactory builds an Engine and its cleanup from config.
type EngineFactory func(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (Engine, func(), error)

// Options carries the CLI's dependencies.
type Options struct {
	Config    *appconfig.Config
	NewEngine EngineFactory
	Stdin     io.Reader
	Stdout    io.Writer
	Stderr    io.Writer
}

func main() {
	_ = godotenv.Load()
	if err := newRootCmd(Options{}).Execute(); err != nil {
		os.Exit(1)
	}
}

func (o *Options) defaults() {
	if o.Config == nil {
		o.Config = appconfig.Load()
	}
	if o.NewEngine == nil {
		o.NewEngine = inMemoryEngine
	}
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
}

func newRootCmd(opts Options) *cobra.Command {
	opts.defaults()

	root := &cobra.Command{
		Use:          "chatcli",
		Short:        "chatcli - storefront assistant in the terminal",
		SilenceUsage: true,
	}
	root.SetIn(opts.Stdin)
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)

	var sessionID string
	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat interactively; /reset starts over, /quit exits",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd.Context(), opts, sessionID)
		},
	}
	chatCmd.Flags().StringVarP(&sessionID, "session", "s", "", "session id (default: generated)")

	extractCmd := &cobra.Command{
		Use:   "extract <message>",
		Short: "Print the profile fields found in a message as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(opts.Stdout, strings.Join(args, " "))
		},
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "Send a probe prompt to every configured LLM target",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runModels(cmd.Context(), opts)
		},
	}

	root.AddCommand(chatCmd, extractCmd, modelsCmd)
	return root
}

func cliLogger(opts Options) *logging.Logger {
	level := opts.Config.LogLevel
	if level == "" || strings.EqualFold(level, "info") {
		level = "warn"
	}
	return logging.NewWithOptions(logging.Options{Level: level, Format: "text", Output: opts.Stderr})
}

// inMemoryEngine wires an orchestrator on in-memory stores whatever the
// database settings say.
func inMemoryEngine(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (Engine, func(), error) {
	local := *cfg
	local.DatabaseURL = ""
	local.RedisAddr = ""

	stores, err := bootstrap.BuildStores(ctx, &local, logger)
	if err != nil {
		return nil, nil, err
	}
	responder, closeResponder, err := bootstrap.BuildResponder(ctx, &local, mainconfig.Loader(&local), nil, logger)
	if err != nil {
		stores.Close()
		return nil, nil, err
	}
	orch, err := bootstrap.BuildOrchestrator(&local, stores, responder, nil, nil, logger)
	if err != nil {
		closeResponder()
		stores.Close()
		return nil, nil, err
	}
	return orch, func() {
		closeResponder()
		stores.Close()
	}, nil
}

func runChat(ctx context.Context, opts Options, sessionID string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	engine, cleanup, err := opts.NewEngine(ctx, opts.Config, cliLogger(opts))
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer cleanup()

	out := opts.Stdout
	if sessionID == "" {
		sessionID = fmt.Sprintf("cli-%d", time.Now().UnixNano())
	}
	fmt.Fprintln(out, "Storefront assistant. Type /reset to start over, /quit to exit.")

	scanner := bufio.NewScanner(opts.Stdin)
	for {
		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			if err := engine.Reset(ctx, sessionID); err != nil {
				fmt.Fprintf(out, "reset failed: %v\n", err)
				continue
			}
			fmt.Fprintln(out, "Session reset.")
			continue
		}

		result, err := engine.HandleTurn(ctx, conversation.TurnRequest{SessionID: sessionID, Message: line})
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		printTurn(out, result)
	}
}

func printTurn(out io.Writer, result *conversation.TurnResult) {
	fmt.Fprintf(out, "Assistant: %s\n", result.Reply)
	for _, p := range result.Products {
		fmt.Fprintf(out, "  - %s (%s) $%.2f\n", p.Name, p.Brand, p.Price)
	}
	if len(result.MissingFields) > 0 {
		fmt.Fprintf(out, "Still need: %s\n", strings.Join(result.MissingFields, ", "))
	}
}

func runExtract(out io.Writer, message string) error {
	extracted := profile.Extract(message, profile.Profile{})
	data, err := json.MarshalIndent(extracted, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func runModels(ctx context.Context, opts Options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := cliLogger(opts)
	targets, cleanup, err := bootstrap.BuildModelTargets(ctx, opts.Config, mainconfig.Loader(opts.Config), logger)
	if err != nil {
		return err
	}
	defer cleanup()
	if len(targets) == 0 {
		fmt.Fprintln(opts.Stdout, "no LLM targets configured (set GITHUB_TOKEN, GEMINI_API_KEY or BEDROCK_MODEL_ID)")
		return nil
	}

	req := conversation.LLMRequest{
		System:      []string{"You are a friendly storefront assistant. Keep responses brief."},
		Messages:    []conversation.ChatMessage{{Role: conversation.ChatRoleUser, Content: "Say hello in five words."}},
		MaxTokens:   int32(opts.Config.LLMMaxTokens),
		Temperature: float32(opts.Config.LLMTemperature),
	}
	timeout := opts.Config.LLMTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	failed := 0
	for _, target := range targets {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		req.Model = target.Model
		start := time.Now()
		resp, err := target.Client.Complete(callCtx, req)
		cancel()
		if err != nil {
			failed++
			fmt.Fprintf(opts.Stdout, "%-40s FAIL %v\n", target.Name, err)
			continue
		}
		fmt.Fprintf(opts.Stdout, "%-40s ok   %s (%d tokens) %q\n", target.Name, time.Since(start).Round(time.Millisecond), resp.OutputTokens, strings.TrimSpace(resp.Text))
	}
	if failed == len(targets) {
		return fmt.Errorf("all %d targets failed", failed)
	}
	return nil
}
