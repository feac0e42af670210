package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kelseyhightower/envconfig"

	orchestration "github.com/chiyokera/audio-sdk/core"
	"github.com/chiyokera/audio-sdk/core/agents"
	"github.com/chiyokera/audio-sdk/core/conversations"
	"github.com/chiyokera/audio-sdk/core/guardrails"
	"github.com/chiyokera/audio-sdk/core/llms"
	"github.com/chiyokera/audio-sdk/core/llms/openai"
	"github.com/chiyokera/audio-sdk/core/mcp"
	"github.com/chiyokera/audio-sdk/core/tools"
)

type config struct {
	Model          string `envconfig:"MODEL"`
	GuardrailModel string `envconfig:"GUARDRAIL_MODEL"`
	DataDir        string `envconfig:"DATA_DIR" default:"data"`

	SlackBotToken string `envconfig:"SLACK_BOT_TOKEN"`
	SlackTeamID   string `envconfig:"SLACK_TEAM_ID"`
	SlackChannel  string `envconfig:"SLACK_CHANNEL"`
}

func main() {
	var cfg config
	if err := envconfig.Process("callcenter", &cfg); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg config) error {
	llmOpts := []openai.ClientOption{}
	if cfg.Model != "" {
		llmOpts = append(llmOpts, openai.WithModel(cfg.Model))
	}
	llm, err := openai.NewClient(llmOpts...)
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}

	var guardrail guardrails.Classifier
	guardrailOpts := []guardrails.LLMClassifierOption{}
	if cfg.GuardrailModel != "" {
		guardrailOpts = append(guardrailOpts, guardrails.WithModel(cfg.GuardrailModel))
	}
	if classifier, err := guardrails.NewLLMClassifier(guardrailOpts...); err != nil {
		log.Printf("Running without a guardrail: %v", err)
	} else {
		guardrail = classifier
	}

	conversation := conversations.NewContext()

	if _, err := exec.LookPath("npx"); err != nil {
		return fmt.Errorf("npx is required to launch the tool servers: %w", err)
	}

	manualServer := mcp.NewFilesystemServer(cfg.DataDir)
	if err := manualServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start the manual server: %w", err)
	}
	defer func() {
		if err := manualServer.Close(); err != nil {
			log.Printf("Failed to stop the manual server: %v", err)
		}
	}()

	var notifier tools.Notifier
	if cfg.SlackBotToken != "" && cfg.SlackTeamID != "" && cfg.SlackChannel != "" {
		slackServer := mcp.NewSlackServer(cfg.SlackBotToken, cfg.SlackTeamID)
		if err := slackServer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start the slack server: %w", err)
		}
		defer func() {
			if err := slackServer.Close(); err != nil {
				log.Printf("Failed to stop the slack server: %v", err)
			}
		}()
		notifier = tools.NewSlackNotifier(slackServer, cfg.SlackChannel)
	}

	roster, err := agents.NewCallCenterRoster(agents.CallCenterConfig{
		Conversation: conversation,
		Orders:       tools.NewOrderFlow(conversation, notifier),
		ManualServer: manualServer,
		DataDir:      cfg.DataDir,
	})
	if err != nil {
		return fmt.Errorf("failed to build the agent roster: %w", err)
	}

	session, err := orchestration.NewSession(roster, agents.TriageAgentName, conversation,
		orchestration.WithLLM(llm),
		orchestration.WithGuardrail(guardrail),
		orchestration.WithHandoffCallback(func(from, to *agents.Agent) {
			fmt.Printf("  [%s -> %s]\n", from.DisplayName, to.DisplayName)
		}),
		orchestration.WithToolCallCallback(func(agent *agents.Agent, toolCall llms.ToolCall) {
			fmt.Printf("  [%s used %s]\n", agent.DisplayName, toolCall.Name)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close(ctx)

	fmt.Println("Airline call center. Type your question, or q to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if isQuitCommand(input) {
			break
		}

		reply, err := session.ProcessTurn(ctx, input)
		if err != nil {
			log.Printf("Failed to process turn: %v", err)
			continue
		}
		fmt.Printf("%s> %s\n", session.CurrentAgent().DisplayName, reply)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	fmt.Println("Goodbye!")
	return nil
}

// isQuitCommand recognizes q and quit, case-insensitively.
func isQuitCommand(input string) bool {
	switch strings.ToLower(input) {
	case "q", "quit":
		return true
	}
	return false
}
