package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kelseyhightower/envconfig"

	orchestration "github.com/chiyokera/audio-sdk/core"
	"github.com/chiyokera/audio-sdk/core/agents"
	"github.com/chiyokera/audio-sdk/core/audio/miniaudio"
	"github.com/chiyokera/audio-sdk/core/audio/portaudio"
	"github.com/chiyokera/audio-sdk/core/conversations"
	"github.com/chiyokera/audio-sdk/core/guardrails"
	"github.com/chiyokera/audio-sdk/core/llms/openai"
	"github.com/chiyokera/audio-sdk/core/mcp"
	deepgramstt "github.com/chiyokera/audio-sdk/core/speechtotext/deepgram"
	deepgramtts "github.com/chiyokera/audio-sdk/core/texttospeech/deepgram"
	"github.com/chiyokera/audio-sdk/core/tools"
)

type config struct {
	Model          string `envconfig:"MODEL"`
	GuardrailModel string `envconfig:"GUARDRAIL_MODEL"`
	DataDir        string `envconfig:"DATA_DIR" default:"data"`

	Voice        string `envconfig:"VOICE"`
	AudioBackend string `envconfig:"AUDIO_BACKEND" default:"miniaudio"`

	SlackBotToken string `envconfig:"SLACK_BOT_TOKEN"`
	SlackTeamID   string `envconfig:"SLACK_TEAM_ID"`
	SlackChannel  string `envconfig:"SLACK_CHANNEL"`
}

const portaudioBufferSize = 1024

func main() {
	var cfg config
	if err := envconfig.Process("voicecenter", &cfg); err != nil {
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

	var program *tea.Program
	send := func(msg tea.Msg) {
		if program != nil {
			program.Send(msg)
		}
	}

	session, err := orchestration.NewSession(roster, agents.TriageAgentName, conversation,
		orchestration.WithLLM(llm),
		orchestration.WithGuardrail(guardrail),
		orchestration.WithAgentChangedCallback(func(agent *agents.Agent) {
			send(agentChangedMsg(agent.DisplayName))
		}),
		orchestration.WithGuardrailTrippedCallback(func(guardrails.Verdict) {
			send(guardrailTrippedMsg{})
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close(ctx)

	voice, err := deepgramtts.ParseVoice(cfg.Voice)
	if err != nil {
		return fmt.Errorf("invalid voice: %w", err)
	}
	ttsClient, err := deepgramtts.NewTextToSpeechClient(ctx, voice)
	if err != nil {
		return fmt.Errorf("failed to create text-to-speech client: %w", err)
	}

	pipelineOpts := []orchestration.VoicePipelineOption{
		orchestration.WithSpeechToTextClient(deepgramstt.NewTranscriptionClient()),
		orchestration.WithTextToSpeechClient(ttsClient),
		orchestration.WithInterimTranscriptionCallback(func(transcript string) {
			send(interimTranscriptMsg(transcript))
		}),
		orchestration.WithTranscriptionCallback(func(transcript string) {
			send(transcriptMsg{speaker: speakerCustomer, text: transcript})
		}),
		orchestration.WithReplyCallback(func(reply string) {
			send(transcriptMsg{speaker: speakerAgent, text: reply})
		}),
	}

	switch cfg.AudioBackend {
	case "portaudio":
		audioClient, err := portaudio.NewClient(portaudioBufferSize)
		if err != nil {
			return fmt.Errorf("failed to create portaudio client: %w", err)
		}
		pipelineOpts = append(pipelineOpts,
			orchestration.WithAudioInput(audioClient),
			orchestration.WithAudioOutput(audioClient),
		)
	case "miniaudio":
		audioClient, err := miniaudio.NewClient()
		if err != nil {
			return fmt.Errorf("failed to create miniaudio client: %w", err)
		}
		pipelineOpts = append(pipelineOpts,
			orchestration.WithAudioInput(audioClient),
			orchestration.WithAudioOutput(audioClient),
		)
	default:
		return fmt.Errorf("unknown audio backend %q", cfg.AudioBackend)
	}

	pipeline, err := orchestration.NewVoicePipeline(session, pipelineOpts...)
	if err != nil {
		return fmt.Errorf("failed to create voice pipeline: %w", err)
	}
	defer pipeline.Close(ctx)

	if err := pipeline.Start(ctx); err != nil {
		return fmt.Errorf("failed to start voice pipeline: %w", err)
	}

	program = tea.NewProgram(newModel(pipeline, roster), tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		program.Quit()
	}()
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run terminal ui: %w", err)
	}

	return nil
}
