package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	appconfig "github.com/dioinnovo/voicelead/internal/config"
	"github.com/dioinnovo/voicelead/internal/dialogue"
	"github.com/dioinnovo/voicelead/internal/lead"
	"github.com/dioinnovo/voicelead/internal/session"
	"github.com/dioinnovo/voicelead/internal/voice"
	"github.com/dioinnovo/voicelead/pkg/logging"
)

// discardSink satisfies voice.AudioSink for headless testing. Playback is
// timed against the wall clock and the samples are dropped.
type discardSink struct {
	epoch time.Time
}

func newDiscardSink() *discardSink { return &discardSink{epoch: time.Now()} }

func (s *discardSink) PlayAt(start float64, samples []float64) error { return nil }
func (s *discardSink) Now() float64                                  { return time.Since(s.epoch).Seconds() }
func (s *discardSink) Stop() error                                   { return nil }

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := appconfig.Load()
	logger := logging.NewText(cfg.LogLevel)

	if cfg.VoiceAPIKey == "" {
		fmt.Println("VOICE_API_KEY not set; running the dialogue engine without the realtime transport")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	machine := dialogue.New(dialogue.WithRetryLimit(cfg.RetryLimit))
	orch := session.NewOrchestrator(machine, session.NewMemoryStore(cfg.SessionTTL),
		session.WithLeadRepository(lead.NewInMemoryRepository()),
		session.WithLogger(logger),
	)

	var client *voice.Client
	if cfg.VoiceAPIKey != "" {
		var err error
		client, err = voice.NewClientFromConfig(voice.Config{
			Backend:          voice.Backend(cfg.VoiceBackend),
			URL:              cfg.VoiceRealtimeURL,
			APIKey:           cfg.VoiceAPIKey,
			Model:            cfg.VoiceModel,
			Voice:            cfg.VoiceName,
			Instructions:     cfg.VoiceInstructions,
			HandshakeTimeout: cfg.VoiceHandshakeTimeout,
		}, newDiscardSink(), nil, voice.WithClientLogger(logger))
		if err != nil {
			log.Fatalf("create voice client: %v", err)
		}

		client.Events().SubscribeAll(func(evt voice.Event) {
			switch evt.Type {
			case voice.EventTranscript:
				fmt.Printf("  [%s transcript] %s\n", evt.Role, evt.Text)
			case voice.EventAudioStart, voice.EventAudioEnd, voice.EventConnected, voice.EventDisconnected:
				fmt.Printf("  [event] %s\n", evt.Type)
			case voice.EventConnectionError:
				fmt.Printf("  [event] %s: %v\n", evt.Type, evt.Err)
			}
		})

		if err := client.Connect(ctx); err != nil {
			log.Fatalf("connect voice transport: %v", err)
		}
		defer client.Close()
	}

	state, err := orch.Start(ctx, "")
	if err != nil {
		log.Fatalf("start session: %v", err)
	}
	speak(client, state)

	fmt.Println("Type user turns, Ctrl-D to quit.")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		text := scanner.Text()
		if text == "" {
			continue
		}

		state, err = orch.ProcessTranscript(ctx, state.SessionID, text)
		if err != nil {
			log.Fatalf("process transcript: %v", err)
		}
		speak(client, state)

		if state.Phase.Terminal() {
			fmt.Printf("conversation complete; qualified=%v lead=%+v\n", state.Qualified(), state.Lead)
			return
		}
	}
}

// speak prints the engine's reply and, when the transport is connected,
// forwards it for speech synthesis along with any pending UI action.
func speak(client *voice.Client, state *dialogue.State) {
	if state.Response == "" {
		return
	}
	fmt.Printf("assistant [%s]: %s\n", state.Phase, state.Response)

	if client == nil {
		return
	}
	if err := client.SendText(state.Response); err != nil {
		log.Printf("send text: %v", err)
	}
	client.PublishUIAction(state.UIAction)
}
