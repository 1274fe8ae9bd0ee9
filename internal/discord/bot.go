package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"quaver/internal/command"
	"quaver/internal/command/core"
	"quaver/internal/command/music"
	"quaver/internal/config"
	"quaver/internal/panel"
	"quaver/internal/resolver"
	"quaver/internal/session"
	"quaver/internal/storage"
	"quaver/internal/voice"
)

// Bot is the Discord front end. It owns the gateway session and wires
// guild music sessions, the track resolver and the control panels together.
type Bot struct {
	dg       *discordgo.Session
	cfg      *config.Config
	store    *storage.Storage
	registry *session.Registry
	resolver *resolver.Resolver
	log      zerolog.Logger

	mu     sync.RWMutex
	panels map[string]*panel.Panel
	audio  map[string]*voice.AudioSession
}

func NewBot(cfg *config.Config, store *storage.Storage, log zerolog.Logger) *Bot {
	return &Bot{
		cfg:      cfg,
		store:    store,
		registry: session.NewRegistry(),
		resolver: resolver.New(cfg.ProxyURL, log),
		log:      log,
		panels:   make(map[string]*panel.Panel),
		audio:    make(map[string]*voice.AudioSession),
	}
}

// Run connects to the gateway and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	dg, err := discordgo.New("Bot " + b.cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	b.dg = dg

	b.registerCommandHandlers()
	b.configureIntents()
	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onGuildCreate)
	dg.AddHandler(b.onMessageCreate)
	dg.AddHandler(b.onInteractionCreate)

	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer dg.Close()

	<-ctx.Done()
	b.log.Info().Msg("shutdown signal received, disconnecting voice")
	b.registry.Each(func(s *session.Session) {
		s.Stop()
	})
	b.mu.Lock()
	for _, a := range b.audio {
		a.Disconnect()
	}
	b.mu.Unlock()
	return nil
}

func (b *Bot) configureIntents() {
	b.dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentMessageContent
}

func (b *Bot) registerCommandHandlers() {
	command.RegisterCommand(
		&music.MusicCommand{Bot: b},
		command.WithGuildOnly(),
		command.WithCommandLogger(b.log),
	)
	command.RegisterCommand(
		&core.SetupCommand{Bot: b},
		command.WithGuildOnly(),
		command.WithCommandLogger(b.log),
	)
}
