package discord

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"quaver/internal/bot"
	"quaver/internal/command"
	"quaver/internal/panel"
	"quaver/internal/session"
	"quaver/pkg/jobmgr"
)

const noticeLifetime = 10 * time.Second

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info().Str("username", r.User.Username).Int("guilds", len(r.Guilds)).Msg("gateway ready")

	b.reattachPanels()

	if !b.cfg.InitSlashCommands {
		b.log.Info().Msg("slash command registration skipped")
		return
	}

	guildIDs := make([]string, 0, len(r.Guilds))
	for _, g := range r.Guilds {
		guildIDs = append(guildIDs, g.ID)
	}
	if err := jobmgr.DefaultManager.StartAsync("register-commands", func(ctx context.Context) error {
		return b.registerCommands(ctx, guildIDs)
	}); err != nil {
		b.log.Warn().Err(err).Msg("command registration already in flight")
	}
}

// reattachPanels restores control panels for every persisted guild so button
// presses keep working across restarts.
func (b *Bot) reattachPanels() {
	records, err := b.store.Guilds()
	if err != nil {
		b.log.Error().Err(err).Msg("failed to load guild records")
		return
	}

	for _, rec := range records {
		if !rec.ChannelConfigured {
			continue
		}
		p := panel.New(b.dg, rec.GuildID, rec.MusicChannelID, b.log)
		if err := p.Reattach(); err != nil {
			b.log.Warn().Err(err).Str("guild_id", rec.GuildID).Msg("panel reattach failed")
			continue
		}
		b.mu.Lock()
		b.panels[rec.GuildID] = p
		b.mu.Unlock()
	}
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	b.log.Info().Str("guild_id", g.ID).Str("name", g.Name).Msg("guild available")

	if b.cfg.InitSlashCommands {
		if err := jobmgr.DefaultManager.StartAsync("register-commands-"+g.ID, func(ctx context.Context) error {
			return b.registerCommands(ctx, []string{g.ID})
		}); err != nil {
			b.log.Debug().Err(err).Str("guild_id", g.ID).Msg("guild registration skipped")
		}
	}
}

// onMessageCreate treats any message posted in a guild's music channel as a
// queue request: the message is removed and its content resolved to a track.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.Author.ID == s.State.User.ID {
		return
	}

	p := b.panelFor(m.GuildID)
	if p == nil || m.ChannelID != p.ChannelID() {
		return
	}

	// The music channel holds only the panel.
	if err := s.ChannelMessageDelete(m.ChannelID, m.ID); err != nil {
		b.log.Warn().Err(err).Str("guild_id", m.GuildID).Msg("failed to delete queue request")
	}

	input := strings.TrimSpace(m.Content)
	if input == "" {
		return
	}

	voiceState, err := b.FindUserVoiceState(m.GuildID, m.Author.ID)
	if err != nil {
		b.postNotice(m.ChannelID, "Join a voice channel first, then post your link or search again.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, _, err := b.QueueTrack(ctx, m.GuildID, voiceState.ChannelID, input); err != nil {
		b.log.Warn().Err(err).Str("guild_id", m.GuildID).Str("input", input).Msg("queue request failed")
		b.postNotice(m.ChannelID, "Couldn't find anything playable for that. Try a different link or query.")
	}
}

// postNotice sends a short-lived plain message so the music channel stays
// clear of everything but the panel.
func (b *Bot) postNotice(channelID, text string) {
	msg, err := b.dg.ChannelMessageSend(channelID, text)
	if err != nil {
		return
	}
	time.AfterFunc(noticeLifetime, func() {
		_ = b.dg.ChannelMessageDelete(channelID, msg.ID)
	})
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.dispatchSlash(s, i)
	case discordgo.InteractionMessageComponent:
		b.dispatchComponent(s, i)
	}
}

func (b *Bot) dispatchSlash(s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Name
	cmd, ok := command.GetCommand(name)
	if !ok {
		b.log.Warn().Str("command", name).Msg("unknown command")
		return
	}

	ctx := &command.SlashContext{Session: s, Event: i, Storage: b.store}
	if err := cmd.Run(ctx); err != nil {
		b.log.Error().Err(err).Str("command", name).Msg("command failed")
	}
}

// dispatchComponent routes panel button and picker interactions to queue
// actions on the guild session.
func (b *Bot) dispatchComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if b.panelFor(i.GuildID) == nil {
		return
	}

	if err := bot.AcknowledgeComponent(s, i); err != nil {
		b.log.Debug().Err(err).Msg("component ack failed")
	}

	data := i.MessageComponentData()
	var err error
	switch data.CustomID {
	case "queue_select":
		if len(data.Values) == 0 {
			return
		}
		index, convErr := strconv.Atoi(data.Values[0])
		if convErr != nil {
			return
		}
		err = b.SelectTrack(i.GuildID, index)

	case "stop":
		err = b.StopPlayback(i.GuildID)

	case "loop":
		_, err = b.ToggleLoop(i.GuildID)

	case "shuffle":
		_, err = b.ToggleShuffle(i.GuildID)

	case "prev", "next":
		err = b.Advance(i.GuildID, session.ActionFromCustomID(data.CustomID))

	default:
		b.log.Debug().Str("custom_id", data.CustomID).Msg("unhandled component")
		return
	}

	if err != nil {
		b.log.Warn().Err(err).Str("custom_id", data.CustomID).Str("guild_id", i.GuildID).Msg("component action failed")
	}
}
