package panel

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"quaver/internal/session"
)

// ErrChannelNotEmpty means a setup attempt targeted a channel that still
// holds someone else's messages.
var ErrChannelNotEmpty = errors.New("designated music channel must be empty")

// RenderMode selects how much of the panel message a snapshot rewrites.
type RenderMode int

const (
	// FullRefresh rebuilds the whole display: title, artwork, duration,
	// uploader, footer and queue picker.
	FullRefresh RenderMode = iota
	// FooterOnly preserves the displayed media fields and rewrites just
	// the footer flags and the queue picker. Cheaper and quieter for
	// toggles and queue-composition changes.
	FooterOnly
)

// ModeFor maps the transition that produced a snapshot onto a render mode.
func ModeFor(action session.QueueAction) RenderMode {
	switch action {
	case session.HardNext, session.Previous, session.SelectedNext:
		return FullRefresh
	default:
		return FooterOnly
	}
}

// Panel owns the single rendered "now playing" message for one guild and
// edits it in place from playback snapshots. Rendering talks to the
// gateway and is always performed after the session lock is released.
type Panel struct {
	mu        sync.Mutex
	dg        *discordgo.Session
	guildID   string
	channelID string
	messageID string
	log       zerolog.Logger
}

func New(dg *discordgo.Session, guildID, channelID string, log zerolog.Logger) *Panel {
	return &Panel{
		dg:        dg,
		guildID:   guildID,
		channelID: channelID,
		log:       log.With().Str("guild", guildID).Str("component", "panel").Logger(),
	}
}

func (p *Panel) ChannelID() string { return p.channelID }

func (p *Panel) HasMessage() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.messageID != ""
}

// Deploy claims the channel: it refuses when non-bot messages are present,
// purges bot leftovers and posts the default panel message.
func (p *Panel) Deploy() error {
	msgs, err := p.dg.ChannelMessages(p.channelID, 50, "", "", "")
	if err != nil {
		return fmt.Errorf("list channel messages: %w", err)
	}

	botID := p.dg.State.User.ID
	for _, m := range msgs {
		if m.Author == nil || m.Author.ID != botID {
			return ErrChannelNotEmpty
		}
	}
	for _, m := range msgs {
		if err := p.dg.ChannelMessageDelete(p.channelID, m.ID); err != nil {
			p.log.Warn().Str("message", m.ID).Err(err).Msg("failed to purge old panel message")
		}
	}

	msg, err := p.dg.ChannelMessageSendComplex(p.channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{defaultEmbed()},
		Components: controlComponents(nil, 0),
	})
	if err != nil {
		return fmt.Errorf("send panel message: %w", err)
	}

	p.mu.Lock()
	p.messageID = msg.ID
	p.mu.Unlock()
	p.log.Info().Str("channel", p.channelID).Msg("panel deployed")
	return nil
}

// Reattach finds the bot's existing panel message after a restart, or
// deploys a fresh one when none survived.
func (p *Panel) Reattach() error {
	msgs, err := p.dg.ChannelMessages(p.channelID, 50, "", "", "")
	if err != nil {
		return fmt.Errorf("list channel messages: %w", err)
	}

	botID := p.dg.State.User.ID
	for _, m := range msgs {
		if m.Author != nil && m.Author.ID == botID && len(m.Embeds) > 0 {
			p.mu.Lock()
			p.messageID = m.ID
			p.mu.Unlock()
			p.log.Info().Str("message", m.ID).Msg("panel reattached")
			return nil
		}
	}
	return p.Deploy()
}

// Render edits the panel message to reflect a snapshot.
func (p *Panel) Render(snap session.Snapshot, mode RenderMode) error {
	p.mu.Lock()
	msgID := p.messageID
	p.mu.Unlock()
	if msgID == "" {
		return nil
	}

	var embed *discordgo.MessageEmbed
	switch mode {
	case FooterOnly:
		current, err := p.dg.ChannelMessage(p.channelID, msgID)
		if err != nil {
			return fmt.Errorf("fetch panel message: %w", err)
		}
		embed = carryOverEmbed(current, snap)
	default:
		embed = fullEmbed(snap)
	}

	components := controlComponents(snap.Upcoming, snap.Total)
	_, err := p.dg.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         msgID,
		Channel:    p.channelID,
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &components,
	})
	if err != nil {
		return fmt.Errorf("edit panel message: %w", err)
	}
	return nil
}
