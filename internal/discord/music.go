package discord

import (
	"context"
	"errors"
	"fmt"

	"quaver/internal/bot"
	"quaver/internal/panel"
	"quaver/internal/resolver"
	"quaver/internal/session"
	"quaver/internal/voice"
)

var ErrNoSession = errors.New("nothing is playing in this server")

func (b *Bot) sessionFor(guildID string) *session.Session {
	return b.registry.GetOrCreate(guildID, func() *session.Session {
		return session.New(guildID, b.cfg.HistoryLimit, b.log)
	})
}

// FindUserVoiceState finds the voice state of a user.
func (b *Bot) FindUserVoiceState(guildID, userID string) (*bot.VoiceState, error) {
	guild, err := b.dg.State.Guild(guildID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving guild: %w", err)
	}

	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID {
			return &bot.VoiceState{ChannelID: vs.ChannelID, UserID: vs.UserID}, nil
		}
	}
	return nil, fmt.Errorf("user not in any voice channel")
}

// QueueTrack resolves input, joins voiceChannelID if needed, and appends the
// track to the guild queue. Playback starts when nothing was playing.
func (b *Bot) QueueTrack(ctx context.Context, guildID, voiceChannelID, input string) (session.Track, bool, error) {
	var (
		track session.Track
		err   error
	)
	if resolver.IsURL(input) {
		track, err = b.resolver.ResolveURL(ctx, input)
	} else {
		track, err = b.resolver.ResolveSearch(ctx, input)
	}
	if err != nil {
		return session.Track{}, false, err
	}

	sess := b.sessionFor(guildID)
	if err := b.ensureVoice(sess, guildID, voiceChannelID); err != nil {
		return session.Track{}, false, err
	}

	snap := sess.Enqueue(track)

	mode := panel.FooterOnly
	snapAfter, idle := sess.StartIfIdle()
	started := idle && snapAfter.NowPlaying != nil
	if idle {
		snap = snapAfter
		// Starting playback changes the displayed track, so redraw fully.
		mode = panel.FullRefresh
	}
	b.renderPanel(guildID, snap, mode)

	return track, started, nil
}

// ensureVoice connects the guild's audio session to channelID, reusing an
// existing connection when possible. The voice join blocks on gateway I/O
// and runs with no lock held; b.mu only guards the map accesses so other
// guilds' events keep flowing while a join is in flight.
func (b *Bot) ensureVoice(sess *session.Session, guildID, channelID string) error {
	if a, ok := b.audioFor(guildID); ok {
		if a.ChannelID() != channelID {
			// discordgo moves the existing voice connection in place.
			if _, err := b.dg.ChannelVoiceJoin(guildID, channelID, false, true); err != nil {
				return fmt.Errorf("move voice channel: %w", err)
			}
		}
		sess.AttachAudio(a)
		return nil
	}

	vc, err := b.dg.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return fmt.Errorf("join voice channel: %w", err)
	}

	a := voice.New(vc, func(gen uint64) { b.onTrackEnd(guildID, gen) }, b.log)
	// Two requests for the same guild may race to here; the first insert
	// wins and both attach it. discordgo holds one connection per guild,
	// so the loser's wrapper is just dropped.
	a = b.storeAudio(guildID, a)
	sess.AttachAudio(a)
	return nil
}

func (b *Bot) audioFor(guildID string) (*voice.AudioSession, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	a, ok := b.audio[guildID]
	return a, ok
}

// storeAudio inserts the guild's audio session unless one already exists,
// and returns whichever is current.
func (b *Bot) storeAudio(guildID string, a *voice.AudioSession) *voice.AudioSession {
	b.mu.Lock()
	defer b.mu.Unlock()
	if existing, ok := b.audio[guildID]; ok {
		return existing
	}
	b.audio[guildID] = a
	return a
}

// onTrackEnd is invoked by the audio session when a track finishes on its
// own. Stale generations are dropped inside HandleTrackEnd.
func (b *Bot) onTrackEnd(guildID string, gen uint64) {
	sess, ok := b.registry.Get(guildID)
	if !ok {
		return
	}
	snap, ok := sess.HandleTrackEnd(gen)
	if !ok {
		return
	}
	b.renderPanel(guildID, snap, panel.FullRefresh)
}

func (b *Bot) Advance(guildID string, action session.QueueAction) error {
	sess, ok := b.registry.Get(guildID)
	if !ok {
		return ErrNoSession
	}
	snap := sess.Advance(action)
	b.renderPanel(guildID, snap, panel.ModeFor(action))
	return nil
}

func (b *Bot) ToggleLoop(guildID string) (bool, error) {
	sess := b.sessionFor(guildID)
	snap := sess.ToggleLoop()
	b.renderPanel(guildID, snap, panel.FooterOnly)
	return snap.Looping, nil
}

func (b *Bot) ToggleShuffle(guildID string) (bool, error) {
	sess := b.sessionFor(guildID)
	snap := sess.ToggleShuffle()
	b.renderPanel(guildID, snap, panel.FooterOnly)
	return snap.Shuffling, nil
}

func (b *Bot) StopPlayback(guildID string) error {
	sess, ok := b.registry.Get(guildID)
	if !ok {
		return ErrNoSession
	}
	snap := sess.Stop()
	b.renderPanel(guildID, snap, panel.FullRefresh)
	return nil
}

// SelectTrack promotes the picked queue entry and plays it immediately.
func (b *Bot) SelectTrack(guildID string, index int) error {
	sess, ok := b.registry.Get(guildID)
	if !ok {
		return ErrNoSession
	}
	if err := sess.Promote(index); err != nil {
		// The picker was rendered against an older queue. Redraw it so the
		// user sees current entries instead of an error.
		b.renderPanel(guildID, sess.Snapshot(), panel.FullRefresh)
		return nil
	}
	snap := sess.Advance(session.SelectedNext)
	b.renderPanel(guildID, snap, panel.FullRefresh)
	return nil
}

// ConfigureMusicChannel designates channelID as the guild's music channel,
// deploys the control panel there and persists the choice.
func (b *Bot) ConfigureMusicChannel(guildID, channelID string) error {
	p := panel.New(b.dg, guildID, channelID, b.log)
	if err := p.Deploy(); err != nil {
		return err
	}
	if err := b.store.SetMusicChannel(guildID, channelID); err != nil {
		return err
	}

	b.mu.Lock()
	b.panels[guildID] = p
	b.mu.Unlock()

	b.log.Info().Str("guild_id", guildID).Str("channel_id", channelID).Msg("music channel configured")
	return nil
}

func (b *Bot) panelFor(guildID string) *panel.Panel {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.panels[guildID]
}

func (b *Bot) renderPanel(guildID string, snap session.Snapshot, mode panel.RenderMode) {
	p := b.panelFor(guildID)
	if p == nil {
		return
	}
	if err := p.Render(snap, mode); err != nil {
		b.log.Warn().Err(err).Str("guild_id", guildID).Msg("panel render failed")
	}
}
