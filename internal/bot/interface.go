package bot

import (
	"context"

	"quaver/internal/session"
)

// VoiceState holds minimal voice channel state for a user.
type VoiceState struct {
	ChannelID string
	UserID    string
}

// MusicHost is the interface the Discord bot provides for playback control.
// Commands depend on it instead of the discord package to avoid import cycles.
type MusicHost interface {
	FindUserVoiceState(guildID, userID string) (*VoiceState, error)

	// QueueTrack resolves input, ensures a voice connection to voiceChannelID,
	// and appends the track to the guild queue. The returned bool reports
	// whether playback started as a result.
	QueueTrack(ctx context.Context, guildID, voiceChannelID, input string) (session.Track, bool, error)

	Advance(guildID string, action session.QueueAction) error
	ToggleLoop(guildID string) (bool, error)
	ToggleShuffle(guildID string) (bool, error)
	StopPlayback(guildID string) error
}

// SetupHost is the interface the Discord bot provides for guild configuration.
type SetupHost interface {
	// ConfigureMusicChannel designates channelID as the guild's music channel
	// and deploys the control panel there. Returns panel.ErrChannelNotEmpty
	// when the channel already holds someone else's messages.
	ConfigureMusicChannel(guildID, channelID string) error
}
