package music

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"quaver/internal/bot"
	"quaver/internal/command"
	"quaver/internal/session"
)

const resolveTimeout = 30 * time.Second

type MusicCommand struct {
	Bot bot.MusicHost
}

func (c *MusicCommand) Name() string        { return "music" }
func (c *MusicCommand) Description() string { return "Control music playback" }
func (c *MusicCommand) Group() string       { return "music" }
func (c *MusicCommand) Category() string    { return "🎵 Music" }

func (c *MusicCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "play",
				Description: "Queue a track by link or search query",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "input",
						Description: "Link or search query",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "next",
				Description: "Skip to the next track",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "previous",
				Description: "Go back to the previous track",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "stop",
				Description: "Stop playback and clear the queue",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "loop",
				Description: "Toggle queue looping",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "shuffle",
				Description: "Toggle shuffled playback",
			},
		},
	}
}

func (c *MusicCommand) Run(ctx interface{}) error {
	context, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil
	}

	s := context.Session
	e := context.Event

	if len(e.ApplicationCommandData().Options) == 0 {
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Description: "Missing subcommand.",
		})
	}

	sub := e.ApplicationCommandData().Options[0]

	switch sub.Name {
	case "play":
		var input string
		for _, opt := range sub.Options {
			if opt.Name == "input" {
				input = opt.StringValue()
			}
		}
		return c.runPlay(s, e, input)

	case "next":
		return c.runAdvance(s, e, session.HardNext, "⏭ Skipped to the next track.")

	case "previous":
		return c.runAdvance(s, e, session.Previous, "⏮ Went back a track.")

	case "stop":
		return c.runStop(s, e)

	case "loop":
		return c.runToggle(s, e, c.Bot.ToggleLoop, "🔁 Looping")

	case "shuffle":
		return c.runToggle(s, e, c.Bot.ToggleShuffle, "🔀 Shuffling")

	default:
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Unknown subcommand: %s", sub.Name),
		})
	}
}

func (c *MusicCommand) runPlay(s *discordgo.Session, e *discordgo.InteractionCreate, input string) error {
	if input == "" {
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Title:       "🎵 Error",
			Description: "Input is required.",
		})
	}

	if err := s.InteractionRespond(e.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}); err != nil {
		return fmt.Errorf("failed to send deferred response: %w", err)
	}

	voiceState, err := c.Bot.FindUserVoiceState(e.GuildID, e.Member.User.ID)
	if err != nil {
		bot.FollowupEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Title:       "🎵 Voice Error",
			Description: "Join a voice channel first.",
		})
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	track, started, err := c.Bot.QueueTrack(ctx, e.GuildID, voiceState.ChannelID, input)
	if err != nil {
		bot.FollowupEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Title:       "🎵 Error",
			Description: fmt.Sprintf("Failed to queue track: %v", err),
		})
		return nil
	}

	title := "🎶 Added to Queue"
	if started {
		title = "🎶 Now Playing"
	}
	bot.FollowupEmbedEphemeral(s, e, &discordgo.MessageEmbed{
		Title:       title,
		Description: fmt.Sprintf("[%s](%s)", track.Title, track.SourceURL),
	})
	return nil
}

func (c *MusicCommand) runAdvance(s *discordgo.Session, e *discordgo.InteractionCreate, action session.QueueAction, okText string) error {
	if err := c.Bot.Advance(e.GuildID, action); err != nil {
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("%v", err),
		})
	}
	return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{Description: okText})
}

func (c *MusicCommand) runStop(s *discordgo.Session, e *discordgo.InteractionCreate) error {
	if err := c.Bot.StopPlayback(e.GuildID); err != nil {
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("%v", err),
		})
	}
	return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
		Description: "⏹ Playback stopped. Queue cleared.",
	})
}

func (c *MusicCommand) runToggle(s *discordgo.Session, e *discordgo.InteractionCreate, toggle func(string) (bool, error), label string) error {
	on, err := toggle(e.GuildID)
	if err != nil {
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("%v", err),
		})
	}
	state := "off"
	if on {
		state = "on"
	}
	return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("%s is now %s.", label, state),
	})
}
