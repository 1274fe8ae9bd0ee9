package command

import (
	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

type Middleware func(Command) Command

type WrappedCommand struct {
	Command
	Wrap func(ctx interface{}) error
}

func (w *WrappedCommand) Run(ctx interface{}) error {
	if w.Wrap != nil {
		return w.Wrap(ctx)
	}
	return w.Command.Run(ctx)
}

func (w *WrappedCommand) SlashDefinition() *discordgo.ApplicationCommand {
	if sp, ok := w.Command.(SlashProvider); ok {
		return sp.SlashDefinition()
	}
	return nil
}

func ApplyMiddlewares(cmd Command, mws ...Middleware) Command {
	for _, mw := range mws {
		cmd = mw(cmd)
	}
	return cmd
}

// WithGuildOnly rejects slash invocations from outside a guild.
func WithGuildOnly() Middleware {
	return func(cmd Command) Command {
		return &WrappedCommand{
			Command: cmd,
			Wrap: func(ctx interface{}) error {
				if slash, ok := ctx.(*SlashContext); ok && slash.Event.GuildID == "" {
					_ = slash.Session.InteractionRespond(slash.Event.Interaction, &discordgo.InteractionResponse{
						Type: discordgo.InteractionResponseChannelMessageWithSource,
						Data: &discordgo.InteractionResponseData{
							Content: "This command only works inside a server.",
							Flags:   discordgo.MessageFlagsEphemeral,
						},
					})
					return nil
				}
				return cmd.Run(ctx)
			},
		}
	}
}

// WithCommandLogger logs every invocation with guild and user context.
func WithCommandLogger(log zerolog.Logger) Middleware {
	return func(cmd Command) Command {
		return &WrappedCommand{
			Command: cmd,
			Wrap: func(ctx interface{}) error {
				if slash, ok := ctx.(*SlashContext); ok {
					evt := log.Info().Str("command", cmd.Name()).Str("guild_id", slash.Event.GuildID)
					if slash.Event.Member != nil && slash.Event.Member.User != nil {
						evt = evt.Str("user_id", slash.Event.Member.User.ID)
					}
					evt.Msg("command invoked")
				}
				return cmd.Run(ctx)
			},
		}
	}
}
