package core

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"quaver/internal/bot"
	"quaver/internal/command"
	"quaver/internal/panel"
)

type SetupCommand struct {
	Bot bot.SetupHost
}

func (c *SetupCommand) Name() string        { return "setup" }
func (c *SetupCommand) Description() string { return "Turn this channel into the music channel" }
func (c *SetupCommand) Group() string       { return "core" }
func (c *SetupCommand) Category() string    { return "⚙️ Setup" }

func (c *SetupCommand) SlashDefinition() *discordgo.ApplicationCommand {
	perms := int64(discordgo.PermissionManageServer)
	return &discordgo.ApplicationCommand{
		Name:                     c.Name(),
		Description:              c.Description(),
		DefaultMemberPermissions: &perms,
	}
}

func (c *SetupCommand) Run(ctx interface{}) error {
	slash, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil
	}

	s := slash.Session
	e := slash.Event

	err := c.Bot.ConfigureMusicChannel(e.GuildID, e.ChannelID)
	if errors.Is(err, panel.ErrChannelNotEmpty) {
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Title:       "⚙️ Setup",
			Description: "This channel already has messages. Pick an empty channel so the control panel stays on top.",
		})
	}
	if err != nil {
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Title:       "⚙️ Setup",
			Description: fmt.Sprintf("Setup failed: %v", err),
		})
	}

	return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
		Title:       "⚙️ Setup",
		Description: "Done. Post a link or search query here to queue a track.",
	})
}
