package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"

	"quaver/internal/command"
)

// Discord allows roughly 200 command writes per day per guild; one request
// every 250ms keeps bulk registration well clear of burst limits.
var commandWriteLimiter = rate.NewLimiter(rate.Every(250*time.Millisecond), 1)

// registerCommands syncs slash commands for the given guilds with Discord:
// deletes obsolete ones and creates the current definitions.
func (b *Bot) registerCommands(ctx context.Context, guildIDs []string) error {
	appID, err := b.appID()
	if err != nil {
		return err
	}

	local := buildCommandDefinitions()

	for _, guildID := range guildIDs {
		remote, err := b.dg.ApplicationCommands(appID, guildID)
		if err != nil {
			b.log.Warn().Err(err).Str("guild_id", guildID).Msg("failed to list remote commands")
			continue
		}

		localNames := make(map[string]struct{}, len(local))
		for _, d := range local {
			localNames[d.Name] = struct{}{}
		}

		for _, rc := range remote {
			if _, exists := localNames[rc.Name]; exists {
				continue
			}
			if err := commandWriteLimiter.Wait(ctx); err != nil {
				return err
			}
			if err := b.dg.ApplicationCommandDelete(appID, guildID, rc.ID); err != nil {
				b.log.Warn().Err(err).Str("guild_id", guildID).Str("command", rc.Name).Msg("failed to delete obsolete command")
			} else {
				b.log.Info().Str("guild_id", guildID).Str("command", rc.Name).Msg("deleted obsolete command")
			}
		}

		for _, d := range local {
			if err := commandWriteLimiter.Wait(ctx); err != nil {
				return err
			}
			if _, err := b.dg.ApplicationCommandCreate(appID, guildID, d); err != nil {
				b.log.Warn().Err(err).Str("guild_id", guildID).Str("command", d.Name).Msg("failed to register command")
			} else {
				b.log.Debug().Str("guild_id", guildID).Str("command", d.Name).Msg("registered command")
			}
		}
	}
	return nil
}

// buildCommandDefinitions returns ApplicationCommand definitions for all
// registered commands that provide one.
func buildCommandDefinitions() []*discordgo.ApplicationCommand {
	var defs []*discordgo.ApplicationCommand
	for _, c := range command.AllCommands() {
		if sp, ok := c.(command.SlashProvider); ok {
			if def := sp.SlashDefinition(); def != nil {
				defs = append(defs, def)
			}
		}
	}
	return defs
}

func (b *Bot) appID() (string, error) {
	if b.dg.State.User == nil {
		return "", fmt.Errorf("bot user not available yet")
	}
	return b.dg.State.User.ID, nil
}
