package bot

import (
	"github.com/bwmarrin/discordgo"
)

const EmbedColor = 0x786bc7

// RespondEmbedEphemeral sends an ephemeral embed response to an interaction.
func RespondEmbedEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags:  discordgo.MessageFlagsEphemeral,
			Embeds: []*discordgo.MessageEmbed{withDefaultColor(embed)},
		},
	})
}

// AcknowledgeComponent defers a component interaction without posting a
// visible reply. The panel edit that follows is the actual feedback.
func AcknowledgeComponent(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
}

// FollowupEmbedEphemeral sends an ephemeral embed as an interaction followup.
func FollowupEmbedEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	_, _ = s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{withDefaultColor(embed)},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
}

func withDefaultColor(embed *discordgo.MessageEmbed) *discordgo.MessageEmbed {
	if embed.Color == 0 {
		embed.Color = EmbedColor
	}
	return embed
}
