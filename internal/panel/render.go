package panel

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"quaver/internal/session"
)

const (
	panelTitle   = "No song currently playing"
	panelTagline = "Join a voice channel and post a link or search query in this channel to queue a track."
	panelColor   = 0x786bc7

	maxOptionLabel = 85
)

func defaultEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       panelTitle,
		Description: panelTagline,
		Color:       panelColor,
		Footer:      &discordgo.MessageEmbedFooter{Text: footerText(false, false)},
	}
}

// fullEmbed rebuilds the media display from a snapshot.
func fullEmbed(snap session.Snapshot) *discordgo.MessageEmbed {
	embed := defaultEmbed()
	embed.Footer = &discordgo.MessageEmbedFooter{Text: footerText(snap.Looping, snap.Shuffling)}

	now := snap.NowPlaying
	if now == nil {
		return embed
	}

	embed.Title = "**" + now.Title + "**"
	if now.SourceURL != "" {
		embed.URL = now.SourceURL
	}
	if now.Thumbnail != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: now.Thumbnail}
	}

	duration := "**Duration:** N/A"
	if now.Duration > 0 {
		duration = "**Duration:** " + durationString(now)
	}
	uploader := "**Uploader:** N/A"
	if now.Artist != "" {
		uploader = "**Uploader:** " + now.Artist
	}
	embed.Description = duration + " | " + uploader
	return embed
}

// carryOverEmbed keeps the displayed media fields of the current message
// and rewrites only the footer.
func carryOverEmbed(current *discordgo.Message, snap session.Snapshot) *discordgo.MessageEmbed {
	embed := defaultEmbed()
	embed.Footer = &discordgo.MessageEmbedFooter{Text: footerText(snap.Looping, snap.Shuffling)}

	if len(current.Embeds) == 0 {
		return embed
	}
	shown := current.Embeds[0]
	if shown.Title != "" {
		embed.Title = shown.Title
	}
	if shown.Description != "" {
		embed.Description = shown.Description
	}
	if shown.URL != "" {
		embed.URL = shown.URL
	}
	if shown.Image != nil {
		embed.Image = &discordgo.MessageEmbedImage{URL: shown.Image.URL}
	}
	return embed
}

func footerText(looping, shuffling bool) string {
	return fmt.Sprintf("Looping: %s | Shuffling: %s", upcaseBool(looping), upcaseBool(shuffling))
}

func upcaseBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func durationString(t *session.Track) string {
	total := int(t.Duration.Seconds())
	seconds := total % 60
	minutes := (total / 60) % 60
	hours := total / 3600

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// truncateLabel caps s at max bytes without splitting a multi-byte rune.
func truncateLabel(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// controlComponents builds the playback buttons and, when the queue has
// upcoming entries, the queue picker beneath them.
func controlComponents(upcoming []session.QueueEntry, total int) []discordgo.MessageComponent {
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "⏮", Style: discordgo.PrimaryButton, CustomID: "prev"},
			discordgo.Button{Label: "⏭", Style: discordgo.PrimaryButton, CustomID: "next"},
			discordgo.Button{Label: "⏹", Style: discordgo.PrimaryButton, CustomID: "stop"},
			discordgo.Button{Label: "🔁", Style: discordgo.SecondaryButton, CustomID: "loop"},
			discordgo.Button{Label: "🔀", Style: discordgo.SecondaryButton, CustomID: "shuffle"},
		}},
	}
	if len(upcoming) == 0 {
		return components
	}

	options := make([]discordgo.SelectMenuOption, 0, len(upcoming))
	for i, entry := range upcoming {
		label := truncateLabel(fmt.Sprintf("%d) %s", i+1, entry.Title), maxOptionLabel)
		options = append(options, discordgo.SelectMenuOption{
			Label: label,
			Value: strconv.Itoa(entry.Index),
		})
	}

	placeholder := fmt.Sprintf("View Queue (%d Songs)", total)
	if elided := total - len(options); elided > 0 {
		placeholder = fmt.Sprintf("View Queue (%d Songs, +%d more)", len(options), elided)
	}

	components = append(components, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.SelectMenu{
			MenuType:    discordgo.StringSelectMenu,
			CustomID:    "queue_select",
			Placeholder: placeholder,
			Options:     options,
		},
	}})
	return components
}
