package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestWithDefaultColor(t *testing.T) {
	embed := withDefaultColor(&discordgo.MessageEmbed{Description: "hi"})
	assert.Equal(t, EmbedColor, embed.Color)

	embed = withDefaultColor(&discordgo.MessageEmbed{Color: 0xff0000})
	assert.Equal(t, 0xff0000, embed.Color)
}
