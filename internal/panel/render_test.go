package panel

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quaver/internal/session"
)

func TestModeFor(t *testing.T) {
	assert.Equal(t, FullRefresh, ModeFor(session.HardNext))
	assert.Equal(t, FullRefresh, ModeFor(session.Previous))
	assert.Equal(t, FullRefresh, ModeFor(session.SelectedNext))
	assert.Equal(t, FooterOnly, ModeFor(session.SoftNext))
	assert.Equal(t, FooterOnly, ModeFor(session.StateChange))
}

func TestFullEmbedWithTrack(t *testing.T) {
	snap := session.Snapshot{
		NowPlaying: &session.Track{
			Title:     "Song",
			Artist:    "Artist",
			Duration:  3*time.Minute + 7*time.Second,
			Thumbnail: "https://img.example/t.jpg",
			SourceURL: "https://www.youtube.com/watch?v=abc",
		},
		Looping: true,
	}

	embed := fullEmbed(snap)
	assert.Equal(t, "**Song**", embed.Title)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", embed.URL)
	require.NotNil(t, embed.Image)
	assert.Equal(t, "https://img.example/t.jpg", embed.Image.URL)
	assert.Equal(t, "**Duration:** 03:07 | **Uploader:** Artist", embed.Description)
	assert.Equal(t, "Looping: True | Shuffling: False", embed.Footer.Text)
}

func TestFullEmbedIdle(t *testing.T) {
	embed := fullEmbed(session.Snapshot{Shuffling: true})
	assert.Equal(t, panelTitle, embed.Title)
	assert.Nil(t, embed.Image)
	assert.Equal(t, "Looping: False | Shuffling: True", embed.Footer.Text)
}

func TestCarryOverEmbedKeepsMediaFields(t *testing.T) {
	current := &discordgo.Message{Embeds: []*discordgo.MessageEmbed{{
		Title:       "**Song**",
		Description: "**Duration:** 03:07 | **Uploader:** Artist",
		URL:         "https://www.youtube.com/watch?v=abc",
		Image:       &discordgo.MessageEmbedImage{URL: "https://img.example/t.jpg"},
	}}}

	embed := carryOverEmbed(current, session.Snapshot{Looping: true, Shuffling: true})
	assert.Equal(t, "**Song**", embed.Title)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", embed.URL)
	require.NotNil(t, embed.Image)
	assert.Equal(t, "Looping: True | Shuffling: True", embed.Footer.Text)
}

func TestDurationString(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{42 * time.Second, "00:42"},
		{3*time.Minute + 7*time.Second, "03:07"},
		{time.Hour + 2*time.Minute + 3*time.Second, "01:02:03"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, durationString(&session.Track{Duration: c.d}))
	}
}

func TestControlComponents(t *testing.T) {
	components := controlComponents(nil, 0)
	require.Len(t, components, 1, "no picker without upcoming entries")

	upcoming := []session.QueueEntry{
		{Index: 2, Title: "Second"},
		{Index: 3, Title: strings.Repeat("x", 120)},
	}
	components = controlComponents(upcoming, 2)
	require.Len(t, components, 2)

	row, ok := components[1].(discordgo.ActionsRow)
	require.True(t, ok)
	menu, ok := row.Components[0].(discordgo.SelectMenu)
	require.True(t, ok)
	assert.Equal(t, "queue_select", menu.CustomID)
	assert.Equal(t, "View Queue (2 Songs)", menu.Placeholder)
	require.Len(t, menu.Options, 2)
	assert.Equal(t, "1) Second", menu.Options[0].Label)
	assert.Equal(t, "2", menu.Options[0].Value, "option value is the absolute queue index")
	assert.LessOrEqual(t, len(menu.Options[1].Label), maxOptionLabel)
}

func TestTruncateLabelKeepsValidUTF8(t *testing.T) {
	assert.Equal(t, "short", truncateLabel("short", maxOptionLabel))

	long := strings.Repeat("é", 60)
	got := truncateLabel(long, maxOptionLabel)
	assert.LessOrEqual(t, len(got), maxOptionLabel)
	assert.True(t, utf8.ValidString(got), "truncation must not split a rune")

	// maxOptionLabel is odd, so the byte cut lands mid-rune for 2-byte runes.
	assert.Equal(t, strings.Repeat("é", maxOptionLabel/2), got)

	wide := strings.Repeat("🎶", 30)
	got = truncateLabel(wide, maxOptionLabel)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("🎶", maxOptionLabel/4), got)
}

func TestControlComponentsMultiByteTitles(t *testing.T) {
	upcoming := []session.QueueEntry{{Index: 1, Title: strings.Repeat("ß", 100)}}
	components := controlComponents(upcoming, 1)
	row := components[1].(discordgo.ActionsRow)
	menu := row.Components[0].(discordgo.SelectMenu)
	assert.LessOrEqual(t, len(menu.Options[0].Label), maxOptionLabel)
	assert.True(t, utf8.ValidString(menu.Options[0].Label))
}

func TestControlComponentsElision(t *testing.T) {
	upcoming := make([]session.QueueEntry, 25)
	for i := range upcoming {
		upcoming[i] = session.QueueEntry{Index: i, Title: "t"}
	}

	components := controlComponents(upcoming, 40)
	row := components[1].(discordgo.ActionsRow)
	menu := row.Components[0].(discordgo.SelectMenu)
	assert.Equal(t, "View Queue (25 Songs, +15 more)", menu.Placeholder)
}
