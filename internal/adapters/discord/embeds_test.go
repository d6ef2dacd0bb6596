package discord

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/bnema/anicord/internal/application"
	"github.com/bnema/anicord/internal/domain"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanDescription(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "empty", raw: "  ", want: "?"},
		{name: "line breaks and tags", raw: "First<br>Second <b>bold</b>", want: "First\nSecond bold..."},
		{name: "entities", raw: "Tom &amp; Jerry", want: "Tom & Jerry..."},
		{name: "word limit", raw: strings.Repeat("word ", 100), want: strings.TrimSuffix(strings.Repeat("word ", 65), " ") + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanDescription(tt.raw))
		})
	}
}

func TestSpoilersAndTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "He is ||the villain||.", spoilers("He is ~!the villain!~."))
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ああ...", truncate("ああああああ", 5))
}

func TestCapitalizeAndProfileColor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Not yet released", capitalize("NOT_YET_RELEASED"))
	assert.Equal(t, "?", capitalize(""))
	assert.Equal(t, 0x9b59b6, profileColor("PURPLE"))
	assert.Equal(t, colorDefault, profileColor("#ff00ff"))
}

func TestUserEmbedSplitsWatchTime(t *testing.T) {
	t.Parallel()

	user := domain.User{Name: "Alice"}
	user.Statistics.Anime.MinutesWatched = 1440*2 + 60*3 + 7
	user.Statistics.Anime.MeanScore = 72.5

	embed := userEmbed(user)
	require.Len(t, embed.Fields, 2)
	assert.Contains(t, embed.Fields[0].Value, "**2 days, 3 hours and 7 minutes**")
	assert.Contains(t, embed.Fields[0].Value, "Mean Score: **72.5**")
	assert.Contains(t, embed.Fields[0].Value, "Favorite Format: **Unknown**")
}

func TestCharacterEmbedCapsRelations(t *testing.T) {
	t.Parallel()

	character := domain.Character{ID: 1, Name: domain.CharacterName{Full: "Spike Spiegel", Native: "スパイク", Alternative: []string{"Swimming Bird"}}}
	for i := 0; i < 100; i++ {
		character.Appearances = append(character.Appearances, domain.CharacterAppearance{
			Title:   domain.MediaTitle{English: "Cowboy Bebop"},
			SiteURL: "https://anilist.co/anime/1",
			Role:    "MAIN",
		})
	}

	embed := characterEmbed(character)
	relations := fieldValue(embed, "Relations")
	assert.Less(t, len(relations), fieldLimit)
	assert.True(t, strings.HasPrefix(relations, " • [Cowboy Bebop](https://anilist.co/anime/1) [Main]\n"))
	assert.Equal(t, "Swimming Bird - スパイク", fieldValue(embed, "Aliases"))
}

func TestScoresEmbedsWithoutMembers(t *testing.T) {
	t.Parallel()

	media := domain.Media{ID: 1, Type: domain.MediaTypeManga, Title: domain.MediaTitle{Romaji: "Berserk"}}
	embeds := scoresEmbeds(media, domain.AggregateReport{}, application.DropThresholds{Anime: 5, Manga: 25})

	require.Len(t, embeds, 1)
	assert.Equal(t, "No linked users.", embeds[0].Description)
	assert.Empty(t, fieldValue(embeds[0], "SERVER SCORE"))
	assert.Equal(t, "Dropped scores affect server score only if progress is 25 or more.", embeds[0].Footer.Text)
}

func TestScoresEmbedsContinueLongBuckets(t *testing.T) {
	t.Parallel()

	report := domain.AggregateReport{
		Average:      80,
		Contributors: 120,
		Buckets: []domain.BucketLines{
			{Bucket: domain.BucketCompleted, Lines: memberLines(120, "Member%03d (80)")},
			{Bucket: domain.BucketNotOnList, Lines: []string{"Late"}},
		},
	}
	media := domain.Media{Type: domain.MediaTypeAnime, Title: domain.MediaTitle{Romaji: "Bebop"}}

	embeds := scoresEmbeds(media, report, application.DropThresholds{Anime: 5})
	require.Len(t, embeds, 1)
	embed := embeds[0]

	names := make([]string, 0, len(embed.Fields))
	for _, field := range embed.Fields {
		names = append(names, field.Name)
		assert.LessOrEqual(t, utf8.RuneCountInString(field.Value), fieldLimit)
		assert.NotContains(t, field.Value, "...")
	}
	assert.Equal(t, []string{"SERVER SCORE", "AniList SCORE", "COMPLETED", "COMPLETED (cont.)", "NOT ON LIST"}, names)
	assert.Equal(t, 121, countMemberLines(embeds))
	assert.NotContains(t, embed.Footer.Text, "Page")
}

func TestScoresEmbedsPageLargeReports(t *testing.T) {
	t.Parallel()

	report := domain.AggregateReport{
		Average:      75,
		Contributors: 900,
		Buckets: []domain.BucketLines{
			{Bucket: domain.BucketCompleted, Lines: memberLines(500, "A rather long display name %03d (75)")},
			{Bucket: domain.BucketCurrent, Lines: memberLines(400, "Another long display name %03d [12] (75)")},
		},
	}
	media := domain.Media{Type: domain.MediaTypeAnime, Title: domain.MediaTitle{Romaji: "Bebop"}}

	embeds := scoresEmbeds(media, report, application.DropThresholds{Anime: 5})
	require.Greater(t, len(embeds), 1)

	for i, embed := range embeds {
		size := utf8.RuneCountInString(embed.Title) + utf8.RuneCountInString(embed.Footer.Text)
		for _, field := range embed.Fields {
			size += utf8.RuneCountInString(field.Name) + utf8.RuneCountInString(field.Value)
		}
		assert.LessOrEqual(t, len(embed.Fields), embedFieldLimit)
		assert.LessOrEqual(t, size, embedCharLimit)
		assert.True(t, strings.HasSuffix(embed.Footer.Text, fmt.Sprintf("Page %d/%d", i+1, len(embeds))), embed.Footer.Text)
	}
	assert.Equal(t, "75", fieldValue(embeds[0], "SERVER SCORE"))
	assert.Empty(t, fieldValue(embeds[1], "SERVER SCORE"))
	assert.Equal(t, 900, countMemberLines(embeds))
}

func memberLines(n int, format string) []string {
	lines := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		lines = append(lines, fmt.Sprintf(format, i))
	}
	return lines
}

// countMemberLines counts the member lines shown across all bucket fields.
func countMemberLines(embeds []*discordgo.MessageEmbed) int {
	count := 0
	for _, embed := range embeds {
		for _, field := range embed.Fields {
			if field.Inline {
				continue
			}
			count += len(strings.Split(field.Value, lineSeparator))
		}
	}
	return count
}

func TestScoreEmbedCompletedShowsNotes(t *testing.T) {
	t.Parallel()

	embed := scoreEmbed(
		domain.User{Name: "Alice"},
		domain.Media{Title: domain.MediaTitle{English: "Monster"}},
		domain.ListEntry{Status: domain.StatusCompleted, Score: 95},
	)

	assert.Equal(t, "95", fieldValue(embed, "Score"))
	assert.Equal(t, "?", fieldValue(embed, "Notes"))
}

func TestSearchTitleCutsLongTitles(t *testing.T) {
	t.Parallel()

	exact := strings.Repeat("a", searchTitleLimit)
	assert.Equal(t, exact, searchTitle(domain.Media{Title: domain.MediaTitle{Romaji: exact}}))

	long := strings.Repeat("b", searchTitleLimit+1)
	assert.Equal(t, strings.Repeat("b", searchTitleLimit-3)+"...", searchTitle(domain.Media{Title: domain.MediaTitle{Romaji: long}}))
}
