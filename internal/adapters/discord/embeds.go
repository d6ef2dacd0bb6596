package discord

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bnema/anicord/internal/application"
	"github.com/bnema/anicord/internal/domain"
	"github.com/bwmarrin/discordgo"
	"github.com/microcosm-cc/bluemonday"
)

const (
	colorDefault = 0x1abc9c
	colorError   = 0xe74c3c

	fieldLimit        = 1024
	embedFieldLimit   = 25
	embedCharLimit    = 6000
	pageFooterReserve = 16
	lineSeparator     = " | "
	descriptionWords  = 65
	searchTitleLimit  = 70
	unknownValue      = "?"
	catalogUserURLFmt = "https://anilist.co/user/%d"

	continuationSuffix = " (cont.)"
)

var profileColors = map[string]int{
	"blue":   0x3498db,
	"purple": 0x9b59b6,
	"pink":   0xe91e63,
	"orange": 0xe67e22,
	"red":    0xe74c3c,
	"green":  0x2ecc71,
	"gray":   0x979c9f,
}

var (
	htmlPolicy  = bluemonday.StrictPolicy()
	lineBreakRE = regexp.MustCompile(`(?i)<br\s*/?>`)
)

func profileColor(name string) int {
	if color, ok := profileColors[strings.ToLower(name)]; ok {
		return color
	}
	return colorDefault
}

func notFoundEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Title: "Not Found", Description: "):", Color: colorDefault}
}

func usageEmbed(prefix, usage string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Incorrect usage",
		Description: fmt.Sprintf("Usage: `%s%s`", prefix, usage),
		Color:       colorError,
	}
}

// cleanDescription strips HTML from a catalog description and keeps the
// first descriptionWords words.
func cleanDescription(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return unknownValue
	}

	text := lineBreakRE.ReplaceAllString(raw, "\n")
	text = html.UnescapeString(htmlPolicy.Sanitize(text))
	text = strings.TrimSpace(text)

	words := strings.SplitN(text, " ", descriptionWords+1)
	if len(words) > descriptionWords {
		words = words[:descriptionWords]
	}
	return truncate(strings.Join(words, " ")+"...", fieldLimit)
}

// spoilers converts catalog spoiler markup to Discord spoiler tags.
func spoilers(text string) string {
	return strings.NewReplacer("~!", "||", "!~", "||").Replace(text)
}

// truncate cuts s to at most limit runes, ending with "..." when cut.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

func orUnknown(value string) string {
	if strings.TrimSpace(value) == "" {
		return unknownValue
	}
	return value
}

func intOrUnknown(value int) string {
	if value == 0 {
		return unknownValue
	}
	return strconv.Itoa(value)
}

// capitalize renders an enum like "NOT_YET_RELEASED" as "Not yet released".
func capitalize(value string) string {
	if value == "" {
		return unknownValue
	}
	lower := strings.ToLower(strings.ReplaceAll(value, "_", " "))
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func titleOf(title domain.MediaTitle) string {
	if title.English != "" {
		return title.English
	}
	if title.Romaji != "" {
		return title.Romaji
	}
	return title.Native
}

func mediaEmbed(media domain.Media) *discordgo.MessageEmbed {
	season := unknownValue
	if media.Season != "" {
		season = fmt.Sprintf("%s %d", capitalize(string(media.Season)), media.SeasonYear)
	}

	genres := unknownValue
	if len(media.Genres) > 0 {
		genres = strings.Join(media.Genres, " - ")
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Mean Score", Value: intOrUnknown(media.MeanScore), Inline: true},
		{Name: "Type", Value: capitalize(string(media.Type)), Inline: true},
		{Name: "Status", Value: capitalize(media.Status), Inline: true},
		{Name: "Season", Value: season, Inline: true},
		{Name: "Popularity", Value: strconv.Itoa(media.Popularity), Inline: true},
		{Name: "Favourited", Value: fmt.Sprintf("%d times", media.Favourites), Inline: true},
	}
	if media.Type == domain.MediaTypeManga {
		fields = append(fields,
			&discordgo.MessageEmbedField{Name: "Chapters", Value: intOrUnknown(media.Chapters), Inline: true},
			&discordgo.MessageEmbedField{Name: "Volumes", Value: intOrUnknown(media.Volumes), Inline: true},
		)
	} else {
		fields = append(fields,
			&discordgo.MessageEmbedField{Name: "Episodes", Value: intOrUnknown(media.Episodes), Inline: true},
			&discordgo.MessageEmbedField{Name: "Duration", Value: fmt.Sprintf("%s minutes per episode", intOrUnknown(media.Duration)), Inline: true},
		)
	}
	fields = append(fields,
		&discordgo.MessageEmbedField{Name: "Format", Value: orUnknown(media.Format), Inline: true},
		&discordgo.MessageEmbedField{Name: "Genres", Value: genres},
		&discordgo.MessageEmbedField{Name: "Description", Value: cleanDescription(media.Description)},
	)

	embed := &discordgo.MessageEmbed{
		Title:       titleOf(media.Title),
		URL:         media.SiteURL,
		Description: fmt.Sprintf("%s - %s\n\n", orUnknown(media.Title.Native), orUnknown(media.Title.Romaji)),
		Color:       colorDefault,
		Fields:      fields,
	}
	if media.CoverImage != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: media.CoverImage}
	}
	if media.BannerImage != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: media.BannerImage}
	}
	return embed
}

func userEmbed(user domain.User) *discordgo.MessageEmbed {
	anime := user.Statistics.Anime
	manga := user.Statistics.Manga

	days, hours, minutes := splitMinutes(anime.MinutesWatched)
	animeStats := fmt.Sprintf(
		"- Total Entries: **%d**\n- Mean Score: **%s**\n- Episodes Watched: **%d**\n- Time Watched: **%d days, %d hours and %d minutes**\n- Favorite Format: **%s**\n- Favorite Genres: **%s**\n",
		anime.Count, formatMean(anime.MeanScore), anime.EpisodesWatched, days, hours, minutes, favouriteFormat(anime), favouriteGenres(anime),
	)
	mangaStats := fmt.Sprintf(
		"- Total Entries: **%d**\n- Mean Score: **%s**\n- Volumes Read: **%d**\n- Chapters Read: **%d**\n- Favorite Format: **%s**\n- Favorite Genres: **%s**\n",
		manga.Count, formatMean(manga.MeanScore), manga.VolumesRead, manga.ChaptersRead, favouriteFormat(manga), favouriteGenres(manga),
	)

	embed := &discordgo.MessageEmbed{
		Title: user.Name + " - AniList Statistics",
		URL:   user.SiteURL,
		Color: profileColor(user.ProfileColor),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Anime Statistics", Value: truncate(animeStats, fieldLimit)},
			{Name: "Manga Statistics", Value: truncate(mangaStats, fieldLimit)},
		},
	}
	if user.Avatar != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: user.Avatar}
	}
	if user.BannerImage != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: user.BannerImage}
	}
	return embed
}

func splitMinutes(total int) (days, hours, minutes int) {
	days = total / 1440
	hours = (total % 1440) / 60
	minutes = total % 60
	return days, hours, minutes
}

func formatMean(mean float64) string {
	return strconv.FormatFloat(mean, 'f', -1, 64)
}

func favouriteFormat(stats domain.MediaStatistics) string {
	if len(stats.Formats) == 0 {
		return "Unknown"
	}
	return stats.Formats[0]
}

func favouriteGenres(stats domain.MediaStatistics) string {
	if len(stats.Genres) == 0 {
		return "Unknown"
	}
	return strings.Join(stats.Genres, " / ")
}

func characterEmbed(character domain.Character) *discordgo.MessageEmbed {
	description := spoilers(truncate(character.Description, fieldLimit))

	var relations strings.Builder
	relations.WriteString(" ")
	for _, appearance := range character.Appearances {
		title := appearance.Title.English
		if title == "" {
			title = appearance.Title.Native
		}
		relation := fmt.Sprintf("• [%s](%s) [%s]\n", title, appearance.SiteURL, capitalize(appearance.Role))
		if relations.Len()+len(relation) >= fieldLimit {
			break
		}
		relations.WriteString(relation)
	}

	aliases := append([]string{}, character.Name.Alternative...)
	if character.Name.Native != "" {
		aliases = append(aliases, character.Name.Native)
	}

	embed := &discordgo.MessageEmbed{
		Title:       character.DisplayName(),
		Description: description,
		URL:         character.SiteURL,
		Color:       colorDefault,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Relations", Value: relations.String()},
			{Name: "Aliases", Value: orUnknown(truncate(strings.Join(aliases, " - "), fieldLimit))},
			{Name: "AniList ID", Value: strconv.Itoa(character.ID), Inline: true},
			{Name: "Favourites", Value: strconv.Itoa(character.Favourites), Inline: true},
		},
	}
	if character.Image != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: character.Image}
	}
	return embed
}

func favouritesEmbed(user domain.User) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: user.Name + "'s favourites",
		Color: profileColor(user.ProfileColor),
	}

	groups := []struct {
		name string
		refs []domain.FavouriteRef
	}{
		{name: "Anime", refs: user.Favourites.Anime},
		{name: "Mangas", refs: user.Favourites.Manga},
		{name: "Characters", refs: user.Favourites.Characters},
		{name: "Staff", refs: user.Favourites.Staff},
		{name: "Studios", refs: user.Favourites.Studios},
	}
	for _, group := range groups {
		if len(group.refs) == 0 {
			continue
		}
		var value strings.Builder
		for _, ref := range group.refs {
			line := fmt.Sprintf("• [%s](%s) *(%d)*\n", ref.Name, ref.SiteURL, ref.ID)
			if value.Len()+len(line) > fieldLimit {
				break
			}
			value.WriteString(line)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: group.name, Value: value.String()})
	}

	if len(embed.Fields) == 0 {
		embed.Description = "No favourites yet."
	}
	return embed
}

func topEmbed(user domain.User, count int, entries []domain.TopEntry) *discordgo.MessageEmbed {
	var description strings.Builder
	for _, entry := range entries {
		fmt.Fprintf(&description, "%s *[%s]* - **%d**\n", titleOf(entry.Media.Title), entry.Media.Type, entry.Score)
	}
	if description.Len() == 0 {
		description.WriteString("No scored entries.")
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s's top %d", user.Name, count),
		Description: description.String(),
		Color:       profileColor(user.ProfileColor),
	}
	if user.Avatar != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: user.Avatar}
	}
	return embed
}

func scoreEmbed(user domain.User, media domain.Media, entry domain.ListEntry) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s's score for %s", user.Name, titleOf(media.Title)),
		Color: profileColor(user.ProfileColor),
	}

	if entry.Status == domain.StatusCompleted {
		embed.Fields = []*discordgo.MessageEmbedField{
			{Name: "Score", Value: strconv.Itoa(entry.Score), Inline: true},
			{Name: "Notes", Value: orUnknown(truncate(entry.Notes, fieldLimit)), Inline: true},
		}
	} else {
		status := capitalize(string(entry.Status))
		if entry.Status == domain.StatusCurrent {
			status = "Watching"
			if media.Type == domain.MediaTypeManga {
				status = "Reading"
			}
		}
		embed.Fields = []*discordgo.MessageEmbedField{
			{Name: "Status", Value: status, Inline: true},
			{Name: "Progress", Value: strconv.Itoa(entry.Progress), Inline: true},
		}
	}

	if user.Avatar != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: user.Avatar}
	}
	return embed
}

// scoresEmbeds lays the aggregate report out over as many embeds as Discord's
// field and size limits require. A bucket too long for one field continues in
// "<BUCKET> (cont.)" fields; member lines are never cut.
func scoresEmbeds(media domain.Media, report domain.AggregateReport, thresholds application.DropThresholds) []*discordgo.MessageEmbed {
	title := "User scores for " + titleOf(media.Title)
	footer := fmt.Sprintf("Dropped scores affect server score only if progress is %d or more.", thresholds.For(media.Type))
	newPage := func() *discordgo.MessageEmbed {
		embed := &discordgo.MessageEmbed{
			Title:  title,
			Color:  colorDefault,
			Footer: &discordgo.MessageEmbedFooter{Text: footer},
		}
		if media.CoverImage != "" {
			embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: media.CoverImage}
		}
		return embed
	}

	if len(report.Buckets) == 0 {
		embed := newPage()
		embed.Description = "No linked users."
		return []*discordgo.MessageEmbed{embed}
	}

	var fields []*discordgo.MessageEmbedField
	if report.HasAverage() {
		fields = append(fields,
			&discordgo.MessageEmbedField{Name: "SERVER SCORE", Value: strconv.Itoa(report.AverageInt()), Inline: true},
			&discordgo.MessageEmbedField{Name: "AniList SCORE", Value: intOrUnknown(media.MeanScore), Inline: true},
		)
	}
	for _, bucket := range report.Buckets {
		fields = append(fields, bucketFields(bucket)...)
	}

	base := runeCount(title) + runeCount(footer) + pageFooterReserve
	pages := []*discordgo.MessageEmbed{newPage()}
	size := base
	for _, field := range fields {
		page := pages[len(pages)-1]
		fieldSize := runeCount(field.Name) + runeCount(field.Value)
		if len(page.Fields) == embedFieldLimit || (len(page.Fields) > 0 && size+fieldSize > embedCharLimit) {
			page = newPage()
			pages = append(pages, page)
			size = base
		}
		page.Fields = append(page.Fields, field)
		size += fieldSize
	}

	if len(pages) > 1 {
		for i, page := range pages {
			page.Footer.Text = fmt.Sprintf("%s Page %d/%d", footer, i+1, len(pages))
		}
	}
	return pages
}

// bucketFields joins a bucket's lines with " | " into fields of at most
// fieldLimit runes.
func bucketFields(bucket domain.BucketLines) []*discordgo.MessageEmbedField {
	var fields []*discordgo.MessageEmbedField
	var value strings.Builder
	size := 0

	flush := func() {
		if size == 0 {
			return
		}
		name := string(bucket.Bucket)
		if len(fields) > 0 {
			name += continuationSuffix
		}
		fields = append(fields, &discordgo.MessageEmbedField{Name: name, Value: value.String()})
		value.Reset()
		size = 0
	}

	for _, line := range bucket.Lines {
		line = truncate(line, fieldLimit)
		lineSize := runeCount(line)
		if size > 0 && size+len(lineSeparator)+lineSize > fieldLimit {
			flush()
		}
		if size > 0 {
			value.WriteString(lineSeparator)
			size += len(lineSeparator)
		}
		value.WriteString(line)
		size += lineSize
	}
	flush()
	return fields
}

func runeCount(s string) int {
	return utf8.RuneCountInString(s)
}

func rosterLine(identity domain.LinkedIdentity) string {
	url := fmt.Sprintf(catalogUserURLFmt, identity.CatalogUserID)
	return fmt.Sprintf("**Discord:** %s - **AniList:** [%s](%s)", identity.DisplayName, identity.CatalogUserName, url)
}

func searchTitle(media domain.Media) string {
	title := titleOf(media.Title)
	if len([]rune(title)) > searchTitleLimit {
		title = string([]rune(title)[:searchTitleLimit-3]) + "..."
	}
	return title
}

func codeBlock(text string) string {
	return "```" + text + "```"
}
