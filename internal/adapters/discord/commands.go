package discord

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bnema/anicord/internal/domain"
	"github.com/bnema/anicord/internal/pagination"
	"github.com/bnema/anicord/internal/ports"
	"github.com/bwmarrin/discordgo"
)

const (
	usersPerPage    = 20
	seasonalPerPage = 25
	defaultTopCount = 10
	maxTopCount     = 50
)

type command struct {
	name        string
	aliases     []string
	description string
	usage       string
	admin       bool
	run         func(ctx context.Context, inv invocation) error
}

func (r *Router) commandTable() []*command {
	return []*command{
		{name: "help", description: "Displays this message.", usage: "help (command)", run: r.help},
		{name: "ping", description: "Pong!", usage: "ping", run: r.ping},
		{name: "set-channels", description: "_[ADMIN]_ Sets bot's command channels", usage: "set-channels [channels]", admin: true, run: r.setChannels},
		{name: "anime", description: "Search for a specific anime using its name.", usage: "anime [name]", run: r.mediaCommand(domain.MediaTypeAnime)},
		{name: "manga", description: "Search for a specific manga using its name.", usage: "manga [name]", run: r.mediaCommand(domain.MediaTypeManga)},
		{name: "user", description: "Search for a specific username.", usage: "user <user|mention>", run: r.user},
		{name: "link", description: "Links your discord account to an AniList user.", usage: "link [name]", run: r.link},
		{name: "unlink", description: "Removes the link between your discord account and an AniList user.", usage: "unlink", run: r.unlink},
		{name: "users", description: "Shows all users currently linked.", usage: "users", run: r.users},
		{name: "top", description: "Shows the top medias of a user.", usage: "top [top_count] <name|mention>", run: r.top},
		{name: "search", description: "Search for specific information. shows all results.", usage: "search [media|anime|manga|character|user] [name]", run: r.search},
		{name: "score", description: "Shows a user's score for a specific media.", usage: "score [user|mention] [name]", run: r.score},
		{name: "scores", description: "Gets user scores for a specific media", usage: "scores [anime|manga] [name]", run: r.scores},
		{name: "character", description: "Search for a specific character using its name.", usage: "character [name]", run: r.character},
		{name: "favourites", aliases: []string{"favorites"}, description: "Shows a user's favourites.", usage: "favourites [name|mention]", run: r.favourites},
		{name: "seasonal", aliases: []string{"season"}, description: "Shows seasonal anime.", usage: "seasonal [season] [year]", run: r.seasonal},
	}
}

func (r *Router) help(_ context.Context, inv invocation) error {
	if len(inv.args) == 0 {
		var list strings.Builder
		for _, cmd := range r.commands {
			fmt.Fprintf(&list, "`%s` - %s\n", cmd.name, cmd.description)
		}

		info := fmt.Sprintf("\n**Prefix:** `%s`\nUse `%shelp [command]` to get more info on the command.\n**Version:** %s", inv.prefix, inv.prefix, r.version)
		return r.sendEmbed(inv, &discordgo.MessageEmbed{
			Title: "Help",
			Color: colorDefault,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Commands", Value: truncate(list.String(), fieldLimit)},
				{Name: "Info", Value: info},
			},
		})
	}

	name := strings.ToLower(inv.args[0])
	cmd, ok := r.byName[name]
	if !ok {
		return r.sendEmbed(inv, &discordgo.MessageEmbed{
			Title:       inv.args[0],
			Description: fmt.Sprintf("`%s` is not a command.", inv.args[0]),
			Color:       colorError,
		})
	}

	embed := &discordgo.MessageEmbed{
		Title:       cmd.name,
		Description: cmd.description,
		Color:       colorDefault,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Usage", Value: codeBlock(inv.prefix + cmd.usage)},
		},
	}
	if len(cmd.aliases) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Aliases",
			Value: "`" + strings.Join(cmd.aliases, "` | `") + "`",
		})
	}
	return r.sendEmbed(inv, embed)
}

func (r *Router) ping(_ context.Context, inv invocation) error {
	return r.send(inv, fmt.Sprintf("Pong!\n%d ms", r.session.HeartbeatLatency().Milliseconds()))
}

func (r *Router) setChannels(ctx context.Context, inv invocation) error {
	guildChannels, err := r.session.GuildChannels(inv.guildID)
	if err != nil {
		return fmt.Errorf("list guild channels: %w", err)
	}
	known := make(map[string]bool, len(guildChannels))
	for _, channel := range guildChannels {
		known[channel.ID] = true
	}

	channels := make([]string, 0, len(inv.args))
	for _, arg := range inv.args {
		id := stripMention(arg)
		if !known[id] {
			if err := r.send(inv, fmt.Sprintf("Channel %s does not exist, skipping.", id)); err != nil {
				return err
			}
			continue
		}
		channels = append(channels, id)
	}

	if err := r.settings.SetChannels(ctx, inv.guildID, channels); err != nil {
		return err
	}
	return r.send(inv, "Channels set successfully!")
}

func (r *Router) mediaCommand(mediaType domain.MediaType) func(context.Context, invocation) error {
	return func(ctx context.Context, inv invocation) error {
		if len(inv.args) == 0 {
			return errUsage
		}

		media, err := r.catalog.FindMedia(ctx, strings.Join(inv.args, " "), mediaType)
		if err != nil {
			return fmt.Errorf("find %s: %w", strings.ToLower(string(mediaType)), err)
		}
		return r.sendEmbed(inv, mediaEmbed(media))
	}
}

func (r *Router) user(ctx context.Context, inv invocation) error {
	name, err := r.catalogName(inv, firstArg(inv.args))
	if err != nil {
		return err
	}

	user, err := r.catalog.FindUser(ctx, name)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	return r.sendEmbed(inv, userEmbed(user))
}

func (r *Router) link(ctx context.Context, inv invocation) error {
	if len(inv.args) == 0 || strings.TrimSpace(inv.args[0]) == "" {
		return errUsage
	}

	_, user, err := r.rosters.Link(ctx, inv.guildID, inv.authorID, inv.authorName, inv.args[0])
	if errors.Is(err, domain.ErrCatalogUserTaken) {
		return r.send(inv, "User taken.")
	}
	if err != nil {
		return err
	}

	if err := r.sendEmbed(inv, userEmbed(user)); err != nil {
		return err
	}
	return r.send(inv, "Linked successfully")
}

func (r *Router) unlink(ctx context.Context, inv invocation) error {
	err := r.rosters.Unlink(ctx, inv.guildID, inv.authorID)
	if errors.Is(err, domain.ErrIdentityNotLinked) {
		return r.sendEmbed(inv, &discordgo.MessageEmbed{
			Title:       "Not linked",
			Description: "You have no linked AniList account.",
			Color:       colorError,
		})
	}
	if err != nil {
		return err
	}

	return r.sendEmbed(inv, &discordgo.MessageEmbed{
		Title:       "User unlinked successfully",
		Description: "Hurrah!",
		Color:       colorDefault,
	})
}

func (r *Router) users(ctx context.Context, inv invocation) error {
	roster := r.rosters.Roster(inv.guildID)
	title := fmt.Sprintf("Total linked users: %d", len(roster))
	if len(roster) == 0 {
		return r.sendEmbed(inv, &discordgo.MessageEmbed{Title: title, Description: "No linked users.", Color: colorDefault})
	}

	lines := make([]string, 0, len(roster))
	for _, identity := range roster {
		lines = append(lines, rosterLine(identity))
	}

	renderer := newMessageRenderer(r.session, inv.channelID, func(page pagination.Page) (string, *discordgo.MessageEmbed) {
		return "", &discordgo.MessageEmbed{
			Title:       title,
			Description: strings.Join(page.Lines, "\n"),
			Color:       colorDefault,
			Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Page %d/%d", page.Index+1, page.Total)},
		}
	})
	_, err := r.pages.Open(ctx, inv.authorID, pagination.Chunk(lines, usersPerPage), renderer)
	return err
}

func (r *Router) top(ctx context.Context, inv invocation) error {
	args := inv.args
	count := defaultTopCount
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			if n < 1 || n > maxTopCount {
				return errUsage
			}
			count = n
			args = args[1:]
		}
	}

	name, err := r.catalogName(inv, firstArg(args))
	if err != nil {
		return err
	}

	user, err := r.catalog.FindUser(ctx, name)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	entries, err := r.catalog.TopMedia(ctx, user.ID, 1, count)
	if err != nil {
		return fmt.Errorf("top media of %s: %w", user.Name, err)
	}
	return r.sendEmbed(inv, topEmbed(user, count, entries))
}

func (r *Router) search(ctx context.Context, inv invocation) error {
	if len(inv.args) < 2 {
		return errUsage
	}
	query := strings.Join(inv.args[1:], " ")

	var result strings.Builder
	switch kind := strings.ToLower(inv.args[0]); kind {
	case "media", "anime", "manga":
		var mediaType domain.MediaType
		if kind != "media" {
			mediaType = domain.MediaType(strings.ToUpper(kind))
		}
		medias, err := r.catalog.SearchMedia(ctx, query, mediaType)
		if err != nil {
			return fmt.Errorf("search media: %w", err)
		}
		for _, media := range medias {
			fmt.Fprintf(&result, "%s %d - %s\n", capitalize(string(media.Type)), media.ID, searchTitle(media))
		}
	case "character":
		characters, err := r.catalog.SearchCharacters(ctx, query)
		if err != nil {
			return fmt.Errorf("search characters: %w", err)
		}
		for _, character := range characters {
			fmt.Fprintf(&result, "Character %d - %s\n", character.ID, character.DisplayName())
		}
	case "user":
		users, err := r.catalog.SearchUsers(ctx, query)
		if err != nil {
			return fmt.Errorf("search users: %w", err)
		}
		for _, user := range users {
			fmt.Fprintf(&result, "User %d - %s\n", user.ID, user.Name)
		}
	default:
		return errUsage
	}

	if result.Len() == 0 {
		result.WriteString("No results ):")
	}
	return r.send(inv, codeBlock(result.String()))
}

func (r *Router) score(ctx context.Context, inv invocation) error {
	if len(inv.args) < 2 {
		return errUsage
	}

	name := r.rosters.Resolve(inv.guildID, inv.args[0])
	mediaName := strings.Join(inv.args[1:], " ")

	user, err := r.catalog.FindUser(ctx, name)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}

	var candidates []domain.Media
	for _, mediaType := range []domain.MediaType{domain.MediaTypeAnime, domain.MediaTypeManga} {
		media, err := r.catalog.FindMedia(ctx, mediaName, mediaType)
		if errors.Is(err, ports.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("find media: %w", err)
		}
		candidates = append(candidates, media)
	}

	for _, media := range candidates {
		entry, err := r.catalog.GetListEntry(ctx, user.ID, media.ID)
		if errors.Is(err, ports.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("get list entry: %w", err)
		}
		return r.sendEmbed(inv, scoreEmbed(user, media, entry))
	}

	return fmt.Errorf("%s has no entry for %q: %w", user.Name, mediaName, ports.ErrNotFound)
}

func (r *Router) scores(ctx context.Context, inv invocation) error {
	if len(inv.args) < 2 {
		return errUsage
	}
	mediaType, err := domain.ParseMediaType(inv.args[0])
	if err != nil {
		return errUsage
	}

	if err := r.send(inv, "This might take some time..."); err != nil {
		return err
	}

	media, err := r.catalog.FindMedia(ctx, strings.Join(inv.args[1:], " "), mediaType)
	if err != nil {
		return fmt.Errorf("find media: %w", err)
	}

	report, err := r.aggregator.Aggregate(ctx, r.rosters.Roster(inv.guildID), media.Ref())
	if err != nil {
		return fmt.Errorf("aggregate scores: %w", err)
	}

	embeds := scoresEmbeds(media, report, r.aggregator.Thresholds())
	if len(embeds) == 1 {
		return r.sendEmbed(inv, embeds[0])
	}

	pages := make([][]string, len(embeds))
	for i, embed := range embeds {
		for _, field := range embed.Fields {
			pages[i] = append(pages[i], field.Value)
		}
	}
	renderer := newMessageRenderer(r.session, inv.channelID, func(page pagination.Page) (string, *discordgo.MessageEmbed) {
		return "", embeds[page.Index]
	})
	_, err = r.pages.Open(ctx, inv.authorID, pagination.Static(pages...), renderer)
	return err
}

func (r *Router) character(ctx context.Context, inv invocation) error {
	if len(inv.args) == 0 {
		return errUsage
	}

	character, err := r.catalog.FindCharacter(ctx, strings.Join(inv.args, " "))
	if err != nil {
		return fmt.Errorf("find character: %w", err)
	}
	return r.sendEmbed(inv, characterEmbed(character))
}

func (r *Router) favourites(ctx context.Context, inv invocation) error {
	query := firstArg(inv.args)
	if query == "" {
		query = inv.authorID
	}

	if identity, ok := r.rosters.Lookup(inv.guildID, query); ok {
		query = strconv.Itoa(identity.CatalogUserID)
	} else if len(inv.args) == 0 {
		return errUsage
	}

	user, err := r.catalog.FindUser(ctx, query)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	return r.sendEmbed(inv, favouritesEmbed(user))
}

func (r *Router) seasonal(ctx context.Context, inv invocation) error {
	if len(inv.args) < 2 {
		return errUsage
	}

	season, err := domain.ParseSeason(inv.args[0])
	if err != nil {
		return r.sendEmbed(inv, &discordgo.MessageEmbed{
			Title:       "Invalid season",
			Description: "Valid seasons are: `WINTER|SPRING|SUMMER|FALL`",
			Color:       colorError,
		})
	}
	year, err := strconv.Atoi(inv.args[1])
	if err != nil {
		return errUsage
	}

	source := pagination.Fetched(func(ctx context.Context, index int) ([]string, error) {
		medias, err := r.catalog.SeasonalMedia(ctx, season, year, index+1, seasonalPerPage)
		if err != nil {
			return nil, fmt.Errorf("seasonal page %d: %w", index+1, err)
		}
		lines := make([]string, 0, len(medias))
		for _, media := range medias {
			lines = append(lines, fmt.Sprintf("%d - %s", media.ID, titleOf(media.Title)))
		}
		return lines, nil
	})

	renderer := newMessageRenderer(r.session, inv.channelID, func(page pagination.Page) (string, *discordgo.MessageEmbed) {
		return codeBlock(fmt.Sprintf("Page %d\nID     - Name\n%s\n", page.Index+1, strings.Join(page.Lines, "\n"))), nil
	})

	_, err = r.pages.Open(ctx, inv.authorID, source, renderer)
	if errors.Is(err, pagination.ErrNoPages) {
		return r.send(inv, codeBlock("No results ):"))
	}
	return err
}

// catalogName resolves a user argument (mention, linked chat user ID or
// catalog name) to a catalog user name. Without an argument the author's own
// link is used.
func (r *Router) catalogName(inv invocation, arg string) (string, error) {
	if arg != "" {
		return r.rosters.Resolve(inv.guildID, arg), nil
	}
	identity, ok := r.rosters.Lookup(inv.guildID, inv.authorID)
	if !ok {
		return "", errUsage
	}
	return identity.CatalogUserName, nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return strings.TrimSpace(args[0])
}
