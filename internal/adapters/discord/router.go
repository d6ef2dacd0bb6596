package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bnema/anicord/internal/application"
	"github.com/bnema/anicord/internal/pagination"
	"github.com/bnema/anicord/internal/ports"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	DefaultCommandTimeout = 2 * time.Minute

	reactionUnknown = "❓"

	outcomeOK       = "ok"
	outcomeUsage    = "usage"
	outcomeNotFound = "not_found"
	outcomeDenied   = "denied"
	outcomeError    = "error"
	outcomePanic    = "panic"
	outcomeUnknown  = "unknown"
)

var errUsage = errors.New("incorrect usage")

// CommandObserver is told how every command invocation ended.
type CommandObserver interface {
	CommandHandled(command, outcome string)
}

type Config struct {
	Session        Session
	Rosters        *application.RosterService
	Settings       *application.SettingsService
	Catalog        ports.Catalog
	Aggregator     *application.Aggregator
	Pages          *pagination.Registry
	Observer       CommandObserver
	Logger         *zap.Logger
	Version        string
	CommandTimeout time.Duration
}

// Router turns gateway events into command invocations, pagination events
// and roster updates.
type Router struct {
	session    Session
	rosters    *application.RosterService
	settings   *application.SettingsService
	catalog    ports.Catalog
	aggregator *application.Aggregator
	pages      *pagination.Registry
	observer   CommandObserver
	logger     *zap.Logger
	version    string
	timeout    time.Duration

	commands []*command
	byName   map[string]*command

	selfMu sync.RWMutex
	selfID string
}

type invocation struct {
	guildID    string
	channelID  string
	messageID  string
	authorID   string
	authorName string
	prefix     string
	command    *command
	args       []string
}

func NewRouter(cfg Config) *Router {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = DefaultCommandTimeout
	}
	if cfg.Pages == nil {
		cfg.Pages = pagination.NewRegistry(pagination.RegistryOptions{Logger: cfg.Logger})
	}

	r := &Router{
		session:    cfg.Session,
		rosters:    cfg.Rosters,
		settings:   cfg.Settings,
		catalog:    cfg.Catalog,
		aggregator: cfg.Aggregator,
		pages:      cfg.Pages,
		observer:   cfg.Observer,
		logger:     cfg.Logger,
		version:    cfg.Version,
		timeout:    cfg.CommandTimeout,
		byName:     map[string]*command{},
	}
	r.commands = r.commandTable()
	for _, cmd := range r.commands {
		r.byName[cmd.name] = cmd
		for _, alias := range cmd.aliases {
			r.byName[alias] = cmd
		}
	}
	return r
}

func (r *Router) HandleReady(ready *discordgo.Ready) {
	if ready == nil || ready.User == nil {
		return
	}

	r.selfMu.Lock()
	r.selfID = ready.User.ID
	r.selfMu.Unlock()

	r.logger.Info("connected to gateway", zap.String("user", ready.User.Username), zap.Int("guilds", len(ready.Guilds)))
}

func (r *Router) HandleMessage(ctx context.Context, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil || m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	if err := r.rosters.EnsureGuild(ctx, m.GuildID); err != nil {
		r.logger.Error("ensure guild roster", zap.String("guild", m.GuildID), zap.Error(err))
	}
	if err := r.settings.EnsureGuild(ctx, m.GuildID); err != nil {
		r.logger.Error("ensure guild settings", zap.String("guild", m.GuildID), zap.Error(err))
	}

	if !r.settings.Allowed(m.GuildID, m.ChannelID) {
		return
	}

	prefix := r.settings.Prefix()
	name, args, ok := parseCommand(prefix, m.Content)
	if !ok {
		return
	}

	inv := invocation{
		guildID:    m.GuildID,
		channelID:  m.ChannelID,
		messageID:  m.ID,
		authorID:   m.Author.ID,
		authorName: displayName(m.Message),
		prefix:     prefix,
		args:       args,
	}

	cmd, ok := r.byName[name]
	if !ok {
		r.logger.Debug("unknown command", zap.String("command", name), zap.String("guild", m.GuildID))
		r.react(inv, reactionUnknown)
		r.observe(outcomeUnknown, outcomeUnknown)
		return
	}
	inv.command = cmd

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.observe(cmd.name, r.run(ctx, inv))
}

// HandleReaction routes navigation reactions to the paginated message they
// were added to and removes them again.
func (r *Router) HandleReaction(ctx context.Context, reaction *discordgo.MessageReactionAdd) {
	if reaction == nil || reaction.MessageReaction == nil || reaction.UserID == r.self() {
		return
	}
	if reaction.Member != nil && reaction.Member.User != nil && reaction.Member.User.Bot {
		return
	}

	action, ok := actionForEmoji(reaction.Emoji.Name)
	if !ok {
		return
	}

	found, err := r.pages.Dispatch(ctx, reaction.MessageID, pagination.Event{ActorID: reaction.UserID, Action: action})
	if err != nil {
		fields := []zap.Field{
			zap.String("message", reaction.MessageID),
			zap.Stringer("action", action),
			zap.Error(err),
		}
		var navErr *pagination.NavigationError
		if errors.As(err, &navErr) {
			fields = append(fields, zap.String("session", navErr.SessionID), zap.Int("page", navErr.Page))
		}
		r.logger.Warn("page navigation failed", fields...)
	}
	if !found {
		return
	}

	if err := r.session.MessageReactionRemove(reaction.ChannelID, reaction.MessageID, reaction.Emoji.Name, reaction.UserID); err != nil {
		r.logger.Debug("remove navigation reaction", zap.String("message", reaction.MessageID), zap.Error(err))
	}
}

func (r *Router) HandleMemberRemove(ctx context.Context, event *discordgo.GuildMemberRemove) {
	if event == nil || event.Member == nil || event.User == nil {
		return
	}

	if err := r.rosters.MemberLeft(ctx, event.GuildID, event.User.ID); err != nil {
		r.logger.Error("unlink departed member",
			zap.String("guild", event.GuildID),
			zap.String("user", event.User.ID),
			zap.Error(err),
		)
	}
}

func (r *Router) run(ctx context.Context, inv invocation) (outcome string) {
	cmd := inv.command
	defer func() {
		if recovered := recover(); recovered != nil {
			r.logger.Error("command panicked",
				zap.String("command", cmd.name),
				zap.String("guild", inv.guildID),
				zap.Any("panic", recovered),
				zap.Stack("stack"),
			)
			r.react(inv, reactionUnknown)
			outcome = outcomePanic
		}
	}()

	if cmd.admin {
		admin, err := r.isAdmin(inv)
		if err != nil {
			return r.fail(inv, fmt.Errorf("check permissions: %w", err))
		}
		if !admin {
			return outcomeDenied
		}
	}

	err := cmd.run(ctx, inv)
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, errUsage):
		r.sendEmbed(inv, usageEmbed(inv.prefix, cmd.usage))
		return outcomeUsage
	case errors.Is(err, ports.ErrNotFound):
		r.sendEmbed(inv, notFoundEmbed())
		return outcomeNotFound
	default:
		return r.fail(inv, err)
	}
}

func (r *Router) fail(inv invocation, err error) string {
	r.logger.Error("command failed",
		zap.String("command", inv.command.name),
		zap.String("guild", inv.guildID),
		zap.String("channel", inv.channelID),
		zap.Error(err),
	)
	r.react(inv, reactionUnknown)
	return outcomeError
}

func (r *Router) isAdmin(inv invocation) (bool, error) {
	perms, err := r.session.UserChannelPermissions(inv.authorID, inv.channelID)
	if err != nil {
		return false, err
	}
	return perms&discordgo.PermissionAdministrator != 0, nil
}

func (r *Router) react(inv invocation, emoji string) {
	if err := r.session.MessageReactionAdd(inv.channelID, inv.messageID, emoji); err != nil {
		r.logger.Warn("add reaction", zap.String("message", inv.messageID), zap.Error(err))
	}
}

func (r *Router) send(inv invocation, content string) error {
	if _, err := r.session.ChannelMessageSend(inv.channelID, content); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (r *Router) sendEmbed(inv invocation, embed *discordgo.MessageEmbed) error {
	if _, err := r.session.ChannelMessageSendEmbed(inv.channelID, embed); err != nil {
		r.logger.Warn("send embed", zap.String("channel", inv.channelID), zap.Error(err))
		return fmt.Errorf("send embed: %w", err)
	}
	return nil
}

func (r *Router) observe(command, outcome string) {
	if r.observer != nil {
		r.observer.CommandHandled(command, outcome)
	}
}

func (r *Router) self() string {
	r.selfMu.RLock()
	defer r.selfMu.RUnlock()
	return r.selfID
}

func displayName(m *discordgo.Message) string {
	if m.Member != nil && strings.TrimSpace(m.Member.Nick) != "" {
		return m.Member.Nick
	}
	if strings.TrimSpace(m.Author.GlobalName) != "" {
		return m.Author.GlobalName
	}
	return m.Author.Username
}
