package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/anicord/internal/pagination"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const intents = discordgo.IntentGuilds |
	discordgo.IntentGuildMembers |
	discordgo.IntentGuildMessages |
	discordgo.IntentGuildMessageReactions |
	discordgo.IntentMessageContent

var ErrEmptyToken = errors.New("discord token is empty")

// NewSession creates a gateway session for a bot token with the intents the
// router needs.
func NewSession(token string) (*discordgo.Session, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = intents
	return session, nil
}

// Bot connects a Router to a live gateway session.
type Bot struct {
	session *discordgo.Session
	router  *Router
	pages   *pagination.Registry
	logger  *zap.Logger
}

func NewBot(session *discordgo.Session, router *Router, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{session: session, router: router, pages: router.pages, logger: logger}
}

// Run opens the gateway connection and serves events until ctx is done.
// Every handler receives ctx so in-flight commands stop on shutdown.
func (b *Bot) Run(ctx context.Context) error {
	removers := []func(){
		b.session.AddHandler(func(_ *discordgo.Session, ready *discordgo.Ready) {
			b.router.HandleReady(ready)
		}),
		b.session.AddHandler(func(_ *discordgo.Session, message *discordgo.MessageCreate) {
			b.router.HandleMessage(ctx, message)
		}),
		b.session.AddHandler(func(_ *discordgo.Session, reaction *discordgo.MessageReactionAdd) {
			b.router.HandleReaction(ctx, reaction)
		}),
		b.session.AddHandler(func(_ *discordgo.Session, member *discordgo.GuildMemberRemove) {
			b.router.HandleMemberRemove(ctx, member)
		}),
	}
	defer func() {
		for _, remove := range removers {
			remove()
		}
	}()

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	b.logger.Info("bot running")

	<-ctx.Done()

	b.pages.Close()
	if err := b.session.Close(); err != nil {
		return fmt.Errorf("close discord gateway: %w", err)
	}
	b.logger.Info("bot stopped")
	return nil
}
