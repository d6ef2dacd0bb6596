package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/bnema/anicord/internal/pagination"
	"github.com/bwmarrin/discordgo"
)

const (
	emojiPrevious = "◀️"
	emojiNext     = "▶️"
)

// pageFormat turns a page into message content, an embed, or both.
type pageFormat func(page pagination.Page) (string, *discordgo.MessageEmbed)

// messageRenderer writes page 0 as a new message with navigation reactions
// and edits that message for every later page.
type messageRenderer struct {
	session   Session
	channelID string
	format    pageFormat

	mu        sync.Mutex
	messageID string
}

var _ pagination.MessageRenderer = (*messageRenderer)(nil)

func newMessageRenderer(session Session, channelID string, format pageFormat) *messageRenderer {
	return &messageRenderer{session: session, channelID: channelID, format: format}
}

func (r *messageRenderer) MessageID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.messageID
}

func (r *messageRenderer) Render(ctx context.Context, page pagination.Page) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	content, embed := r.format(page)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.messageID == "" {
		message, err := r.send(content, embed)
		if err != nil {
			return err
		}
		r.messageID = message.ID

		for _, emoji := range []string{emojiPrevious, emojiNext} {
			if err := r.session.MessageReactionAdd(r.channelID, message.ID, emoji); err != nil {
				return fmt.Errorf("add navigation reaction: %w", err)
			}
		}
		return nil
	}

	if embed != nil {
		if _, err := r.session.ChannelMessageEditEmbed(r.channelID, r.messageID, embed); err != nil {
			return fmt.Errorf("edit page embed: %w", err)
		}
		return nil
	}
	if _, err := r.session.ChannelMessageEdit(r.channelID, r.messageID, content); err != nil {
		return fmt.Errorf("edit page message: %w", err)
	}
	return nil
}

func (r *messageRenderer) send(content string, embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	if embed != nil {
		message, err := r.session.ChannelMessageSendEmbed(r.channelID, embed)
		if err != nil {
			return nil, fmt.Errorf("send page embed: %w", err)
		}
		return message, nil
	}

	message, err := r.session.ChannelMessageSend(r.channelID, content)
	if err != nil {
		return nil, fmt.Errorf("send page message: %w", err)
	}
	return message, nil
}

func actionForEmoji(name string) (pagination.Action, bool) {
	switch name {
	case emojiPrevious:
		return pagination.ActionPrevious, true
	case emojiNext:
		return pagination.ActionNext, true
	default:
		return 0, false
	}
}
