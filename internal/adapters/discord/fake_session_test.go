package discord

import (
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

type sentMessage struct {
	channelID string
	messageID string
	content   string
	embed     *discordgo.MessageEmbed
}

type reactionCall struct {
	channelID string
	messageID string
	emoji     string
	userID    string
}

// fakeSession records every call the router makes against Discord.
type fakeSession struct {
	mu          sync.Mutex
	nextID      int
	sent        []sentMessage
	edits       []sentMessage
	added       []reactionCall
	removed     []reactionCall
	permissions int64
	channels    []*discordgo.Channel
	sendErr     error
}

var _ Session = (*fakeSession)(nil)

func (f *fakeSession) ChannelMessageSend(channelID string, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	return f.record(channelID, content, nil)
}

func (f *fakeSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	return f.record(channelID, "", embed)
}

func (f *fakeSession) ChannelMessageEdit(channelID, messageID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, sentMessage{channelID: channelID, messageID: messageID, content: content})
	return &discordgo.Message{ID: messageID, ChannelID: channelID, Content: content}, nil
}

func (f *fakeSession) ChannelMessageEditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, sentMessage{channelID: channelID, messageID: messageID, embed: embed})
	return &discordgo.Message{ID: messageID, ChannelID: channelID}, nil
}

func (f *fakeSession) MessageReactionAdd(channelID, messageID, emojiID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, reactionCall{channelID: channelID, messageID: messageID, emoji: emojiID})
	return nil
}

func (f *fakeSession) MessageReactionRemove(channelID, messageID, emojiID, userID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, reactionCall{channelID: channelID, messageID: messageID, emoji: emojiID, userID: userID})
	return nil
}

func (f *fakeSession) UserChannelPermissions(_, _ string, _ ...discordgo.RequestOption) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.permissions, nil
}

func (f *fakeSession) GuildChannels(_ string, _ ...discordgo.RequestOption) ([]*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.channels, nil
}

func (f *fakeSession) HeartbeatLatency() time.Duration {
	return 42 * time.Millisecond
}

func (f *fakeSession) record(channelID, content string, embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendErr != nil {
		return nil, f.sendErr
	}

	f.nextID++
	id := fmt.Sprintf("sent-%d", f.nextID)
	f.sent = append(f.sent, sentMessage{channelID: channelID, messageID: id, content: content, embed: embed})
	return &discordgo.Message{ID: id, ChannelID: channelID, Content: content}, nil
}

func (f *fakeSession) sentMessages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func (f *fakeSession) editedMessages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.edits...)
}

func (f *fakeSession) addedReactions() []reactionCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]reactionCall(nil), f.added...)
}

func (f *fakeSession) removedReactions() []reactionCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]reactionCall(nil), f.removed...)
}

func (f *fakeSession) lastEmbed() *discordgo.MessageEmbed {
	sent := f.sentMessages()
	for i := len(sent) - 1; i >= 0; i-- {
		if sent[i].embed != nil {
			return sent[i].embed
		}
	}
	return nil
}
