package domain

import (
	"strings"
	"time"
)

// Mood is the aggregate emotional tone of a conversation.
type Mood string

const (
	MoodPositive Mood = "positive"
	MoodNegative Mood = "negative"
	MoodNeutral  Mood = "neutral"
	MoodMixed    Mood = "mixed"
)

// MaxContextMessages bounds the rolling message window per conversation.
const MaxContextMessages = 20

// ChatMessage is a single inbound message in a conversation.
type ChatMessage struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation holds the rolling per-conversation state. Instances are owned
// by the team's conversation store, which serializes all mutation per
// conversation ID; the methods below are NOT internally locked.
type Conversation struct {
	ID           string        `json:"id"`
	Messages     []ChatMessage `json:"messages"`
	Topic        string        `json:"topic"`
	Participants []string      `json:"participants"`
	Mood         Mood          `json:"mood"`
	Language     string        `json:"language"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// NewConversation creates an empty conversation with a neutral mood.
func NewConversation(id, language string) *Conversation {
	return &Conversation{
		ID:       id,
		Mood:     MoodNeutral,
		Language: language,
	}
}

// Append adds a message, evicting the oldest beyond MaxContextMessages.
func (c *Conversation) Append(msg ChatMessage) {
	c.Messages = append(c.Messages, msg)
	if len(c.Messages) > MaxContextMessages {
		c.Messages = c.Messages[len(c.Messages)-MaxContextMessages:]
	}
	c.UpdatedAt = msg.Timestamp
}

// AddParticipant records a sender if not already present.
func (c *Conversation) AddParticipant(sender string) {
	if sender == "" {
		return
	}
	for _, p := range c.Participants {
		if p == sender {
			return
		}
	}
	c.Participants = append(c.Participants, sender)
}

// SetTopicOnce derives the topic from the first significant words of text.
// It is a no-op when a topic is already set.
func (c *Conversation) SetTopicOnce(text string) {
	if c.Topic != "" {
		return
	}
	var words []string
	for _, w := range strings.Fields(text) {
		if len(w) > 4 {
			words = append(words, w)
			if len(words) == 3 {
				break
			}
		}
	}
	c.Topic = strings.Join(words, " ")
}

// LastMessage returns the text of the most recent message, or "".
func (c *Conversation) LastMessage() string {
	if len(c.Messages) == 0 {
		return ""
	}
	return c.Messages[len(c.Messages)-1].Text
}

// Clone returns a deep copy safe to read outside the store's lock.
func (c *Conversation) Clone() *Conversation {
	cp := *c
	cp.Messages = append([]ChatMessage(nil), c.Messages...)
	cp.Participants = append([]string(nil), c.Participants...)
	return &cp
}
