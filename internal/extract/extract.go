// Package extract turns provider-native message payloads into one normalized shape.
package extract

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"timeline/internal/models"
)

// ErrUnsupportedProvider is returned for providers without an extractor
var ErrUnsupportedProvider = errors.New("unsupported provider")

// DefaultBodyLimit is the number of characters kept from a mail body
const DefaultBodyLimit = 1000

// Message is the normalized result of one raw record
type Message struct {
	Channel    models.Channel
	Sender     string
	Recipient  string
	Subject    string
	Content    string
	Timestamp  string
	ExternalID string
	ThreadID   string
}

// Extractor normalizes one raw record. ok is false when the record must be dropped.
type Extractor interface {
	Extract(raw models.RawRecord) (msg Message, ok bool)
}

// Options tune extraction
type Options struct {
	BodyLimit int
	Now       func() time.Time
}

func (o Options) withDefaults() Options {
	if o.BodyLimit <= 0 {
		o.BodyLimit = DefaultBodyLimit
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// For returns the extractor for a provider family
func For(p models.Provider, opts Options) (Extractor, error) {
	opts = opts.withDefaults()
	switch p {
	case models.ProviderMail:
		return &MailExtractor{opts: opts}, nil
	case models.ProviderChat:
		return &ChatExtractor{opts: opts}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, p)
	}
}

// MailExtractor handles email-style records
type MailExtractor struct {
	opts Options
}

// NewMailExtractor creates a mail extractor
func NewMailExtractor(opts Options) *MailExtractor {
	return &MailExtractor{opts: opts.withDefaults()}
}

// Extract drops records whose sender is empty or not an email address
func (e *MailExtractor) Extract(raw models.RawRecord) (Message, bool) {
	sender := strings.TrimSpace(str(object(raw["from_attendee"])["identifier"]))
	if sender == "" || !strings.Contains(sender, "@") {
		return Message{}, false
	}

	var recipient string
	if to := list(raw["to_attendees"]); len(to) > 0 {
		if s, ok := to[0].(string); ok {
			recipient = s
		} else {
			recipient = str(object(to[0])["identifier"])
		}
	}

	content := firstString(raw, "body_plain", "body")

	return Message{
		Channel:    models.ChannelEmail,
		Sender:     sender,
		Recipient:  recipient,
		Subject:    str(raw["subject"]),
		Content:    truncate(content, e.opts.BodyLimit),
		Timestamp:  timestamp(raw, e.opts.Now),
		ExternalID: str(raw["id"]),
		ThreadID:   str(raw["thread_id"]),
	}, true
}

// Chat record fields tried in order for the message text
var chatContentFields = []string{"text", "subject", "body", "content", "message", "summary"}

const (
	selfName        = "You"
	chatContactName = "LinkedIn Contact"
	attachmentText  = "[Attachment]"
)

// ChatExtractor handles professional-network chat records. Records are expected to carry
// chat_id and chat_info as tagged by the chat fetcher.
type ChatExtractor struct {
	opts Options
}

// NewChatExtractor creates a chat extractor
func NewChatExtractor(opts Options) *ChatExtractor {
	return &ChatExtractor{opts: opts.withDefaults()}
}

// Extract drops records whose content is blank
func (e *ChatExtractor) Extract(raw models.RawRecord) (Message, bool) {
	content := chatContent(raw)
	if content == "" {
		return Message{}, false
	}

	sender := chatSender(raw)
	recipient := selfName
	if sender == selfName {
		recipient = chatContactName
	}

	return Message{
		Channel:    models.ChannelLinkedIn,
		Sender:     sender,
		Recipient:  recipient,
		Subject:    str(raw["subject"]),
		Content:    content,
		Timestamp:  timestamp(raw, e.opts.Now),
		ExternalID: str(raw["id"]),
		ThreadID:   str(raw["chat_id"]),
	}, true
}

func chatContent(raw models.RawRecord) string {
	if s := firstString(raw, chatContentFields...); s != "" {
		return strings.TrimSpace(s)
	}
	if truthy(raw["attachments"]) {
		return attachmentText
	}
	return ""
}

func chatSender(raw models.RawRecord) string {
	if isOne(raw["is_sender"]) {
		return selfName
	}

	senderID := str(raw["sender_id"])
	for _, a := range list(object(raw["chat_info"])["attendees"]) {
		attendee := object(a)
		// a missing sender id never matches an attendee without one
		if attendee == nil || senderID == "" || str(attendee["id"]) != senderID {
			continue
		}
		if name := firstString(attendee, "name", "displayName"); name != "" {
			return strings.TrimSpace(name)
		}
		break
	}

	return fmt.Sprintf("%s (%s)", chatContactName, lastRunes(senderID, 6))
}
