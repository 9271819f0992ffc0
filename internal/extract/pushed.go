package extract

import "timeline/internal/models"

// Pushed event kinds
const (
	EventMailReceived    = "mail_received"
	EventMessageReceived = "message_received"
)

// PushedRecords turns a pushed event payload into raw records shaped like the ones the
// import fetchers return, so the provider extractors can read them unchanged.
// Payloads that embed records under "messages" or an object "message" are unwrapped.
func PushedRecords(event string, payload models.RawRecord) []models.RawRecord {
	if embedded := list(payload["messages"]); len(embedded) > 0 {
		return objects(embedded)
	}
	if msg := object(payload["message"]); msg != nil {
		return []models.RawRecord{msg}
	}

	switch event {
	case EventMailReceived:
		record := make(models.RawRecord, len(payload)+1)
		for k, v := range payload {
			record[k] = v
		}
		if str(record["id"]) == "" {
			record["id"] = payload["email_id"]
		}
		return []models.RawRecord{record}
	case EventMessageReceived:
		return []models.RawRecord{pushedChatRecord(payload)}
	default:
		return nil
	}
}

// pushedChatRecord maps a flat message event, where "message" is the text and "sender"
// describes the author, onto a chat record with a one-attendee chat_info.
func pushedChatRecord(payload models.RawRecord) models.RawRecord {
	sender := object(payload["sender"])
	senderID := str(sender["attendee_provider_id"])
	if senderID == "" {
		senderID = str(sender["attendee_id"])
	}

	record := models.RawRecord{
		"id":        payload["message_id"],
		"text":      payload["message"],
		"chat_id":   payload["chat_id"],
		"timestamp": payload["timestamp"],
		"sender_id": senderID,
		"chat_info": map[string]any{
			"attendees": []any{map[string]any{"id": senderID, "name": sender["attendee_name"]}},
		},
	}
	if v, ok := payload["is_sender"]; ok {
		record["is_sender"] = v
	}
	if v, ok := payload["attachments"]; ok {
		record["attachments"] = v
	}
	return record
}

func objects(items []any) []models.RawRecord {
	out := make([]models.RawRecord, 0, len(items))
	for _, item := range items {
		if m := object(item); m != nil {
			out = append(out, m)
		}
	}
	return out
}
