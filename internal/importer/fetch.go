package importer

import (
	"context"
	"fmt"
	"time"

	"timeline/internal/extract"
	"timeline/internal/models"
)

func (s *Service) fetch(ctx context.Context, accountID string, kind models.Provider) ([]models.RawRecord, error) {
	switch kind {
	case models.ProviderMail:
		return s.source.ListMail(ctx, accountID, s.opts.MailLimit)
	case models.ProviderChat:
		return s.fetchChat(ctx, accountID)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, kind)
	}
}

// fetchChat lists threads page by page until the thread cap or the last page, then
// fetches each thread's messages tagged with chat_id and the thread as chat_info.
func (s *Service) fetchChat(ctx context.Context, accountID string) ([]models.RawRecord, error) {
	var threads []models.RawRecord
	cursor := ""
	for {
		page, err := s.source.ListThreads(ctx, accountID, cursor, s.opts.ThreadPageSize)
		if err != nil {
			return nil, err
		}
		if len(page.Items) == 0 {
			break
		}

		threads = append(threads, page.Items...)
		if (s.opts.ThreadCap > 0 && len(threads) >= s.opts.ThreadCap) || page.Cursor == "" {
			break
		}
		cursor = page.Cursor

		if err := sleep(ctx, s.opts.PageDelay); err != nil {
			return nil, err
		}
	}
	if s.opts.ThreadCap > 0 && len(threads) > s.opts.ThreadCap {
		threads = threads[:s.opts.ThreadCap]
	}

	var records []models.RawRecord
	for i, thread := range threads {
		threadID := extract.String(thread["id"])
		if threadID == "" {
			continue
		}
		if i > 0 {
			if err := sleep(ctx, s.opts.PageDelay); err != nil {
				return nil, err
			}
		}

		messages, err := s.source.ListThreadMessages(ctx, threadID, s.opts.MessagesPerThread)
		if err != nil {
			return nil, err
		}
		for _, msg := range messages {
			if msg == nil {
				continue
			}
			msg["chat_id"] = threadID
			msg["chat_info"] = map[string]any(thread)
			records = append(records, msg)
		}
	}
	return records, nil
}

// sleep is the courtesy delay between upstream calls
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
