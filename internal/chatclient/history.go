package chatclient

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HistorySource produces the durable history of a conversation,
// ascending by creation time
type HistorySource interface {
	Fetch(ctx context.Context, listingID int64) ([]Message, error)
}

// HistoryLoader fetches history from a primary source, falling back to
// a secondary read path when the primary is unreachable. Both failing
// degrades to an empty history: the conversation stays usable with
// zero messages rather than failing hard.
type HistoryLoader struct {
	Primary  HistorySource
	Fallback HistorySource // optional

	// Logf records fetch failures; defaults to log.Printf
	Logf func(format string, args ...interface{})
}

// Load never returns an error. Failures are logged and the result
// degrades to whatever source answered, or to no history at all.
func (l *HistoryLoader) Load(ctx context.Context, listingID int64) []Message {
	logf := l.Logf
	if logf == nil {
		logf = log.Printf
	}

	if l.Primary != nil {
		messages, err := l.Primary.Fetch(ctx, listingID)
		if err == nil {
			return messages
		}
		logf("chatclient: primary history fetch for listing %d failed: %v", listingID, err)
	}

	if l.Fallback != nil {
		messages, err := l.Fallback.Fetch(ctx, listingID)
		if err == nil {
			return messages
		}
		logf("chatclient: fallback history fetch for listing %d failed: %v", listingID, err)
	}

	return nil
}

// TableHistory reads conversation history straight from the messages
// table, bypassing the API. Used as the fallback read path when the
// API is unreachable but the database is not.
type TableHistory struct {
	Pool *pgxpool.Pool
}

// Fetch satisfies HistorySource with the same filter and order the API
// applies
func (t *TableHistory) Fetch(ctx context.Context, listingID int64) ([]Message, error) {
	rows, err := t.Pool.Query(ctx, `
		SELECT id, listing_id, sender_id, content, COALESCE(attachment_url, ''), created_at
		FROM messages
		WHERE listing_id = $1
		ORDER BY created_at ASC
	`, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ListingID, &m.SenderID, &m.Content,
			&m.AttachmentURL, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
