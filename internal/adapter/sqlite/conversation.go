package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/voyara/poimod/internal/domain"
)

// ConversationRepository implements domain.ConversationRepository using
// the same SQLite database as the POI repository.
type ConversationRepository struct {
	db *sql.DB
}

// NewConversationRepository wraps an already-migrated database connection.
func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// querier is the subset of *sql.DB and *sql.Tx the conversation
// statements need, so transitions can reuse them inside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *ConversationRepository) GetOrCreate(ctx context.Context, poiID string) (domain.Conversation, error) {
	return getOrCreateConversation(ctx, r.db, poiID)
}

func (r *ConversationRepository) GetByPOI(ctx context.Context, poiID string) (domain.Conversation, error) {
	return scanConversation(r.db.QueryRowContext(ctx,
		`SELECT id, poi_id, created_at FROM conversations WHERE poi_id = ?`, poiID,
	))
}

func (r *ConversationRepository) AppendMessage(ctx context.Context, msg domain.Message) error {
	return insertMessage(ctx, r.db, msg)
}

func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, conversation_id, sender_role, sender_id, message_type, content, created_at
		 FROM messages WHERE conversation_id = ?
		 ORDER BY created_at ASC, id ASC`, conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		var m domain.Message
		var role, msgType, createdAt string

		if err := rows.Scan(&m.ID, &m.ConversationID, &role, &m.SenderID, &msgType, &m.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}

		m.SenderRole = domain.Role(role)
		m.Type = domain.MessageType(msgType)
		m.CreatedAt = parseTime(createdAt)
		msgs = append(msgs, m)
	}

	return msgs, rows.Err()
}

// getOrCreateConversation enforces the 1:1 conversation-per-POI
// invariant through the UNIQUE constraint on poi_id: a concurrent loser
// falls through the no-op insert and reads the winner's row.
func getOrCreateConversation(ctx context.Context, q querier, poiID string) (domain.Conversation, error) {
	id, err := newID()
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("generating conversation id: %w", err)
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO conversations (id, poi_id, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (poi_id) DO NOTHING`,
		id, poiID, time.Now().UTC().Format(timeFormat),
	)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("creating conversation: %w", err)
	}

	return scanConversation(q.QueryRowContext(ctx,
		`SELECT id, poi_id, created_at FROM conversations WHERE poi_id = ?`, poiID,
	))
}

func insertMessage(ctx context.Context, q querier, m domain.Message) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, sender_role, sender_id, message_type, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ConversationID, string(m.SenderRole), m.SenderID, string(m.Type), m.Content,
		m.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return domain.ErrConversationNotFound
		}
		return fmt.Errorf("inserting message: %w", err)
	}
	return nil
}

func scanConversation(row *sql.Row) (domain.Conversation, error) {
	var c domain.Conversation
	var createdAt string

	err := row.Scan(&c.ID, &c.POIID, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Conversation{}, domain.ErrConversationNotFound
		}
		return domain.Conversation{}, fmt.Errorf("scanning conversation: %w", err)
	}

	c.CreatedAt = parseTime(createdAt)
	return c, nil
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeFormat, s)
	return t
}

// newID produces a random hex identifier for rows created inside the
// storage layer (conversations are minted here, not in the service).
func newID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	const hex = "0123456789abcdef"
	out := make([]byte, 32)
	for i, v := range b {
		out[i*2] = hex[v>>4]
		out[i*2+1] = hex[v&0x0f]
	}
	return string(out), nil
}
