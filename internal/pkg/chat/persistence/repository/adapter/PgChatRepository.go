package adapter

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	chat "github.com/yasirimran733/campus-connect/internal/pkg/chat/application/domain"
)

type PgChatRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

func (r *PgChatRepository) FindOrCreateDirect(ctx context.Context, userA, userB string) (*chat.Conversation, bool, error) {
	return r.findOrCreate(ctx, nil, userA, userB)
}

func (r *PgChatRepository) FindOrCreateForItem(ctx context.Context, itemID, userA, userB string) (*chat.Conversation, bool, error) {
	if itemID == "" {
		return nil, false, errors.New("PgChatRepository: item id is required")
	}
	return r.findOrCreate(ctx, &itemID, userA, userB)
}

// findOrCreate runs lookup and insert inside one transaction holding an
// advisory lock keyed on the (sorted pair, item) tuple, so two concurrent
// calls for the same key serialize instead of both inserting. A caller on a
// different node racing past the lock still only produces a duplicate the
// maintenance merge cleans up later.
func (r *PgChatRepository) findOrCreate(ctx context.Context, itemID *string, userA, userB string) (*chat.Conversation, bool, error) {
	if r == nil || r.pool == nil {
		return nil, false, errors.New("PgChatRepository: nil pool")
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		"SELECT pg_advisory_xact_lock(hashtextextended($1, 0))",
		pairKey(itemID, userA, userB),
	); err != nil {
		return nil, false, err
	}

	conv, err := scanConversation(tx.QueryRow(ctx, `
		SELECT c.id::text, c.item_id::text, c.created_at, c.updated_at, c.last_message_at,
		       ARRAY(SELECT p.user_id::text FROM chat.participant p WHERE p.conversation_id = c.id ORDER BY p.user_id)
		FROM chat.conversation c
		WHERE c.item_id IS NOT DISTINCT FROM $1::uuid
		  AND EXISTS (SELECT 1 FROM chat.participant p WHERE p.conversation_id = c.id AND p.user_id = $2::uuid)
		  AND EXISTS (SELECT 1 FROM chat.participant p WHERE p.conversation_id = c.id AND p.user_id = $3::uuid)
		ORDER BY c.created_at, c.id
		LIMIT 1
	`, itemID, userA, userB))
	if err == nil {
		if err := tx.Commit(ctx); err != nil {
			return nil, false, err
		}
		return conv, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	conv = &chat.Conversation{ItemID: itemID}
	err = tx.QueryRow(ctx, `
		INSERT INTO chat.conversation (item_id)
		VALUES ($1::uuid)
		RETURNING id::text, created_at, updated_at
	`, itemID).Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return nil, false, err
	}

	for _, uid := range []string{userA, userB} {
		if _, err := tx.Exec(ctx, `
			INSERT INTO chat.participant (conversation_id, user_id)
			VALUES ($1::uuid, $2::uuid)
			ON CONFLICT (conversation_id, user_id) DO NOTHING
		`, conv.ID, uid); err != nil {
			return nil, false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}

	conv.ParticipantIDs = []string{userA, userB}
	return conv, true, nil
}

func (r *PgChatRepository) GetConversation(ctx context.Context, id string) (*chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	conv, err := scanConversation(r.pool.QueryRow(ctx, `
		SELECT c.id::text, c.item_id::text, c.created_at, c.updated_at, c.last_message_at,
		       ARRAY(SELECT p.user_id::text FROM chat.participant p WHERE p.conversation_id = c.id ORDER BY p.user_id)
		FROM chat.conversation c
		WHERE c.id = $1::uuid
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, chat.ErrConversationNotFound
	}
	return conv, err
}

func (r *PgChatRepository) ListConversations(ctx context.Context, userID string) ([]chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT c.id::text, c.item_id::text, c.created_at, c.updated_at, c.last_message_at,
		       ARRAY(SELECT p.user_id::text FROM chat.participant p WHERE p.conversation_id = c.id ORDER BY p.user_id)
		FROM chat.conversation c
		WHERE EXISTS (SELECT 1 FROM chat.participant p WHERE p.conversation_id = c.id AND p.user_id = $1::uuid)
		ORDER BY c.last_message_at DESC NULLS LAST, c.updated_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []chat.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, *conv)
	}
	return convs, rows.Err()
}

func (r *PgChatRepository) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	if r == nil || r.pool == nil {
		return false, errors.New("PgChatRepository: nil pool")
	}
	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM chat.participant
			WHERE conversation_id = $1::uuid AND user_id = $2::uuid
		)
	`, conversationID, userID).Scan(&ok)
	return ok, err
}

func (r *PgChatRepository) ListParticipantIDs(ctx context.Context, conversationID string) ([]string, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT user_id::text FROM chat.participant
		WHERE conversation_id = $1::uuid
		ORDER BY user_id
	`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SaveMessage is a single INSERT: either the row exists with id and timestamp
// assigned, or nothing was written.
func (r *PgChatRepository) SaveMessage(ctx context.Context, m *chat.Message) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO chat.message (conversation_id, sender_id, content)
		VALUES ($1::uuid, $2::uuid, $3)
		RETURNING id, created_at
	`, m.ConversationID, m.SenderID, m.Content).Scan(&m.ID, &m.CreatedAt)
}

func (r *PgChatRepository) GetMessagesByConversation(ctx context.Context, conversationID string, limit, offset int) ([]chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, conversation_id::text, sender_id::text, content, created_at, is_read
		FROM chat.message
		WHERE conversation_id = $1::uuid
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3
	`, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		var msg chat.Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Content, &msg.CreatedAt, &msg.IsRead); err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

func (r *PgChatRepository) MarkMessagesRead(ctx context.Context, conversationID, readerID string) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgChatRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE chat.message
		SET is_read = TRUE
		WHERE conversation_id = $1::uuid AND sender_id <> $2::uuid AND NOT is_read
	`, conversationID, readerID)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

func (r *PgChatRepository) Touch(ctx context.Context, conversationID string, at time.Time) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE chat.conversation
		SET last_message_at = $2, updated_at = $2
		WHERE id = $1::uuid
	`, conversationID, at)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return chat.ErrConversationNotFound
	}
	return nil
}

// MergeDuplicateConversations repairs the rare duplicate a cross-node create
// race can leave behind: for each (participant pair, item) key the oldest
// conversation wins, messages move over, the rest are deleted.
func (r *PgChatRepository) MergeDuplicateConversations(ctx context.Context) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgChatRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		WITH keyed AS (
			SELECT c.id, c.created_at, c.item_id,
			       (SELECT string_agg(p.user_id::text, ',' ORDER BY p.user_id)
			        FROM chat.participant p WHERE p.conversation_id = c.id) AS pair_key
			FROM chat.conversation c
		), ranked AS (
			SELECT id,
			       first_value(id) OVER (PARTITION BY pair_key, item_id ORDER BY created_at, id) AS keeper
			FROM keyed
		), dups AS (
			SELECT id, keeper FROM ranked WHERE id <> keeper
		), moved AS (
			UPDATE chat.message m
			SET conversation_id = d.keeper
			FROM dups d
			WHERE m.conversation_id = d.id
			RETURNING m.id
		)
		DELETE FROM chat.conversation c
		USING dups d
		WHERE c.id = d.id
	`)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

// pairKey builds the advisory-lock key: sorted pair plus item scope.
func pairKey(itemID *string, userA, userB string) string {
	ids := []string{userA, userB}
	sort.Strings(ids)
	key := "chat:" + strings.Join(ids, ":")
	if itemID != nil {
		key += ":item:" + *itemID
	}
	return key
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*chat.Conversation, error) {
	var conv chat.Conversation
	if err := row.Scan(&conv.ID, &conv.ItemID, &conv.CreatedAt, &conv.UpdatedAt, &conv.LastMessageAt, &conv.ParticipantIDs); err != nil {
		return nil, err
	}
	return &conv, nil
}
