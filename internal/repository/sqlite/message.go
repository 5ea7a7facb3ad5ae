package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/homefax/homefax/pkg/models"
)

// EnsureThread returns the thread for a connection, creating it lazily
// on first use. The UNIQUE constraint on connection_id makes concurrent
// first-senders converge on one row.
func (r *SQLiteRepo) EnsureThread(ctx context.Context, connectionID int64) (*models.Thread, error) {
	ts := now()
	if _, err := r.conn.Exec(ctx,
		`INSERT INTO threads (connection_id, seed_tag, created, updated) VALUES (?, '', ?, ?) ON CONFLICT(connection_id) DO NOTHING`,
		connectionID, ts, ts); err != nil {
		return nil, err
	}

	row := r.conn.QueryRow(ctx, `SELECT id, connection_id, seed_tag, created, updated FROM threads WHERE connection_id = ?`, connectionID)
	var t models.Thread
	if err := row.Scan(&t.ID, &t.ConnectionID, &t.SeedTag, &t.Created, &t.Updated); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *SQLiteRepo) GetThreadByID(ctx context.Context, id int64) (*models.Thread, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, connection_id, seed_tag, created, updated FROM threads WHERE id = ?`, id)
	var t models.Thread
	if err := row.Scan(&t.ID, &t.ConnectionID, &t.SeedTag, &t.Created, &t.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}
	return &t, nil
}

func (r *SQLiteRepo) ListThreadsForUser(ctx context.Context, userID int64) ([]models.Thread, error) {
	rows, err := r.conn.QueryRows(ctx,
		`SELECT t.id, t.connection_id, t.seed_tag, t.created, t.updated
		 FROM threads t JOIN connections c ON c.id = t.connection_id
		 WHERE c.homeowner_id = ? OR c.contractor_id = ?
		 ORDER BY t.updated DESC`, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Thread
	for rows.Next() {
		var t models.Thread
		if err := rows.Scan(&t.ID, &t.ConnectionID, &t.SeedTag, &t.Created, &t.Updated); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) CreateMessage(ctx context.Context, m *models.Message) (int64, error) {
	if m == nil {
		return 0, fmt.Errorf("message is nil")
	}

	ts := now()
	res, err := r.conn.Exec(ctx,
		`INSERT INTO messages (thread_id, sender_id, body, seed_tag, created) VALUES (?, ?, ?, ?, ?)`,
		m.ThreadID, m.SenderID, m.Body, m.SeedTag, ts)
	if err != nil {
		return 0, err
	}

	// bump the thread so conversation lists sort by activity
	if _, err := r.conn.Exec(ctx, `UPDATE threads SET updated = ? WHERE id = ?`, ts, m.ThreadID); err != nil {
		r.logger.Warn("failed to bump thread", "thread_id", m.ThreadID, "err", err)
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) ListMessagesByThread(ctx context.Context, threadID int64, limit, offset int) ([]models.Message, error) {
	rows, err := r.conn.QueryRows(ctx,
		`SELECT id, thread_id, sender_id, body, seed_tag, created FROM messages WHERE thread_id = ? ORDER BY created DESC LIMIT ? OFFSET ?`,
		threadID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.SenderID, &m.Body, &m.SeedTag, &m.Created); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkThreadRead records a read marker for every message in the thread
// that the user has not read yet.
func (r *SQLiteRepo) MarkThreadRead(ctx context.Context, threadID, userID int64) error {
	_, err := r.conn.Exec(ctx,
		`INSERT INTO message_reads (message_id, user_id, read_at)
		 SELECT m.id, ?, ? FROM messages m
		 WHERE m.thread_id = ? AND m.sender_id != ?
		   AND NOT EXISTS (SELECT 1 FROM message_reads mr WHERE mr.message_id = m.id AND mr.user_id = ?)`,
		userID, now(), threadID, userID, userID)
	return err
}

func (r *SQLiteRepo) UnreadCount(ctx context.Context, threadID, userID int64) (int64, error) {
	var n int64
	row := r.conn.QueryRow(ctx,
		`SELECT COUNT(1) FROM messages m
		 WHERE m.thread_id = ? AND m.sender_id != ?
		   AND NOT EXISTS (SELECT 1 FROM message_reads mr WHERE mr.message_id = m.id AND mr.user_id = ?)`,
		threadID, userID, userID)
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
