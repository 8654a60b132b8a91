package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/saransh1220/notify-relay/internal/modules/notification/domain"
)

const notificationColumns = `id, type, title, content, related_id, related_type, sender_id, receiver_id, is_read, metadata, created_at`

type PgNotificationRepository struct {
	db *sqlx.DB
}

func NewPgNotificationRepository(db *sqlx.DB) *PgNotificationRepository {
	return &PgNotificationRepository{db: db}
}

func (r *PgNotificationRepository) Create(ctx context.Context, n *domain.Record) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO user_notifications (` + notificationColumns + `)
		VALUES (:id, :type, :title, :content, :related_id, :related_type, :sender_id, :receiver_id, :is_read, :metadata, :created_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, n)
	return err
}

func (r *PgNotificationRepository) GetByID(ctx context.Context, id, receiverID string) (*domain.Record, error) {
	query := `
		SELECT ` + notificationColumns + ` FROM user_notifications
		WHERE id = $1 AND receiver_id = $2
	`
	var rec domain.Record
	if err := r.db.GetContext(ctx, &rec, query, id, receiverID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotificationNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (r *PgNotificationRepository) ListByReceiver(ctx context.Context, receiverID string, filter domain.Filter) ([]domain.Record, error) {
	var (
		where = []string{"receiver_id = $1"}
		args  = []interface{}{receiverID}
	)
	if filter.Type != "" {
		args = append(args, filter.Type)
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.IsRead != nil {
		args = append(args, *filter.IsRead)
		where = append(where, fmt.Sprintf("is_read = $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, filter.Offset)

	query := fmt.Sprintf(`
		SELECT %s FROM user_notifications
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, notificationColumns, strings.Join(where, " AND "), len(args)-1, len(args))

	var notifications []domain.Record
	err := r.db.SelectContext(ctx, &notifications, query, args...)
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *PgNotificationRepository) MarkAsRead(ctx context.Context, id, receiverID string) error {
	query := `
		UPDATE user_notifications
		SET is_read = TRUE
		WHERE id = $1 AND receiver_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, receiverID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

// MarkAllAsRead marks every unread notification of the receiver and returns the ids it touched.
func (r *PgNotificationRepository) MarkAllAsRead(ctx context.Context, receiverID string) ([]string, error) {
	query := `
		UPDATE user_notifications
		SET is_read = TRUE
		WHERE receiver_id = $1 AND is_read = FALSE
		RETURNING id
	`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, receiverID); err != nil {
		return nil, err
	}
	return ids, nil
}

// MarkRoomMessagesAsRead marks every unread message notification of a chat room and returns the ids it touched.
func (r *PgNotificationRepository) MarkRoomMessagesAsRead(ctx context.Context, receiverID, roomID string) ([]string, error) {
	query := `
		UPDATE user_notifications
		SET is_read = TRUE
		WHERE receiver_id = $1 AND type = 'message' AND is_read = FALSE AND related_id = $2
		RETURNING id
	`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, receiverID, roomID); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *PgNotificationRepository) UnreadCount(ctx context.Context, receiverID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM user_notifications
		WHERE receiver_id = $1 AND is_read = FALSE
	`
	var count int
	err := r.db.GetContext(ctx, &count, query, receiverID)
	return count, err
}
