package pgrepo

import (
	"context"

	"github.com/fsdevblog/qat-souq/internal/domain"
	"github.com/fsdevblog/qat-souq/internal/repository/repoargs"
	"github.com/fsdevblog/qat-souq/pkg/uow"
)

type NotificationRepository struct {
	conn uow.DBTX
}

func NewNotificationRepository(conn uow.DBTX) *NotificationRepository {
	return &NotificationRepository{conn: conn}
}

func (n *NotificationRepository) Create(
	ctx context.Context,
	args repoargs.CreateNotification,
) (*domain.Notification, error) {
	row := n.conn.QueryRow(ctx, `
		INSERT INTO notifications (account_id, title, message, kind, related_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, account_id, title, message, kind, related_id, read`,
		args.AccountID, args.Title, args.Message, args.Kind, args.RelatedID)

	notification, err := scanNotification(row)
	if err != nil {
		return nil, convertErr(err, "creating notification for account `%d`", args.AccountID)
	}
	return notification, nil
}

// GetByAccountID возвращает последние limit уведомлений по убыванию даты создания.
func (n *NotificationRepository) GetByAccountID(
	ctx context.Context,
	accountID int64,
	limit uint,
) ([]domain.Notification, error) {
	rows, err := n.conn.Query(ctx, `
		SELECT id, created_at, account_id, title, message, kind, related_id, read
		FROM notifications
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, accountID, int64(limit))
	if err != nil {
		return nil, convertErr(err, "getting notifications of account `%d`", accountID)
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		notification, scanErr := scanNotification(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "getting notifications of account `%d`", accountID)
		}
		notifications = append(notifications, *notification)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "getting notifications of account `%d`", accountID)
	}
	return notifications, nil
}

// MarkRead помечает уведомление прочитанным. Чужие уведомления недоступны:
// условие по account_id входит в запрос.
func (n *NotificationRepository) MarkRead(ctx context.Context, accountID, notificationID int64) error {
	tag, err := n.conn.Exec(ctx, `
		UPDATE notifications SET read = TRUE
		WHERE id = $1 AND account_id = $2`, notificationID, accountID)
	if err != nil {
		return convertErr(err, "marking notification `%d` as read", notificationID)
	}
	if tag.RowsAffected() == 0 {
		return convertErr(errNoRowsAffected, "marking notification `%d` as read", notificationID)
	}
	return nil
}

func scanNotification(row rowScanner) (*domain.Notification, error) {
	var m domain.Notification
	err := row.Scan(&m.ID, &m.CreatedAt, &m.AccountID, &m.Title, &m.Message, &m.Kind, &m.RelatedID, &m.Read)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
