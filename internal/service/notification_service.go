package service

import (
	"context"

	"github.com/fsdevblog/qat-souq/internal/domain"
	"github.com/fsdevblog/qat-souq/internal/repository/repoargs"
	"github.com/fsdevblog/qat-souq/pkg/uow"
)

// DefaultNotificationsLimit сколько уведомлений отдается за один запрос.
const DefaultNotificationsLimit uint = 50

type NotificationService struct {
	notificationRepo NotificationRepository
}

func NewNotificationService(u uow.UOW) (*NotificationService, error) {
	repo, repoErr := uow.GetRepositoryAs[NotificationRepository](u, uow.RepositoryName(repoargs.NotificationRepoName))
	if repoErr != nil {
		return nil, repoErr
	}
	return &NotificationService{notificationRepo: repo}, nil
}

func (s *NotificationService) List(ctx context.Context, accountID int64) ([]domain.Notification, error) {
	notifications, err := s.notificationRepo.GetByAccountID(ctx, accountID, DefaultNotificationsLimit)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return notifications, nil
}

// MarkRead помечает уведомление прочитанным. Чужое уведомление пометить нельзя:
// выборка ограничена accountID, для чужого id вернется domain.ErrRecordNotFound.
func (s *NotificationService) MarkRead(ctx context.Context, accountID, notificationID int64) error {
	return s.notificationRepo.MarkRead(ctx, accountID, notificationID) //nolint:wrapcheck
}
