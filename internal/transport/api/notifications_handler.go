package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fsdevblog/qat-souq/internal/domain"
)

type NotificationsHandler struct {
	svs NotificationServicer
}

func NewNotificationsHandler(svs NotificationServicer) *NotificationsHandler {
	return &NotificationsHandler{
		svs: svs,
	}
}

type NotificationResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Kind      string    `json:"kind"`
	RelatedID *int64    `json:"related_id,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Index GET RouteGroup + NotificationsRoute.
func (h *NotificationsHandler) Index(c *gin.Context) {
	currentAccountID := getAccountIDFromContext(c)

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	notifications, err := h.svs.List(reqCtx, currentAccountID)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	response := make([]NotificationResponse, len(notifications))
	for i, notification := range notifications {
		response[i] = NotificationResponse{
			ID:        notification.ID,
			Title:     notification.Title,
			Message:   notification.Message,
			Kind:      notification.Kind,
			RelatedID: notification.RelatedID,
			Read:      notification.Read,
			CreatedAt: notification.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, response)
}

// MarkRead POST RouteGroup + NotificationReadRoute. Чужое уведомление пометить
// нельзя - вернется 404.
func (h *NotificationsHandler) MarkRead(c *gin.Context) {
	currentAccountID := getAccountIDFromContext(c)

	notificationID, parseErr := strconv.ParseInt(c.Param("id"), 10, 64)
	if parseErr != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	if err := h.svs.MarkRead(reqCtx, currentAccountID, notificationID); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	c.AbortWithStatus(http.StatusOK)
}
