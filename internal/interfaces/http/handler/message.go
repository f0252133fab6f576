package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/invoicer/backend/internal/application/inbox"
	inboxdomain "github.com/invoicer/backend/internal/domain/inbox"
	"github.com/invoicer/backend/internal/infrastructure/metrics"
)

// MessageHandler accepts public contact messages
type MessageHandler struct {
	BaseHandler
	inbox   *inbox.Service
	metrics *metrics.Registry
}

// NewMessageHandler creates a new message handler. registry may be nil.
func NewMessageHandler(service *inbox.Service, registry *metrics.Registry) *MessageHandler {
	return &MessageHandler{inbox: service, metrics: registry}
}

// Submit godoc
// @Summary      Send a message to a team
// @Tags         messages
// @Accept       json
// @Produce      json
// @Param        request body inboxdomain.MessageInput true "Message"
// @Success      201 {object} dto.Response{data=inboxdomain.Message}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /messages [put]
func (h *MessageHandler) Submit(c *gin.Context) {
	var in inboxdomain.MessageInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.HandleBindError(c, err)
		return
	}

	msg, err := h.inbox.Submit(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.MessageReceived()
	}
	h.Created(c, msg)
}
