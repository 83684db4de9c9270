package handler

import (
	"time"

	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/changefeed"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/dto"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/hub"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/model"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/pkg/logger"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/pkg/serverutils"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/service"
	internalWS "github.com/Ahmed-S-Salim/greenofig-sub002/internal/websocket"
	"github.com/Ahmed-S-Salim/greenofig-sub002/pkg/events"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type NotificationHandler struct {
	service   *service.NotificationService
	publisher changefeed.Publisher
	wsHub     *internalWS.Hub
	validate  *validator.Validate
	logger    logger.ILogger
}

func NewNotificationHandler(svc *service.NotificationService, publisher changefeed.Publisher, wsHub *internalWS.Hub, log logger.ILogger) *NotificationHandler {
	return &NotificationHandler{
		service:   svc,
		publisher: publisher,
		wsHub:     wsHub,
		validate:  validator.New(),
		logger:    log,
	}
}

// ServeWs authenticates the handshake and binds the connection to the
// principal's notification hub for as long as it lives.
func (h *NotificationHandler) ServeWs(c *fiber.Ctx) error {
	// Browsers can't set headers on websocket dials, so the token rides a
	// query param; tooling may still use the Authorization header.
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token (Query 'token' or Header 'Authorization')"})
	}

	claims, err := serverutils.ParseClaims(tokenStr)
	if err != nil {
		h.logger.Warn("NotificationHandler", "Invalid token in WS handshake", map[string]interface{}{"error": err.Error()})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token missing user_id"})
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID format in token"})
	}

	role, _ := claims["role"].(string)
	principal := model.Principal{ID: userID, Role: model.Role(role)}
	if principal.Role == "" {
		principal.Role = model.RoleUser
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	userCtx := c.UserContext()
	return websocket.New(func(conn *websocket.Conn) {
		if _, err := h.service.Attach(userCtx, principal); err != nil {
			h.logger.Error("NotificationHandler", "Failed to start hub for principal", map[string]interface{}{
				"user_id": principal.ID,
				"error":   err.Error(),
			})
			conn.Close()
			return
		}
		defer h.service.Detach(principal.ID)

		internalWS.ServeWs(h.wsHub, conn, principal.ID, h.logger)
	})(c)
}

// GetNotifications returns the user's notification history.
func (h *NotificationHandler) GetNotifications(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	limit := c.QueryInt("limit", 20)
	if limit <= 0 {
		limit = 20
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	notifications, total, err := h.service.GetNotifications(c.UserContext(), userID, limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"data":  notifications,
		"total": total,
		"page":  offset/limit + 1,
		"limit": limit,
	})
}

// GetUnreadCount returns the authoritative unread total.
func (h *NotificationHandler) GetUnreadCount(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	count, err := h.service.CountUnread(c.UserContext(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"count": count})
}

// Reconcile forces an unread recount and badge resync.
func (h *NotificationHandler) Reconcile(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	count, err := h.service.Reconcile(c.UserContext(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"count": count})
}

// MarkAsRead marks a specific notification as read.
func (h *NotificationHandler) MarkAsRead(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid ID"})
	}

	if err := h.service.MarkAsRead(c.UserContext(), userID, id); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true})
}

// MarkAllAsRead marks all of the user's notifications as read.
func (h *NotificationHandler) MarkAllAsRead(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	if err := h.service.MarkAllAsRead(c.UserContext(), userID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true})
}

// Broadcast pushes an ephemeral system toast to every connected client.
// Not persisted per user: broadcast is push-only, nobody gets millions of
// inbox rows out of a product announcement.
func (h *NotificationHandler) Broadcast(c *fiber.Ctx) error {
	role, _ := c.Locals("role").(string)
	if !model.Role(role).IsStaff() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Staff only"})
	}

	var req dto.BroadcastRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	h.wsHub.BroadcastToast(hub.Event{
		Title:       req.Title,
		Description: req.Message,
		Category:    model.CategoryGeneral,
		URL:         hub.ResolveURL(model.CategoryGeneral),
		At:          time.Now(),
	}, hub.ToastDuration)

	return c.JSON(fiber.Map{"status": "Broadcast Sent"})
}

// TriggerChange publishes a synthetic change-feed event to exercise the full
// path end to end. Dev tooling; keep behind auth.
func (h *NotificationHandler) TriggerChange(c *fiber.Ctx) error {
	var req dto.TriggerChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if h.publisher == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Change-feed publisher not configured"})
	}

	ev := events.ChangeEvent{
		Kind:       events.Kind(req.Kind),
		Table:      req.Table,
		Channel:    req.Channel,
		Event:      req.Event,
		Old:        req.Old,
		New:        req.New,
		Payload:    req.Payload,
		OccurredAt: time.Now(),
	}

	var err error
	if ev.Kind == events.KindBroadcast || ev.Channel != "" {
		err = h.publisher.PublishBroadcast(c.UserContext(), ev)
	} else {
		err = h.publisher.PublishChange(c.UserContext(), ev)
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"status": "Event Published", "event": ev})
}

// RegisterRoutes registers the notification routes.
func (h *NotificationHandler) RegisterRoutes(router fiber.Router) {
	notif := router.Group("/notifications")
	notif.Use(serverutils.JwtMiddleware)
	notif.Get("/", h.GetNotifications)
	notif.Get("/unread-count", h.GetUnreadCount)
	notif.Post("/reconcile", h.Reconcile)
	notif.Patch("/:id/read", h.MarkAsRead)
	notif.Patch("/read-all", h.MarkAllAsRead)
	notif.Post("/broadcast", h.Broadcast)

	debug := router.Group("/debug")
	debug.Use(serverutils.JwtMiddleware)
	debug.Post("/trigger-change", h.TriggerChange)

	// WebSocket
	router.Get("/ws", h.ServeWs)
}

func currentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	userIDStr, ok := c.Locals("user_id").(string)
	if !ok {
		if uid, ok := c.Locals("user_id").(uuid.UUID); ok {
			return uid, nil
		}
		return uuid.Nil, fiber.ErrUnauthorized
	}
	return uuid.Parse(userIDStr)
}
