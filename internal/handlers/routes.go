// Package handlers exposes the chat and notification REST endpoints and the
// websocket endpoint on fiber.
package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/hanish78780/skillbridge-chat/internal/auth"
	"github.com/hanish78780/skillbridge-chat/internal/chat"
	"github.com/hanish78780/skillbridge-chat/internal/models"
	"github.com/hanish78780/skillbridge-chat/internal/notify"
	"github.com/hanish78780/skillbridge-chat/internal/store"
)

type Uploads struct {
	Dir      string
	Prefix   string
	MaxFiles int
}

type Deps struct {
	Store              *store.Store
	Directory          store.Directory
	Gateway            *chat.Gateway
	Dispatcher         *notify.Dispatcher // built from Store and Gateway when nil
	Verifier           *auth.Verifier
	Uploads            Uploads
	NotificationsLimit int
	AllowedOrigins     string
	// BaseContext bounds every websocket session; cancelling it stops
	// persistence work of open connections.
	BaseContext context.Context
}

type Handlers struct {
	store              *store.Store
	directory          store.Directory
	gateway            *chat.Gateway
	dispatcher         *notify.Dispatcher
	uploads            Uploads
	notificationsLimit int
	baseCtx            context.Context
}

func New(d Deps) *Handlers {
	if d.Directory == nil {
		d.Directory = d.Store
	}
	if d.NotificationsLimit <= 0 {
		d.NotificationsLimit = 50
	}
	if d.Uploads.MaxFiles <= 0 {
		d.Uploads.MaxFiles = 5
	}
	if d.Dispatcher == nil {
		d.Dispatcher = notify.NewDispatcher(d.Store, d.Gateway.Presence(), d.Directory)
	}
	if d.BaseContext == nil {
		d.BaseContext = context.Background()
	}
	return &Handlers{
		store:              d.Store,
		directory:          d.Directory,
		gateway:            d.Gateway,
		dispatcher:         d.Dispatcher,
		uploads:            d.Uploads,
		notificationsLimit: d.NotificationsLimit,
		baseCtx:            d.BaseContext,
	}
}

// NewApp builds the fiber app with every route mounted.
func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler,
		BodyLimit:    20 * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	origins := d.AllowedOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Accept,Authorization,Content-Type",
	}))

	h := New(d)
	h.Mount(app, d.Verifier)
	return app
}

// Mount registers the routes. Every route except /health requires a token.
func (h *Handlers) Mount(app *fiber.App, v *auth.Verifier) {
	app.Get("/health", h.Health)
	if h.uploads.Dir != "" {
		app.Static(h.uploads.Prefix, h.uploads.Dir, fiber.Static{ModifyResponse: serveUpload})
	}

	app.Get("/ws", h.UpgradeChain(v)...)

	chatGroup := app.Group("/chat", v.Middleware(), h.SyncUser)
	chatGroup.Post("", h.StartConversation)
	chatGroup.Get("", h.ListConversations)
	chatGroup.Get("/online", h.OnlineUsers)
	chatGroup.Post("/upload", h.UploadAttachments)
	chatGroup.Get("/:conversationId", h.ListMessages)

	notifications := app.Group("/notifications", v.Middleware(), h.SyncUser)
	notifications.Get("", h.ListNotifications)
	notifications.Post("", h.PublishNotification)
	notifications.Put("/read-all", h.MarkAllNotificationsRead)
	notifications.Put("/:id/read", h.MarkNotificationRead)
}

// Health GET /health
func (h *Handlers) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "database unavailable")
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// ErrorHandler renders every error as {"message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code, msg = fe.Code, fe.Message
	} else {
		jww.ERROR.Printf("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(fiber.Map{"message": msg})
}

func (h *Handlers) summary(ctx context.Context, id string) models.UserSummary {
	sum, err := h.directory.Summary(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			jww.WARN.Printf("resolve user %s: %v", id, err)
		}
		return models.UserSummary{ID: id}
	}
	return sum
}
