package handlers

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/hanish78780/skillbridge-chat/internal/auth"
	"github.com/hanish78780/skillbridge-chat/internal/models"
	"github.com/hanish78780/skillbridge-chat/internal/store"
)

const requestTimeout = 5 * time.Second

type startConversationRequest struct {
	RecipientID string `json:"recipientId"`
}

type conversationView struct {
	ID            string               `json:"id"`
	Participants  []models.UserSummary `json:"participants"`
	LastMessage   string               `json:"lastMessage"`
	LastMessageAt time.Time            `json:"lastMessageAt"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

func (h *Handlers) conversationView(ctx context.Context, conv *models.Conversation) conversationView {
	participants := make([]models.UserSummary, 0, 2)
	for _, id := range conv.Participants() {
		participants = append(participants, h.summary(ctx, id))
	}
	return conversationView{
		ID:            conv.ID,
		Participants:  participants,
		LastMessage:   conv.LastMessage,
		LastMessageAt: conv.LastMessageAt,
		CreatedAt:     conv.CreatedAt,
		UpdatedAt:     conv.UpdatedAt,
	}
}

// StartConversation POST /chat
func (h *Handlers) StartConversation(c *fiber.Ctx) error {
	me := auth.UserID(c)
	var req startConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	recipient := strings.TrimSpace(req.RecipientID)
	if recipient == "" {
		return fiber.NewError(fiber.StatusBadRequest, "recipientId is required")
	}
	if recipient == me {
		return fiber.NewError(fiber.StatusBadRequest, "cannot start a conversation with yourself")
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()
	conv, created, err := h.store.FindOrCreateConversation(ctx, me, recipient)
	if err != nil {
		jww.ERROR.Printf("start conversation %s -> %s: %+v", me, recipient, err)
		return fiber.NewError(fiber.StatusInternalServerError, "could not start conversation")
	}
	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(h.conversationView(ctx, conv))
}

// ListConversations GET /chat
func (h *Handlers) ListConversations(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()
	convs, err := h.store.ConversationsFor(ctx, auth.UserID(c))
	if err != nil {
		jww.ERROR.Printf("list conversations: %+v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "could not load conversations")
	}
	out := make([]conversationView, 0, len(convs))
	for i := range convs {
		out = append(out, h.conversationView(ctx, &convs[i]))
	}
	return c.JSON(out)
}

// ListMessages GET /chat/:conversationId
func (h *Handlers) ListMessages(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("conversationId"))
	if id == "" {
		return fiber.NewError(fiber.StatusBadRequest, "conversationId is required")
	}
	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	conv, err := h.store.Conversation(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "conversation not found")
	}
	if err != nil {
		jww.ERROR.Printf("load conversation %s: %+v", id, err)
		return fiber.NewError(fiber.StatusInternalServerError, "could not load conversation")
	}
	if !conv.HasParticipant(auth.UserID(c)) {
		return fiber.NewError(fiber.StatusForbidden, "not a participant of this conversation")
	}

	msgs, err := h.store.Messages(ctx, id)
	if err != nil {
		jww.ERROR.Printf("list messages %s: %+v", id, err)
		return fiber.NewError(fiber.StatusInternalServerError, "could not load messages")
	}
	senders := map[string]models.UserSummary{}
	out := make([]models.MessageView, 0, len(msgs))
	for i := range msgs {
		sum, ok := senders[msgs[i].SenderID]
		if !ok {
			sum = h.summary(ctx, msgs[i].SenderID)
			senders[msgs[i].SenderID] = sum
		}
		out = append(out, msgs[i].View(sum))
	}
	return c.JSON(out)
}

// OnlineUsers GET /chat/online
func (h *Handlers) OnlineUsers(c *fiber.Ctx) error {
	return c.JSON(h.gateway.Presence().Online())
}

// UploadAttachments POST /chat/upload, multipart field "files".
func (h *Handlers) UploadAttachments(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "expected multipart form")
	}
	files := form.File["files"]
	if len(files) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no files uploaded")
	}
	if len(files) > h.uploads.MaxFiles {
		return fiber.NewError(fiber.StatusBadRequest, "too many files")
	}

	kinds := make([]models.FileKind, len(files))
	for i, fh := range files {
		kind, ok := fileKind(fh.Filename)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "file type not allowed: "+filepath.Ext(fh.Filename))
		}
		kinds[i] = kind
	}

	out := make([]models.Attachment, 0, len(files))
	for i, fh := range files {
		name := uuid.NewString() + strings.ToLower(filepath.Ext(fh.Filename))
		if err := c.SaveFile(fh, filepath.Join(h.uploads.Dir, name)); err != nil {
			jww.ERROR.Printf("save upload %s: %v", fh.Filename, err)
			return fiber.NewError(fiber.StatusInternalServerError, "upload failed")
		}
		out = append(out, models.Attachment{
			URL:          strings.TrimRight(h.uploads.Prefix, "/") + "/" + name,
			FileType:     kinds[i],
			OriginalName: filepath.Base(fh.Filename),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// uploadKinds lists the extensions accepted for attachments. Anything the
// browser would render as active content (html, svg, js) is absent.
var uploadKinds = map[string]models.FileKind{
	".jpg":  models.FileImage,
	".jpeg": models.FileImage,
	".png":  models.FileImage,
	".gif":  models.FileImage,
	".webp": models.FileImage,
	".mp4":  models.FileVideo,
	".webm": models.FileVideo,
	".mov":  models.FileVideo,
	".pdf":  models.FileOther,
	".txt":  models.FileOther,
	".csv":  models.FileOther,
	".doc":  models.FileOther,
	".docx": models.FileOther,
	".xls":  models.FileOther,
	".xlsx": models.FileOther,
	".ppt":  models.FileOther,
	".pptx": models.FileOther,
	".zip":  models.FileOther,
}

// fileKind classifies name by its extension and reports whether uploads of
// that extension are allowed.
func fileKind(name string) (models.FileKind, bool) {
	kind, ok := uploadKinds[strings.ToLower(filepath.Ext(name))]
	return kind, ok
}

// serveUpload hardens responses for stored attachments: no content sniffing,
// and documents are downloaded rather than rendered inline.
func serveUpload(c *fiber.Ctx) error {
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
	if kind, ok := fileKind(c.Path()); !ok || kind == models.FileOther {
		c.Set(fiber.HeaderContentDisposition, "attachment")
	}
	return nil
}
