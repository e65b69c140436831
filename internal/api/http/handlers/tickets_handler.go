package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/inspiringwave/ticket-management/internal/api/dto"
	"github.com/inspiringwave/ticket-management/internal/auth"
	"github.com/inspiringwave/ticket-management/internal/service"
	apperrors "github.com/inspiringwave/ticket-management/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service        *service.TicketService
	maxUploadBytes int
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, maxUploadBytes int) *TicketsHandler {
	return &TicketsHandler{service: ticketService, maxUploadBytes: maxUploadBytes}
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, _ := auth.CurrentUser(c)

	input := service.TicketListInput{
		Search:       c.Query("search"),
		Status:       c.Query("status"),
		Label:        c.Query("label"),
		AssignedToID: c.Query("assigned_to"),
		Page:         parseIntQuery(c, "page", 1),
		PageSize:     parseIntQuery(c, "page_size", 10),
	}
	tickets, total, err := h.service.List(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketListResponse(tickets, total, input.Page, input.PageSize)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, _ := auth.CurrentUser(c)
	details, err := h.service.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetailResponse(details)})
}

// CreateTicket POST /tickets. Accepts either a JSON body or a multipart form
// with "attachments" file parts.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, _ := auth.CurrentUser(c)

	var input service.TicketCreateInput
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		parsed, err := h.parseMultipartCreate(c)
		if err != nil {
			return err
		}
		input = *parsed
	} else {
		var req dto.CreateTicketRequest
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewBadRequest("invalid payload", nil)
		}
		input = service.TicketCreateInput{
			Title:          req.Title,
			Description:    req.Description,
			Label:          req.Label,
			AssignedToID:   req.AssignedToID,
			AttachmentURLs: req.AttachmentURLs,
		}
	}
	if input.Title == "" || input.Label == "" || input.AssignedToID == "" {
		return apperrors.NewBadRequest("title, label, assigned_to_id required", nil)
	}

	details, err := h.service.Create(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketDetailResponse(details)})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	actor, _ := auth.CurrentUser(c)

	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}
	details, err := h.service.Update(c.UserContext(), actor, c.Params("id"), service.TicketUpdateInput{
		Title:        req.Title,
		Description:  req.Description,
		Label:        req.Label,
		AssignedToID: req.AssignedToID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetailResponse(details)})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	actor, _ := auth.CurrentUser(c)
	if err := h.service.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MessageResponse{Message: "ticket deleted"}})
}

// UpdateStatus PATCH /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, _ := auth.CurrentUser(c)

	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}
	details, err := h.service.TransitionStatus(c.UserContext(), actor, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetailResponse(details)})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	actor, _ := auth.CurrentUser(c)

	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}
	if strings.TrimSpace(req.Content) == "" {
		return apperrors.NewBadRequest("content required", nil)
	}
	details, err := h.service.AddComment(c.UserContext(), actor, c.Params("id"), req.Content)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketDetailResponse(details)})
}

// DownloadAttachment GET /tickets/:id/attachments/:attachmentId.
func (h *TicketsHandler) DownloadAttachment(c *fiber.Ctx) error {
	actor, _ := auth.CurrentUser(c)

	attachment, err := h.service.DownloadAttachment(c.UserContext(), actor, c.Params("id"), c.Params("attachmentId"))
	if err != nil {
		return err
	}
	contentType := attachment.ContentType
	if contentType == "" {
		contentType = fiber.MIMEOctetStream
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+attachment.FileName+`"`)
	return c.Send(attachment.Data)
}

func (h *TicketsHandler) parseMultipartCreate(c *fiber.Ctx) (*service.TicketCreateInput, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperrors.NewBadRequest("invalid multipart form", nil)
	}

	input := service.TicketCreateInput{
		Title:        formValue(form.Value, "title"),
		Description:  formValue(form.Value, "description"),
		Label:        formValue(form.Value, "label"),
		AssignedToID: formValue(form.Value, "assigned_to_id"),
	}
	for _, url := range form.Value["attachment_urls"] {
		if url = strings.TrimSpace(url); url != "" {
			input.AttachmentURLs = append(input.AttachmentURLs, url)
		}
	}

	for _, header := range form.File["attachments"] {
		if h.maxUploadBytes > 0 && header.Size > int64(h.maxUploadBytes) {
			return nil, apperrors.NewBadRequest("attachment too large: "+header.Filename, nil)
		}
		file, err := header.Open()
		if err != nil {
			return nil, apperrors.NewBadRequest("cannot read attachment: "+header.Filename, nil)
		}
		data, err := io.ReadAll(file)
		_ = file.Close()
		if err != nil {
			return nil, apperrors.NewBadRequest("cannot read attachment: "+header.Filename, nil)
		}
		input.Attachments = append(input.Attachments, service.AttachmentInput{
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return &input, nil
}

func formValue(values map[string][]string, key string) string {
	if v, ok := values[key]; ok && len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

func parseIntQuery(c *fiber.Ctx, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		return n
	}
	return fallback
}
