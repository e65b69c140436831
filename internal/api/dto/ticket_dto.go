package dto

import (
	"time"

	"github.com/inspiringwave/ticket-management/internal/domain"
	"github.com/inspiringwave/ticket-management/internal/service"
)

// CreateTicketRequest payload. Attachments arrive via multipart form parts,
// not this JSON body; AttachmentURLs carries external links.
type CreateTicketRequest struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Label          string   `json:"label"`
	AssignedToID   string   `json:"assigned_to_id"`
	AttachmentURLs []string `json:"attachment_urls"`
}

// UpdateTicketRequest payload for partial updates.
type UpdateTicketRequest struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Label        *string `json:"label"`
	AssignedToID *string `json:"assigned_to_id"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// TicketSummary response for list endpoints.
type TicketSummary struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	Label        domain.TicketLabel  `json:"label"`
	Status       domain.TicketStatus `json:"status"`
	CreatedByID  string              `json:"created_by_id"`
	AssignedToID string              `json:"assigned_to_id"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// TicketListResponse wraps a page of summaries.
type TicketListResponse struct {
	Tickets  []TicketSummary `json:"tickets"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	ID             string                  `json:"id"`
	Title          string                  `json:"title"`
	Description    string                  `json:"description"`
	Label          domain.TicketLabel      `json:"label"`
	Status         domain.TicketStatus     `json:"status"`
	CreatedByID    string                  `json:"created_by_id"`
	AssignedToID   string                  `json:"assigned_to_id"`
	AttachmentURLs []string                `json:"attachment_urls"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
	History        []StatusHistoryResponse `json:"history"`
	Comments       []CommentResponse       `json:"comments"`
	Attachments    []AttachmentResponse    `json:"attachments"`
}

// StatusHistoryResponse represents one audit trail entry.
type StatusHistoryResponse struct {
	ID          string              `json:"id"`
	FromStatus  domain.TicketStatus `json:"from_status"`
	ToStatus    domain.TicketStatus `json:"to_status"`
	UpdatedByID string              `json:"updated_by_id"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// CommentResponse represents one comment.
type CommentResponse struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// AttachmentResponse metadata. The blob itself is served by the download
// endpoint.
type AttachmentResponse struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewTicketSummary maps a domain ticket.
func NewTicketSummary(ticket *domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:           ticket.ID,
		Title:        ticket.Title,
		Label:        ticket.Label,
		Status:       ticket.Status,
		CreatedByID:  ticket.CreatedByID,
		AssignedToID: ticket.AssignedToID,
		CreatedAt:    ticket.CreatedAt,
		UpdatedAt:    ticket.UpdatedAt,
	}
}

// NewTicketListResponse maps one page of tickets.
func NewTicketListResponse(tickets []domain.Ticket, total, page, pageSize int) TicketListResponse {
	summaries := make([]TicketSummary, 0, len(tickets))
	for i := range tickets {
		summaries = append(summaries, NewTicketSummary(&tickets[i]))
	}
	return TicketListResponse{Tickets: summaries, Total: total, Page: page, PageSize: pageSize}
}

// NewTicketDetailResponse maps a full ticket view.
func NewTicketDetailResponse(details *service.TicketDetails) TicketDetailResponse {
	ticket := details.Ticket
	resp := TicketDetailResponse{
		ID:             ticket.ID,
		Title:          ticket.Title,
		Description:    ticket.Description,
		Label:          ticket.Label,
		Status:         ticket.Status,
		CreatedByID:    ticket.CreatedByID,
		AssignedToID:   ticket.AssignedToID,
		AttachmentURLs: ticket.AttachmentURLs,
		CreatedAt:      ticket.CreatedAt,
		UpdatedAt:      ticket.UpdatedAt,
		History:        make([]StatusHistoryResponse, 0, len(details.History)),
		Comments:       make([]CommentResponse, 0, len(details.Comments)),
		Attachments:    make([]AttachmentResponse, 0, len(details.Attachments)),
	}
	for _, entry := range details.History {
		resp.History = append(resp.History, StatusHistoryResponse{
			ID:          entry.ID,
			FromStatus:  entry.FromStatus,
			ToStatus:    entry.ToStatus,
			UpdatedByID: entry.UpdatedByID,
			UpdatedAt:   entry.UpdatedAt,
		})
	}
	for _, comment := range details.Comments {
		resp.Comments = append(resp.Comments, CommentResponse{
			ID:        comment.ID,
			AuthorID:  comment.AuthorID,
			Content:   comment.Content,
			CreatedAt: comment.CreatedAt,
		})
	}
	for _, att := range details.Attachments {
		resp.Attachments = append(resp.Attachments, AttachmentResponse{
			ID:          att.ID,
			FileName:    att.FileName,
			ContentType: att.ContentType,
			SizeBytes:   att.SizeBytes,
			CreatedAt:   att.CreatedAt,
		})
	}
	return resp
}
