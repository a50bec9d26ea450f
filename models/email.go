package models

import "time"

// EmailStatus is the delivery state of a stored email.
type EmailStatus string

const (
	EmailStatusSent    EmailStatus = "sent"
	EmailStatusPending EmailStatus = "pending"
	EmailStatusFailed  EmailStatus = "failed"
)

// Valid reports whether s is one of the known delivery states.
func (s EmailStatus) Valid() bool {
	switch s {
	case EmailStatusSent, EmailStatusPending, EmailStatusFailed:
		return true
	}
	return false
}

// EmailInput is what a caller submits for sending.
type EmailInput struct {
	To          string `json:"to" binding:"required,email"`
	Subject     string `json:"subject" binding:"required"`
	Content     string `json:"content" binding:"required"`
	HTMLContent string `json:"htmlContent,omitempty"`
	UserAgent   string `json:"userAgent,omitempty"`
}

// EmailMetadata is derived when an email is recorded.
type EmailMetadata struct {
	ContentLength int    `json:"contentLength"`
	UserAgent     string `json:"userAgent"`
}

// StoredEmailRecord is one entry of the simulated outbox.
type StoredEmailRecord struct {
	ID          string        `json:"id"`
	To          string        `json:"to"`
	Subject     string        `json:"subject"`
	Content     string        `json:"content"`
	HTMLContent string        `json:"htmlContent"`
	Timestamp   time.Time     `json:"timestamp"`
	Status      EmailStatus   `json:"status"`
	Metadata    EmailMetadata `json:"metadata"`
}

// EmailStats aggregates the outbox.
type EmailStats struct {
	Total    int                 `json:"total"`
	Today    int                 `json:"today"`
	ThisWeek int                 `json:"thisWeek"`
	ByStatus map[EmailStatus]int `json:"byStatus"`
}

// ContactMessage is a visitor's message to a listed company.
type ContactMessage struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Phone       string `json:"phone,omitempty"`
	Message     string `json:"message" binding:"required,min=10,max=2000"`
	CompanySlug string `json:"companySlug,omitempty"`
	To          string `json:"to" binding:"required,email"`
}
