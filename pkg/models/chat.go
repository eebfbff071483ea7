package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatDocument is a knowledge snippet the chatbot retrieves over.
type ChatDocument struct {
	ID        uuid.UUID `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Pagination describes one page of an admin listing.
type Pagination struct {
	Limit      int `json:"limit"`
	Page       int `json:"page"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes page counts for a listing.
func NewPagination(limit, page, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{
		Limit:      limit,
		Page:       page,
		TotalItems: total,
		TotalPages: pages,
	}
}
