// Package project defines the project aggregate the assistant operates on.
package project

import "time"

// Project is the scope for one assistant run: contacts, action records and
// the next-check schedule all hang off it.
type Project struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id"`
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	Address     string    `json:"address,omitempty"`
	OwnerID     string    `json:"owner_id,omitempty"` // contact acting as project owner for escalations
	NextCheckAt time.Time `json:"next_check_at,omitzero"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Note is a CRM note attached to a project, scanned by decision detection.
type Note struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	AuthorID  string    `json:"author_id,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateRequest is the request body for creating a project.
type CreateRequest struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Address string `json:"address,omitempty"`
	OwnerID string `json:"owner_id,omitempty"`
}
