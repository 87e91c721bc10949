// Package catalog defines the entity records exchanged with the backend and
// the per-entity configuration of the shared list controller. Records travel
// verbatim: the backend owns every id.
package catalog

import (
	"strconv"

	"github.com/orionsagar/catalog-console/internal/resource"
)

// Product is a top-level catalog entry.
type Product struct {
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name" validate:"required"`
	Version     string  `json:"version" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Price       float64 `json:"price,omitempty"`
}

func (p Product) EntityID() string { return p.ID }

// Project belongs to a product.
type Project struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	ProductID   string `json:"productId" validate:"required"`
}

func (p Project) EntityID() string { return p.ID }

// Item belongs to a project and tracks production status.
type Item struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status" validate:"required"`
	ProjectID   string `json:"projectId,omitempty"`
}

func (i Item) EntityID() string { return i.ID }

// AuditLogEntry records who changed which entity, and how. Entity and
// RecordID reference the changed record by name and id.
type AuditLogEntry struct {
	ID        int    `json:"id"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	Entity    string `json:"entityName"`
	RecordID  string `json:"entityId"`
	Action    string `json:"action"`
	Changes   string `json:"changes,omitempty"`
	Timestamp string `json:"timestamp"`
}

func (e AuditLogEntry) EntityID() string { return strconv.Itoa(e.ID) }

// Item status codes as the backend stores them.
const (
	StatusPending    = "1"
	StatusInProgress = "2"
	StatusCompleted  = "3"
	StatusBlocked    = "4"
)

var statusLabels = map[string]string{
	StatusPending:    "Pending",
	StatusInProgress: "In Progress",
	StatusCompleted:  "Completed",
	StatusBlocked:    "Blocked",
}

// StatusLabel renders an item status code for display.
func StatusLabel(code string) string {
	if label, ok := statusLabels[code]; ok {
		return label
	}
	return "Unknown"
}

// StatusCodes lists the valid item status codes in display order.
func StatusCodes() []string {
	return []string{StatusPending, StatusInProgress, StatusCompleted, StatusBlocked}
}

var _ resource.Entity = Product{}
var _ resource.Entity = Project{}
var _ resource.Entity = Item{}
var _ resource.Entity = AuditLogEntry{}
