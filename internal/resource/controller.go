// Package resource implements the list-management pattern every entity
// screen shares: fetch once on mount, filter locally, create and update
// through a form draft, delete behind an explicit confirmation, export the
// visible rows. Screens differ only in their Descriptor.
package resource

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/orionsagar/catalog-console/internal/export"
)

// State is the controller's position in its screen lifecycle.
type State int

const (
	// Idle means browsing: the list is settled and actions are accepted.
	Idle State = iota
	// Loading means the initial fetch is in flight.
	Loading
	// Editing means a record is loaded into the form for update.
	Editing
	// ConfirmingDelete means a delete awaits explicit confirmation.
	ConfirmingDelete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Editing:
		return "editing"
	case ConfirmingDelete:
		return "confirming-delete"
	default:
		return "unknown"
	}
}

// Controller drives one screen's list state. It is confined to the event
// goroutine that owns its screen; concurrent mutation is not supported.
type Controller[T Entity] struct {
	client Client
	desc   Descriptor[T]
	logger *slog.Logger

	state           State
	items           []T
	searchTerm      string
	draft           T
	hasDraft        bool
	editingID       string
	pendingDeleteID string
}

// NewController creates a controller for one entity screen.
func NewController[T Entity](client Client, desc Descriptor[T], logger *slog.Logger) *Controller[T] {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Controller[T]{
		client: client,
		desc:   desc,
		logger: logger,
	}
}

// State returns the current lifecycle state.
func (c *Controller[T]) State() State { return c.state }

// Load fetches the collection. On failure items keep their last known value
// (empty if never populated) and the error is returned for the screen to
// surface.
func (c *Controller[T]) Load(ctx context.Context) error {
	c.state = Loading
	var fetched []T
	err := c.client.Get(ctx, c.desc.CollectionPath, &fetched)
	c.state = Idle
	if err != nil {
		c.logger.Warn("fetch failed", "resource", c.desc.Name, "error", err)
		return fmt.Errorf("loading %s: %w", c.desc.Name, err)
	}
	c.items = fetched
	return nil
}

// Items returns the full unfiltered list.
func (c *Controller[T]) Items() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// SetSearch updates the filter term. Filtering is a derived view; it never
// mutates items and never touches the network.
func (c *Controller[T]) SetSearch(term string) { c.searchTerm = term }

// Search returns the current filter term.
func (c *Controller[T]) Search() string { return c.searchTerm }

// Visible returns the records whose searchable text contains the search
// term, case-insensitively, preserving list order. An empty term yields the
// full list.
func (c *Controller[T]) Visible() []T {
	if c.searchTerm == "" {
		return c.Items()
	}

	needle := strings.ToLower(c.searchTerm)
	var visible []T
	for _, item := range c.items {
		for _, text := range c.desc.SearchText(item) {
			if strings.Contains(strings.ToLower(text), needle) {
				visible = append(visible, item)
				break
			}
		}
	}
	return visible
}

// Draft returns the current form draft.
func (c *Controller[T]) Draft() T { return c.draft }

// SetDraft stages unsaved form input for the next Submit.
func (c *Controller[T]) SetDraft(draft T) {
	c.draft = draft
	c.hasDraft = true
}

// EditingID returns the id of the record loaded for update, or "".
func (c *Controller[T]) EditingID() string { return c.editingID }

// BeginEdit pre-fills the form from the selected record and moves to
// Editing. The id must name a record currently in the list.
func (c *Controller[T]) BeginEdit(id string) error {
	if c.state != Idle {
		return ErrBusy
	}
	item, ok := c.find(id)
	if !ok {
		return ErrNoSuchRecord
	}
	c.draft = item
	c.hasDraft = true
	c.editingID = id
	c.state = Editing
	return nil
}

// CancelEdit clears the form without mutating anything.
func (c *Controller[T]) CancelEdit() {
	c.clearDraft()
	c.state = Idle
}

// Submit sends the form draft: a create when browsing, an update of the
// selected record when editing. On success the draft is cleared; on failure
// the list is left untouched so local state stays consistent with the
// backend.
func (c *Controller[T]) Submit(ctx context.Context) error {
	if !c.hasDraft {
		return ErrNoDraft
	}

	switch c.state {
	case Editing:
		return c.submitUpdate(ctx)
	case Idle:
		return c.submitCreate(ctx)
	default:
		return ErrBusy
	}
}

func (c *Controller[T]) submitCreate(ctx context.Context) error {
	var created T
	if err := c.client.Post(ctx, c.desc.CollectionPath, c.draft, &created); err != nil {
		return fmt.Errorf("creating %s record: %w", c.desc.Name, err)
	}

	// The backend assigns the id; append its echo, never the raw draft.
	c.items = append(c.items, created)
	c.clearDraft()
	c.logger.Info("created", "resource", c.desc.Name, "id", created.EntityID())
	return nil
}

func (c *Controller[T]) submitUpdate(ctx context.Context) error {
	id := c.editingID

	if c.desc.EchoesUpdate {
		var updated T
		if err := c.client.Put(ctx, c.desc.recordPath(id), c.draft, &updated); err != nil {
			return fmt.Errorf("updating %s record: %w", c.desc.Name, err)
		}
		for i := range c.items {
			if c.items[i].EntityID() == id {
				c.items[i] = updated
				break
			}
		}
	} else {
		if err := c.client.Put(ctx, c.desc.recordPath(id), c.draft, nil); err != nil {
			return fmt.Errorf("updating %s record: %w", c.desc.Name, err)
		}
		if err := c.refetch(ctx); err != nil {
			return err
		}
	}

	c.clearDraft()
	c.state = Idle
	c.logger.Info("updated", "resource", c.desc.Name, "id", id)
	return nil
}

// PendingDeleteID returns the id awaiting confirmation, or "".
func (c *Controller[T]) PendingDeleteID() string { return c.pendingDeleteID }

// RequestDelete captures the target and moves to ConfirmingDelete. Deletes
// never happen straight from a list action.
func (c *Controller[T]) RequestDelete(id string) error {
	if c.state != Idle {
		return ErrBusy
	}
	if _, ok := c.find(id); !ok {
		return ErrNoSuchRecord
	}
	c.pendingDeleteID = id
	c.state = ConfirmingDelete
	return nil
}

// ConfirmDelete issues the remote delete and removes the record locally only
// after the remote call succeeds. Confirming with nothing pending is a
// no-op, so a double confirm issues a single remote call.
func (c *Controller[T]) ConfirmDelete(ctx context.Context) error {
	if c.pendingDeleteID == "" {
		return nil
	}
	id := c.pendingDeleteID
	c.pendingDeleteID = ""
	c.state = Idle

	if err := c.client.Delete(ctx, c.desc.recordPath(id)); err != nil {
		return fmt.Errorf("deleting %s record: %w", c.desc.Name, err)
	}

	c.removeLocal(id)
	c.logger.Info("deleted", "resource", c.desc.Name, "id", id)
	return nil
}

// CancelDelete abandons the pending delete without any remote call.
func (c *Controller[T]) CancelDelete() {
	c.pendingDeleteID = ""
	c.state = Idle
}

// ExportCSV writes the currently visible (filtered) collection, uniformly
// for every screen.
func (c *Controller[T]) ExportCSV(w io.Writer) error {
	return export.Write(w, c.Visible())
}

// ExportFile writes the visible collection to <dir>/<export name>.csv.
func (c *Controller[T]) ExportFile(dir string) (string, error) {
	return export.WriteFile(dir, c.desc.ExportName, c.Visible())
}

func (c *Controller[T]) refetch(ctx context.Context) error {
	var fetched []T
	if err := c.client.Get(ctx, c.desc.CollectionPath, &fetched); err != nil {
		return fmt.Errorf("reloading %s: %w", c.desc.Name, err)
	}
	c.items = fetched
	return nil
}

func (c *Controller[T]) find(id string) (T, bool) {
	for _, item := range c.items {
		if item.EntityID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func (c *Controller[T]) removeLocal(id string) {
	kept := c.items[:0]
	for _, item := range c.items {
		if item.EntityID() != id {
			kept = append(kept, item)
		}
	}
	c.items = kept
}

func (c *Controller[T]) clearDraft() {
	var zero T
	c.draft = zero
	c.hasDraft = false
	c.editingID = ""
}
