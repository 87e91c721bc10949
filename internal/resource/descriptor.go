package resource

import "context"

// Entity is a server-owned record with an opaque unique id. The client never
// invents ids; they arrive from the backend.
type Entity interface {
	EntityID() string
}

// Client is the slice of the API client a controller needs.
type Client interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string) error
}

// Descriptor configures a controller for one entity type: its endpoints,
// which text the filter matches against, and how updates come back.
type Descriptor[T Entity] struct {
	// Name labels the resource in logs.
	Name string

	// CollectionPath is the list/create endpoint, e.g. "/products".
	CollectionPath string

	// RecordPath builds the endpoint for one record. Defaults to
	// CollectionPath + "/" + id.
	RecordPath func(id string) string

	// SearchText returns the fields the client-side filter matches
	// against.
	SearchText func(T) []string

	// EchoesUpdate is true when the backend returns the updated record in
	// the PUT response, letting the controller replace it in place. When
	// false a successful update triggers a full refetch.
	EchoesUpdate bool

	// ExportName is the filename stem for CSV downloads.
	ExportName string
}

func (d Descriptor[T]) recordPath(id string) string {
	if d.RecordPath != nil {
		return d.RecordPath(id)
	}
	return d.CollectionPath + "/" + id
}
