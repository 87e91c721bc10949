package catalog

import "context"

// Client is the slice of the API client the catalog operations need.
type Client interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

// Summary is a backend-computed rollup, rendered as-is.
type Summary map[string]any

// ProductSummary fetches the rollup for one product.
func ProductSummary(ctx context.Context, client Client, id string) (Summary, error) {
	var summary Summary
	if err := client.Get(ctx, "/summary/product/"+id, &summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// ProjectSummary fetches the rollup for one project.
func ProjectSummary(ctx context.Context, client Client, id string) (Summary, error) {
	var summary Summary
	if err := client.Get(ctx, "/summary/project/"+id, &summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// FetchProject loads one project record, used by the items screen heading.
func FetchProject(ctx context.Context, client Client, id string) (*Project, error) {
	var project Project
	if err := client.Get(ctx, "/projects/"+id, &project); err != nil {
		return nil, err
	}
	return &project, nil
}
