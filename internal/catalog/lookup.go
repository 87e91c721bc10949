package catalog

// ProductIndex resolves product ids to display names for the projects
// screen. It is rebuilt whenever the product list is (re)fetched, so the
// product-name column follows reference changes without a reload.
type ProductIndex struct {
	names map[string]string
}

// NewProductIndex creates an empty index.
func NewProductIndex() *ProductIndex {
	return &ProductIndex{names: make(map[string]string)}
}

// Update replaces the index contents from a fresh product list.
func (idx *ProductIndex) Update(products []Product) {
	names := make(map[string]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}
	idx.names = names
}

// Name returns the product's display name, or "Unknown" for an id the index
// has not seen.
func (idx *ProductIndex) Name(id string) string {
	if name, ok := idx.names[id]; ok {
		return name
	}
	return "Unknown"
}
