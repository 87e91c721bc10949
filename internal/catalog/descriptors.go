package catalog

import "github.com/orionsagar/catalog-console/internal/resource"

// ProductDescriptor configures the products screen. The backend does not
// echo updated products, so a successful update refetches the list.
func ProductDescriptor() resource.Descriptor[Product] {
	return resource.Descriptor[Product]{
		Name:           "products",
		CollectionPath: "/products",
		SearchText: func(p Product) []string {
			return []string{p.Name, p.Version, p.Description}
		},
		EchoesUpdate: false,
		ExportName:   "products",
	}
}

// ProjectDescriptor configures the projects screen. productName resolves a
// product id to its display name so the filter also matches the product
// column; it reads current state on every call.
func ProjectDescriptor(productName func(id string) string) resource.Descriptor[Project] {
	return resource.Descriptor[Project]{
		Name:           "projects",
		CollectionPath: "/projects",
		SearchText: func(p Project) []string {
			return []string{p.Name, p.Description, productName(p.ProductID)}
		},
		EchoesUpdate: true,
		ExportName:   "projects",
	}
}

// ItemDescriptor configures the items screen for one project.
func ItemDescriptor(projectID string) resource.Descriptor[Item] {
	base := "/projects/" + projectID + "/items"
	return resource.Descriptor[Item]{
		Name:           "items",
		CollectionPath: base,
		RecordPath:     func(id string) string { return base + "/" + id },
		SearchText: func(i Item) []string {
			return []string{i.Name, i.Description, StatusLabel(i.Status)}
		},
		EchoesUpdate: true,
		ExportName:   "items_summary",
	}
}

// AuditLogDescriptor configures the read-only audit history screen.
func AuditLogDescriptor() resource.Descriptor[AuditLogEntry] {
	return resource.Descriptor[AuditLogEntry]{
		Name:           "auditlogs",
		CollectionPath: "/auditlogs",
		SearchText: func(e AuditLogEntry) []string {
			return []string{e.UserName, e.Entity, e.Action}
		},
		ExportName: "audit_log",
	}
}
