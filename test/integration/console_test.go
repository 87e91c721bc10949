package integration_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/orionsagar/catalog-console/internal/api"
	"github.com/orionsagar/catalog-console/internal/catalog"
	"github.com/orionsagar/catalog-console/internal/resource"
	"github.com/orionsagar/catalog-console/internal/session"
	"github.com/orionsagar/catalog-console/internal/state"
	"github.com/orionsagar/catalog-console/internal/testserver"
)

type env struct {
	srv     *testserver.Server
	db      *state.DB
	session *session.Store
	client  *api.Client
}

func setup(t *testing.T) *env {
	t.Helper()

	srv := testserver.New(t)
	srv.AddUser("pm@example.com", "secret", "ProductManager")

	db, err := state.Open(filepath.Join(t.TempDir(), "console.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sess := session.NewStore(db, nil)
	client, err := api.NewClient(srv.URL+"/api", sess, 5*time.Second, nil)
	require.NoError(t, err)

	return &env{srv: srv, db: db, session: sess, client: client}
}

func TestLoginFlowPersistsSessionAcrossRestart(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	token, err := catalog.Login(ctx, e.client, catalog.Credentials{
		Email:    "pm@example.com",
		Password: "secret",
	})
	require.NoError(t, err)
	require.NoError(t, e.session.Login(token))

	identity := e.session.Identity()
	require.NotNil(t, identity)
	require.Equal(t, "pm@example.com", identity.Email)
	require.Equal(t, "ProductManager", identity.Role)

	// A new store over the same database picks the session back up.
	restarted := session.NewStore(e.db, nil)
	require.NoError(t, restarted.Rehydrate())
	require.True(t, restarted.LoggedIn())
	require.Equal(t, token, restarted.Token())
}

func TestRegisterThenLogin(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	err := catalog.Register(ctx, e.client, catalog.Registration{
		Email:    "eng@example.com",
		Password: "secret",
		Role:     "ProductionEngineer",
	})
	require.NoError(t, err)

	token, err := catalog.Login(ctx, e.client, catalog.Credentials{
		Email:    "eng@example.com",
		Password: "secret",
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)
}

func TestUnauthenticatedRequestsAreRejected(t *testing.T) {
	e := setup(t)

	var products []catalog.Product
	err := e.client.Get(context.Background(), "/products", &products)
	require.Error(t, err)
	require.True(t, api.IsStatus(err, 401))
}

func TestProductLifecycle(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	require.NoError(t, e.session.Login(e.srv.MintToken(t, "pm@example.com")))

	ctrl := resource.NewController(e.client, catalog.ProductDescriptor(), nil)
	require.NoError(t, ctrl.Load(ctx))
	require.Empty(t, ctrl.Items())

	ctrl.SetDraft(catalog.Product{Name: "Widget", Version: "1.0", Description: "gadget"})
	require.NoError(t, ctrl.Submit(ctx))

	items := ctrl.Items()
	require.Len(t, items, 1)
	require.NotEmpty(t, items[0].ID, "create uses the server-assigned id")
	id := items[0].ID

	// Product updates return no body, so the controller refetches.
	require.NoError(t, ctrl.BeginEdit(id))
	draft := ctrl.Draft()
	draft.Version = "2.0"
	ctrl.SetDraft(draft)
	require.NoError(t, ctrl.Submit(ctx))

	items = ctrl.Items()
	require.Len(t, items, 1)
	require.Equal(t, "2.0", items[0].Version)

	require.NoError(t, ctrl.RequestDelete(id))
	require.NoError(t, ctrl.ConfirmDelete(ctx))
	require.Empty(t, ctrl.Items())
	require.Empty(t, e.srv.Products())
}

func TestProjectUpdateUsesServerEcho(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	require.NoError(t, e.session.Login(e.srv.MintToken(t, "pm@example.com")))

	var product catalog.Product
	require.NoError(t, e.client.Post(ctx, "/products",
		catalog.Product{Name: "Widget", Version: "1.0", Description: "gadget"}, &product))

	ctrl := resource.NewController(e.client, catalog.ProjectDescriptor(func(string) string { return "" }), nil)
	require.NoError(t, ctrl.Load(ctx))

	ctrl.SetDraft(catalog.Project{Name: "Rollout", Description: "initial", ProductID: product.ID})
	require.NoError(t, ctrl.Submit(ctx))
	id := ctrl.Items()[0].ID

	require.NoError(t, ctrl.BeginEdit(id))
	draft := ctrl.Draft()
	draft.Name = "Rollout v2"
	ctrl.SetDraft(draft)
	require.NoError(t, ctrl.Submit(ctx))

	items := ctrl.Items()
	require.Len(t, items, 1)
	require.Equal(t, "Rollout v2", items[0].Name)
	require.Equal(t, id, items[0].ID)
}

func TestItemsScopedToProject(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	require.NoError(t, e.session.Login(e.srv.MintToken(t, "pm@example.com")))

	var product catalog.Product
	require.NoError(t, e.client.Post(ctx, "/products",
		catalog.Product{Name: "Widget", Version: "1.0", Description: "gadget"}, &product))

	var first, second catalog.Project
	require.NoError(t, e.client.Post(ctx, "/projects",
		catalog.Project{Name: "First", Description: "a", ProductID: product.ID}, &first))
	require.NoError(t, e.client.Post(ctx, "/projects",
		catalog.Project{Name: "Second", Description: "b", ProductID: product.ID}, &second))

	ctrl := resource.NewController(e.client, catalog.ItemDescriptor(first.ID), nil)
	require.NoError(t, ctrl.Load(ctx))
	ctrl.SetDraft(catalog.Item{Name: "Assemble"})
	require.NoError(t, ctrl.Submit(ctx))

	other := resource.NewController(e.client, catalog.ItemDescriptor(second.ID), nil)
	require.NoError(t, other.Load(ctx))
	require.Empty(t, other.Items())

	items := ctrl.Items()
	require.Len(t, items, 1)
	// The backend defaults a missing status to pending.
	require.Equal(t, catalog.StatusPending, items[0].Status)
}

func TestSummariesAggregateCatalog(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	require.NoError(t, e.session.Login(e.srv.MintToken(t, "pm@example.com")))

	var product catalog.Product
	require.NoError(t, e.client.Post(ctx, "/products",
		catalog.Product{Name: "Widget", Version: "1.0", Description: "gadget"}, &product))
	var project catalog.Project
	require.NoError(t, e.client.Post(ctx, "/projects",
		catalog.Project{Name: "Rollout", Description: "initial", ProductID: product.ID}, &project))
	require.NoError(t, e.client.Post(ctx, "/projects/"+project.ID+"/items",
		catalog.Item{Name: "Assemble", Status: catalog.StatusInProgress}, nil))

	productSummary, err := catalog.ProductSummary(ctx, e.client, product.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, productSummary["projectCount"])

	projectSummary, err := catalog.ProjectSummary(ctx, e.client, project.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, projectSummary["itemCount"])
}

func TestAuditTrailCoversCRUD(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	require.NoError(t, e.session.Login(e.srv.MintToken(t, "pm@example.com")))

	var product catalog.Product
	require.NoError(t, e.client.Post(ctx, "/products",
		catalog.Product{Name: "Widget", Version: "1.0", Description: "gadget"}, &product))
	require.NoError(t, e.client.Put(ctx, "/products/"+product.ID,
		catalog.Product{Name: "Widget", Version: "2.0", Description: "gadget"}, nil))
	require.NoError(t, e.client.Delete(ctx, "/products/"+product.ID))

	ctrl := resource.NewController(e.client, catalog.AuditLogDescriptor(), nil)
	require.NoError(t, ctrl.Load(ctx))

	entries := ctrl.Items()
	require.Len(t, entries, 3)

	actions := make([]string, 0, len(entries))
	for _, entry := range entries {
		actions = append(actions, entry.Action)
		require.Equal(t, "Product", entry.Entity)
		require.Equal(t, "pm@example.com", entry.UserName)
		require.NotEmpty(t, entry.Timestamp)
	}
	require.Equal(t, []string{"Create", "Update", "Delete"}, actions)
}
