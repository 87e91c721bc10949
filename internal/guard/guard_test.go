package guard_test

import (
	"testing"

	"github.com/orionsagar/catalog-console/internal/guard"
	"github.com/orionsagar/catalog-console/internal/session"
	"github.com/stretchr/testify/require"
)

func TestUnauthenticatedDashboardRedirectsToLogin(t *testing.T) {
	for _, path := range []string{
		"/dashboard/products",
		"/dashboard/projects",
		"/dashboard/items?projectId=p1",
		"/dashboard/auditlogs",
		"/dashboard/summary/product/abc",
	} {
		res := guard.Resolve(path, false)
		require.True(t, res.Redirected(), path)
		require.Equal(t, "/login", res.RedirectTo, path)
		require.True(t, res.Replace, "redirect must replace history: %s", path)
	}
}

func TestPublicScreens(t *testing.T) {
	res := guard.Resolve("/login", false)
	require.Equal(t, guard.ScreenLogin, res.Screen)
	require.False(t, res.Redirected())

	res = guard.Resolve("/register", false)
	require.Equal(t, guard.ScreenRegister, res.Screen)
}

func TestAuthenticatedDashboardScreens(t *testing.T) {
	tests := []struct {
		path   string
		screen guard.Screen
	}{
		{"/dashboard/products", guard.ScreenProducts},
		{"/dashboard/projects", guard.ScreenProjects},
		{"/dashboard/auditlogs", guard.ScreenAuditLogs},
	}
	for _, tt := range tests {
		res := guard.Resolve(tt.path, true)
		require.False(t, res.Redirected(), tt.path)
		require.Equal(t, tt.screen, res.Screen, tt.path)
	}
}

func TestItemsCarriesProjectID(t *testing.T) {
	res := guard.Resolve("/dashboard/items?projectId=p42", true)
	require.Equal(t, guard.ScreenItems, res.Screen)
	require.Equal(t, "p42", res.Params.Get("projectId"))
}

func TestSummaryRoutesCaptureID(t *testing.T) {
	res := guard.Resolve("/dashboard/summary/product/prod-9", true)
	require.Equal(t, guard.ScreenProductSummary, res.Screen)
	require.Equal(t, "prod-9", res.Params.Get("id"))

	res = guard.Resolve("/dashboard/summary/project/proj-3", true)
	require.Equal(t, guard.ScreenProjectSummary, res.Screen)
	require.Equal(t, "proj-3", res.Params.Get("id"))
}

func TestUnknownDashboardPathRedirectsToProducts(t *testing.T) {
	for _, path := range []string{"/dashboard/bogus", "/dashboard", "/dashboard/"} {
		res := guard.Resolve(path, true)
		require.Equal(t, "/dashboard/products", res.RedirectTo, path)
	}
}

func TestUnknownTopLevelPathRedirectsToLogin(t *testing.T) {
	res := guard.Resolve("/nowhere", true)
	require.Equal(t, "/login", res.RedirectTo)
}

func TestAllowAuthenticatedPolicy(t *testing.T) {
	require.ErrorIs(t, guard.AllowAuthenticated(nil, guard.ActionView), guard.ErrLoginRequired)

	identity := &session.Identity{Subject: "u1", Role: "ProductionEngineer"}
	for _, action := range []guard.Action{
		guard.ActionView, guard.ActionCreate, guard.ActionUpdate, guard.ActionDelete, guard.ActionExport,
	} {
		require.NoError(t, guard.AllowAuthenticated(identity, action))
	}
}
