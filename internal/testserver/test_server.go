// Package testserver is an in-memory stand-in for the remote backend, used
// by tests only. It speaks the same REST surface the console expects: JWT
// login, catalog CRUD with server-assigned ids, and an audit trail appended
// on every mutation.
package testserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/orionsagar/catalog-console/internal/catalog"
)

type user struct {
	ID       string
	Email    string
	Password string
	Role     string
}

type caller struct {
	id    string
	email string
}

type callerKey struct{}

// Server is the fake backend. Mutexed because the HTTP handlers run on the
// httptest server's goroutines.
type Server struct {
	Server *httptest.Server
	URL    string

	secret []byte

	mu          sync.Mutex
	users       map[string]user
	products    []catalog.Product
	projects    []catalog.Project
	items       map[string][]catalog.Item
	audit       []catalog.AuditLogEntry
	nextAuditID int

	// deleteCalls counts remote deletes per record path, letting tests
	// assert that cancelled confirmations never reach the backend.
	deleteCalls map[string]int
}

// New starts the fake backend and registers cleanup with t.
func New(t *testing.T) *Server {
	t.Helper()

	s := &Server{
		secret:      []byte("testserver-secret"),
		users:       make(map[string]user),
		items:       make(map[string][]catalog.Item),
		deleteCalls: make(map[string]int),
	}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/products", s.listProducts)
			r.Post("/products", s.createProduct)
			r.Put("/products/{id}", s.updateProduct)
			r.Delete("/products/{id}", s.deleteProduct)

			r.Get("/projects", s.listProjects)
			r.Post("/projects", s.createProject)
			r.Get("/projects/{id}", s.getProject)
			r.Put("/projects/{id}", s.updateProject)
			r.Delete("/projects/{id}", s.deleteProject)

			r.Get("/projects/{id}/items", s.listItems)
			r.Post("/projects/{id}/items", s.createItem)
			r.Put("/projects/{id}/items/{itemID}", s.updateItem)
			r.Delete("/projects/{id}/items/{itemID}", s.deleteItem)

			r.Get("/auditlogs", s.listAuditLogs)
			r.Get("/summary/product/{id}", s.productSummary)
			r.Get("/summary/project/{id}", s.projectSummary)
		})
	})

	s.Server = httptest.NewServer(r)
	s.URL = s.Server.URL
	t.Cleanup(s.Server.Close)
	return s
}

// AddUser registers an account directly, skipping the HTTP flow.
func (s *Server) AddUser(email, password, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = user{ID: uuid.NewString(), Email: email, Password: password, Role: role}
}

// MintToken issues a signed token for an existing user, for tests that skip
// the login screen.
func (s *Server) MintToken(t *testing.T, email string) string {
	t.Helper()
	s.mu.Lock()
	u, ok := s.users[email]
	s.mu.Unlock()
	if !ok {
		t.Fatalf("no such user: %s", email)
	}
	token, err := s.mint(u)
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}
	return token
}

// Products returns a snapshot of the stored products.
func (s *Server) Products() []catalog.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]catalog.Product{}, s.products...)
}

// DeleteCalls reports how many DELETE requests hit the given record path.
func (s *Server) DeleteCalls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteCalls[path]
}

func (s *Server) mint(u user) (string, error) {
	claims := jwt.MapClaims{
		"sub":   u.ID,
		"email": u.Email,
		"role":  u.Role,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg catalog.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed request")
		return
	}
	if reg.Email == "" || reg.Password == "" || reg.Role == "" {
		writeMessage(w, http.StatusBadRequest, "email, password and role are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[reg.Email]; exists {
		writeMessage(w, http.StatusBadRequest, "email already registered")
		return
	}
	s.users[reg.Email] = user{ID: uuid.NewString(), Email: reg.Email, Password: reg.Password, Role: reg.Role}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds catalog.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed request")
		return
	}

	s.mu.Lock()
	u, ok := s.users[creds.Email]
	s.mu.Unlock()
	if !ok || u.Password != creds.Password {
		writeMessage(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := s.mint(u)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "token signing failed")
		return
	}
	writeJSON(w, http.StatusOK, catalog.TokenResponse{Token: token})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		if raw == "" {
			writeMessage(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return s.secret, nil })
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "invalid bearer token")
			return
		}

		id, _ := claims["sub"].(string)
		email, _ := claims["email"].(string)
		ctx := context.WithValue(r.Context(), callerKey{}, caller{id: id, email: email})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) recordAudit(r *http.Request, entity, recordID, action, changes string) {
	c, _ := r.Context().Value(callerKey{}).(caller)
	s.nextAuditID++
	s.audit = append(s.audit, catalog.AuditLogEntry{
		ID:        s.nextAuditID,
		UserID:    c.id,
		UserName:  c.email,
		Entity:    entity,
		RecordID:  recordID,
		Action:    action,
		Changes:   changes,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, append([]catalog.Product{}, s.products...))
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed request")
		return
	}
	if p.Name == "" {
		writeMessage(w, http.StatusBadRequest, "name is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = uuid.NewString()
	s.products = append(s.products, p)
	s.recordAudit(r, "Product", p.ID, "Create", fmt.Sprintf("name=%s", p.Name))
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed request")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == id {
			p.ID = id
			s.products[i] = p
			s.recordAudit(r, "Product", id, "Update", fmt.Sprintf("name=%s", p.Name))
			// No echo: the console refetches after a product update.
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "product not found")
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls["/products/"+id]++
	for i := range s.products {
		if s.products[i].ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			s.recordAudit(r, "Product", id, "Delete", "")
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "product not found")
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, append([]catalog.Project{}, s.projects...))
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.ID == id {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "project not found")
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var p catalog.Project
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed request")
		return
	}
	if p.Name == "" || p.ProductID == "" {
		writeMessage(w, http.StatusBadRequest, "name and productId are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = uuid.NewString()
	s.projects = append(s.projects, p)
	s.recordAudit(r, "Project", p.ID, "Create", fmt.Sprintf("name=%s", p.Name))
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var p catalog.Project
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed request")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.projects {
		if s.projects[i].ID == id {
			p.ID = id
			s.projects[i] = p
			s.recordAudit(r, "Project", id, "Update", fmt.Sprintf("name=%s", p.Name))
			// Projects echo the updated record.
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "project not found")
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls["/projects/"+id]++
	for i := range s.projects {
		if s.projects[i].ID == id {
			s.projects = append(s.projects[:i], s.projects[i+1:]...)
			delete(s.items, id)
			s.recordAudit(r, "Project", id, "Delete", "")
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "project not found")
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, append([]catalog.Item{}, s.items[projectID]...))
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	var item catalog.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed request")
		return
	}
	if item.Name == "" {
		writeMessage(w, http.StatusBadRequest, "name is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	item.ID = uuid.NewString()
	item.ProjectID = projectID
	if item.Status == "" {
		item.Status = catalog.StatusPending
	}
	s.items[projectID] = append(s.items[projectID], item)
	s.recordAudit(r, "Item", item.ID, "Create", fmt.Sprintf("name=%s", item.Name))
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	itemID := chi.URLParam(r, "itemID")
	var patch catalog.Item
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed request")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.items[projectID]
	for i := range items {
		if items[i].ID == itemID {
			// Partial update: empty fields keep their stored value, so a
			// status-only change works.
			if patch.Name != "" {
				items[i].Name = patch.Name
			}
			if patch.Description != "" {
				items[i].Description = patch.Description
			}
			if patch.Status != "" {
				items[i].Status = patch.Status
			}
			s.recordAudit(r, "Item", itemID, "Update", fmt.Sprintf("status=%s", items[i].Status))
			writeJSON(w, http.StatusOK, items[i])
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "item not found")
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	itemID := chi.URLParam(r, "itemID")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls["/projects/"+projectID+"/items/"+itemID]++
	items := s.items[projectID]
	for i := range items {
		if items[i].ID == itemID {
			s.items[projectID] = append(items[:i], items[i+1:]...)
			s.recordAudit(r, "Item", itemID, "Delete", "")
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "item not found")
}

func (s *Server) listAuditLogs(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, append([]catalog.AuditLogEntry{}, s.audit...))
}

func (s *Server) productSummary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.ID == id {
			projectCount := 0
			for _, proj := range s.projects {
				if proj.ProductID == id {
					projectCount++
				}
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"productId":    id,
				"name":         p.Name,
				"version":      p.Version,
				"projectCount": projectCount,
			})
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "product not found")
}

func (s *Server) projectSummary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.ID == id {
			statusCounts := make(map[string]int)
			for _, item := range s.items[id] {
				statusCounts[catalog.StatusLabel(item.Status)]++
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"projectId":    id,
				"name":         p.Name,
				"itemCount":    len(s.items[id]),
				"statusCounts": statusCounts,
			})
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "project not found")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
