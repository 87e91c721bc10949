package shell

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/orionsagar/catalog-console/internal/catalog"
	"github.com/orionsagar/catalog-console/internal/guard"
	"github.com/orionsagar/catalog-console/internal/resource"
)

func (m *Model) newProductsScreen(ctx context.Context) screen {
	ls := &listScreen[catalog.Product]{
		core:  m.core,
		ctx:   ctx,
		name:  "product",
		route: "/dashboard/products",
		ctrl:  resource.NewController(m.core.client, catalog.ProductDescriptor(), m.core.logger),
		rowLine: func(p catalog.Product) (string, string) {
			price := "N/A"
			if p.Price != 0 {
				price = fmt.Sprintf("$%.2f", p.Price)
			}
			return p.Name, fmt.Sprintf("%s  v%s  %s  %s", p.ID, p.Version, p.Description, price)
		},
		specs: []fieldSpec[catalog.Product]{
			{key: "name", label: "Name", fromDraft: func(p catalog.Product) string { return p.Name }},
			{key: "version", label: "Version", fromDraft: func(p catalog.Product) string { return p.Version }},
			{key: "description", label: "Description", fromDraft: func(p catalog.Product) string { return p.Description }},
			{key: "price", label: "Price", fromDraft: func(p catalog.Product) string {
				if p.Price == 0 {
					return ""
				}
				return strconv.FormatFloat(p.Price, 'f', -1, 64)
			}},
		},
		apply:    applyProduct,
		validate: func(p catalog.Product) error { return catalog.ValidateDraft(p) },
		onOpen: func(id string) tea.Cmd {
			return navigateTo("/dashboard/summary/product/" + id)
		},
		hints: "n: new  e: edit  d: delete  /: filter  x: export  r: reload  enter: summary",
	}
	return newListScreen(ls, "Products")
}

func (m *Model) newProjectsScreen(ctx context.Context) screen {
	idx := catalog.NewProductIndex()
	ctrl := resource.NewController(m.core.client, catalog.ProjectDescriptor(idx.Name), m.core.logger)

	ls := &listScreen[catalog.Project]{
		core:  m.core,
		ctx:   ctx,
		name:  "project",
		route: "/dashboard/projects",
		ctrl:  ctrl,
		rowLine: func(p catalog.Project) (string, string) {
			return p.Name, fmt.Sprintf("%s  %s  product: %s", p.ID, p.Description, idx.Name(p.ProductID))
		},
		specs: []fieldSpec[catalog.Project]{
			{key: "name", label: "Name", fromDraft: func(p catalog.Project) string { return p.Name }},
			{key: "description", label: "Description", fromDraft: func(p catalog.Project) string { return p.Description }},
			{key: "product", label: "Product ID", fromDraft: func(p catalog.Project) string { return p.ProductID }},
		},
		apply:    applyProject,
		validate: func(p catalog.Project) error { return catalog.ValidateDraft(p) },
		onOpen: func(id string) tea.Cmd {
			return navigateTo("/dashboard/items?projectId=" + id)
		},
		hints: "n: new  e: edit  d: delete  /: filter  x: export  r: reload  enter: items  v: summary",
	}
	ls.extraKey = func(key string) (tea.Cmd, bool) {
		if key != "v" {
			return nil, false
		}
		id := ls.selectedID()
		if id == "" {
			return nil, true
		}
		return navigateTo("/dashboard/summary/project/" + id), true
	}

	// Projects and products load in parallel; the product list only feeds the
	// read-only name lookup, so the two fetches never write shared state.
	client := m.core.client
	ls.mount = func() tea.Cmd {
		ls.busy = true
		mountCtx := ls.ctx
		return func() tea.Msg {
			var products []catalog.Product
			g, gctx := errgroup.WithContext(mountCtx)
			g.Go(func() error { return ctrl.Load(gctx) })
			g.Go(func() error { return client.Get(gctx, "/products", &products) })
			err := g.Wait()
			if err == nil {
				idx.Update(products)
			}
			return listLoadedMsg{ctx: mountCtx, err: err}
		}
	}
	return newListScreen(ls, "Projects")
}

// projectNameMsg resolves the heading of an items screen once the owning
// project has been fetched.
type projectNameMsg struct {
	ctx  context.Context
	name string
}

func (m *Model) newItemsScreen(ctx context.Context, projectID string) screen {
	ctrl := resource.NewController(m.core.client, catalog.ItemDescriptor(projectID), m.core.logger)

	ls := &listScreen[catalog.Item]{
		core:     m.core,
		ctx:      ctx,
		name:     "item",
		route:    "/dashboard/items",
		backPath: "/dashboard/projects",
		ctrl:     ctrl,
		rowLine: func(i catalog.Item) (string, string) {
			description := i.Description
			if description == "" {
				description = "No description"
			}
			return i.Name, fmt.Sprintf("%s  %s  %s", i.ID, description, catalog.StatusLabel(i.Status))
		},
		specs: []fieldSpec[catalog.Item]{
			{key: "name", label: "Name", fromDraft: func(i catalog.Item) string { return i.Name }},
			{key: "description", label: "Description", fromDraft: func(i catalog.Item) string { return i.Description }},
			{key: "status", label: "Status (1-4)", fromDraft: func(i catalog.Item) string { return i.Status }},
		},
		apply:    applyItem,
		validate: func(i catalog.Item) error { return catalog.ValidateDraft(i) },
		hints:    "n: new  e: edit  d: delete  t: cycle status  /: filter  x: export  esc: projects",
	}

	client := m.core.client
	ls.mount = func() tea.Cmd {
		mountCtx := ls.ctx
		fetchName := func() tea.Msg {
			project, err := catalog.FetchProject(mountCtx, client, projectID)
			if err != nil {
				return projectNameMsg{ctx: mountCtx, name: "unknown project"}
			}
			return projectNameMsg{ctx: mountCtx, name: project.Name}
		}
		return tea.Batch(ls.load(), fetchName)
	}
	ls.extraMsg = func(msg tea.Msg) (tea.Cmd, bool) {
		pm, ok := msg.(projectNameMsg)
		if !ok {
			return nil, false
		}
		if pm.ctx == ls.ctx {
			ls.list.Title = "Items for project: " + pm.name
		}
		return nil, true
	}

	// Quick status change without opening the form.
	ls.extraKey = func(key string) (tea.Cmd, bool) {
		if key != "t" {
			return nil, false
		}
		if err := ls.core.authorize(guard.ActionUpdate); err != nil {
			return setStatus(err.Error()), true
		}
		id := ls.selectedID()
		if id == "" {
			return nil, true
		}
		if err := ctrl.BeginEdit(id); err != nil {
			return setStatus(userMessage(err)), true
		}
		draft := ctrl.Draft()
		draft.Status = nextStatus(draft.Status)
		ctrl.SetDraft(draft)
		ls.busy = true
		mountCtx := ls.ctx
		return func() tea.Msg {
			return listSavedMsg{ctx: mountCtx, err: ctrl.Submit(mountCtx)}
		}, true
	}
	return newListScreen(ls, "Items")
}

func (m *Model) newAuditLogScreen(ctx context.Context) screen {
	ls := &listScreen[catalog.AuditLogEntry]{
		core:     m.core,
		ctx:      ctx,
		name:     "audit log entry",
		route:    "/dashboard/auditlogs",
		ctrl:     resource.NewController(m.core.client, catalog.AuditLogDescriptor(), m.core.logger),
		readOnly: true,
		rowLine: func(e catalog.AuditLogEntry) (string, string) {
			changes := e.Changes
			if changes == "" {
				changes = "-"
			}
			title := fmt.Sprintf("%s %s %s", e.Action, e.Entity, e.RecordID)
			return title, fmt.Sprintf("%s  %s  %s", e.Timestamp, e.UserName, changes)
		},
		hints: "/: filter  x: export  r: reload",
	}
	return newListScreen(ls, "Audit Logs")
}

// nextStatus cycles to the following status code, wrapping at the end.
func nextStatus(current string) string {
	codes := catalog.StatusCodes()
	for i, code := range codes {
		if code == current {
			return codes[(i+1)%len(codes)]
		}
	}
	return catalog.StatusPending
}

type loginResultMsg struct {
	ctx  context.Context
	err  string
	path string
}

type loginScreen struct {
	core     *core
	ctx      context.Context
	email    textinput.Model
	password textinput.Model
	focus    int
	busy     bool
	errText  string
}

func newLoginScreen(c *core, ctx context.Context) *loginScreen {
	l := &loginScreen{core: c, ctx: ctx}
	l.email = textinput.New()
	l.email.Prompt = "Email: "
	l.email.CharLimit = 120
	l.email.Width = 40
	l.email.Focus()
	l.password = textinput.New()
	l.password.Prompt = "Password: "
	l.password.EchoMode = textinput.EchoPassword
	l.password.EchoCharacter = '*'
	l.password.CharLimit = 120
	l.password.Width = 40
	return l
}

func (l *loginScreen) Init() tea.Cmd       { return nil }
func (l *loginScreen) capturesInput() bool { return true }

func (l *loginScreen) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
		if msg.ctx != l.ctx {
			return l, nil
		}
		l.busy = false
		if msg.err != "" {
			l.errText = msg.err
			return l, nil
		}
		return l, navigateTo(msg.path)

	case tea.KeyMsg:
		if l.busy {
			return l, nil
		}
		switch msg.String() {
		case "ctrl+r":
			return l, navigateTo("/register")
		case "tab", "down", "shift+tab", "up":
			l.toggleFocus()
			return l, nil
		case "enter":
			if l.focus == 0 {
				l.toggleFocus()
				return l, nil
			}
			return l.submit()
		}
		if l.focus == 0 {
			l.email, _ = l.email.Update(msg)
		} else {
			l.password, _ = l.password.Update(msg)
		}
		return l, nil
	}
	return l, nil
}

func (l *loginScreen) toggleFocus() {
	if l.focus == 0 {
		l.focus = 1
		l.email.Blur()
		l.password.Focus()
	} else {
		l.focus = 0
		l.password.Blur()
		l.email.Focus()
	}
}

func (l *loginScreen) submit() (screen, tea.Cmd) {
	l.busy = true
	l.errText = ""
	ctx, client, sess := l.ctx, l.core.client, l.core.session
	creds := catalog.Credentials{
		Email:    strings.TrimSpace(l.email.Value()),
		Password: l.password.Value(),
	}
	return l, func() tea.Msg {
		token, err := catalog.Login(ctx, client, creds)
		if err != nil {
			// Inline form error; no session state changes.
			return loginResultMsg{ctx: ctx, err: "invalid email or password"}
		}
		if err := sess.Login(token); err != nil {
			return loginResultMsg{ctx: ctx, err: userMessage(err)}
		}
		return loginResultMsg{ctx: ctx, path: "/dashboard/products"}
	}
}

func (l *loginScreen) View() string {
	lines := []string{
		lipgloss.NewStyle().Bold(true).Render("Login"),
		l.email.View(),
		l.password.View(),
	}
	if l.errText != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(l.errText))
	}
	lines = append(lines, lipgloss.NewStyle().Faint(true).Render("enter: next/submit  tab: switch  ctrl+r: register"))
	return loginBox(strings.Join(lines, "\n"))
}

type registerResultMsg struct {
	ctx context.Context
	err string
}

type registerScreen struct {
	core    *core
	ctx     context.Context
	inputs  []textinput.Model
	focus   int
	busy    bool
	errText string
}

func newRegisterScreen(c *core, ctx context.Context) *registerScreen {
	r := &registerScreen{core: c, ctx: ctx}
	labels := []string{"Email: ", "Password: ", "Role: "}
	for i, label := range labels {
		in := textinput.New()
		in.Prompt = label
		in.CharLimit = 120
		in.Width = 40
		if i == 1 {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '*'
		}
		r.inputs = append(r.inputs, in)
	}
	r.inputs[0].Focus()
	return r
}

func (r *registerScreen) Init() tea.Cmd       { return nil }
func (r *registerScreen) capturesInput() bool { return true }

func (r *registerScreen) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case registerResultMsg:
		if msg.ctx != r.ctx {
			return r, nil
		}
		r.busy = false
		if msg.err != "" {
			r.errText = msg.err
			return r, nil
		}
		return r, tea.Batch(navigateTo("/login"), setStatus("Registration successful! Please login."))

	case tea.KeyMsg:
		if r.busy {
			return r, nil
		}
		switch msg.String() {
		case "esc":
			return r, navigateTo("/login")
		case "tab", "down":
			r.setFocus((r.focus + 1) % len(r.inputs))
			return r, nil
		case "shift+tab", "up":
			r.setFocus((r.focus + len(r.inputs) - 1) % len(r.inputs))
			return r, nil
		case "enter":
			if r.focus < len(r.inputs)-1 {
				r.setFocus(r.focus + 1)
				return r, nil
			}
			return r.submit()
		}
		r.inputs[r.focus], _ = r.inputs[r.focus].Update(msg)
		return r, nil
	}
	return r, nil
}

func (r *registerScreen) setFocus(i int) {
	for j := range r.inputs {
		r.inputs[j].Blur()
	}
	r.focus = i
	r.inputs[i].Focus()
}

func (r *registerScreen) submit() (screen, tea.Cmd) {
	r.busy = true
	r.errText = ""
	ctx, client := r.ctx, r.core.client
	reg := catalog.Registration{
		Email:    strings.TrimSpace(r.inputs[0].Value()),
		Password: r.inputs[1].Value(),
		Role:     strings.TrimSpace(r.inputs[2].Value()),
	}
	return r, func() tea.Msg {
		if err := catalog.Register(ctx, client, reg); err != nil {
			return registerResultMsg{ctx: ctx, err: userMessage(err)}
		}
		return registerResultMsg{ctx: ctx}
	}
}

func (r *registerScreen) View() string {
	lines := []string{lipgloss.NewStyle().Bold(true).Render("Register")}
	for i := range r.inputs {
		lines = append(lines, r.inputs[i].View())
	}
	lines = append(lines, lipgloss.NewStyle().Faint(true).Render("roles: "+strings.Join(catalog.Roles(), ", ")))
	if r.errText != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(r.errText))
	}
	lines = append(lines, lipgloss.NewStyle().Faint(true).Render("enter: next/submit  tab: switch  esc: back to login"))
	return loginBox(strings.Join(lines, "\n"))
}

func loginBox(body string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		Render(body)
}

type summaryLoadedMsg struct {
	ctx     context.Context
	summary catalog.Summary
	err     error
}

type summaryScreen struct {
	core     *core
	ctx      context.Context
	kind     string
	id       string
	backPath string
	summary  catalog.Summary
	errText  string
}

func newSummaryScreen(c *core, ctx context.Context, kind, id, backPath string) *summaryScreen {
	return &summaryScreen{core: c, ctx: ctx, kind: kind, id: id, backPath: backPath}
}

func (s *summaryScreen) Init() tea.Cmd {
	ctx, client, kind, id := s.ctx, s.core.client, s.kind, s.id
	return func() tea.Msg {
		var summary catalog.Summary
		var err error
		if kind == "product" {
			summary, err = catalog.ProductSummary(ctx, client, id)
		} else {
			summary, err = catalog.ProjectSummary(ctx, client, id)
		}
		return summaryLoadedMsg{ctx: ctx, summary: summary, err: err}
	}
}

func (s *summaryScreen) capturesInput() bool { return false }

func (s *summaryScreen) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case summaryLoadedMsg:
		if msg.ctx != s.ctx {
			return s, nil
		}
		if msg.err != nil {
			s.errText = userMessage(msg.err)
			return s, nil
		}
		s.summary = msg.summary
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "backspace":
			return s, navigateTo(s.backPath)
		}
	}
	return s, nil
}

func (s *summaryScreen) View() string {
	title := lipgloss.NewStyle().Bold(true).Render(s.kind + " summary")
	body := "Loading..."
	switch {
	case s.errText != "":
		body = s.errText
	case s.summary != nil:
		data, err := json.MarshalIndent(s.summary, "", "  ")
		if err != nil {
			body = err.Error()
		} else {
			body = string(data)
		}
	}
	hint := lipgloss.NewStyle().Faint(true).Render("esc: back")
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		Render(title + "\n" + body + "\n" + hint)
}

func applyProduct(p catalog.Product, fields map[string]string) (catalog.Product, error) {
	for key, value := range fields {
		switch key {
		case "name":
			p.Name = value
		case "version":
			p.Version = value
		case "description":
			p.Description = value
		case "price":
			price, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return p, fmt.Errorf("invalid price %q", value)
			}
			p.Price = price
		default:
			return p, fmt.Errorf("unknown product field %q", key)
		}
	}
	return p, nil
}

func applyProject(p catalog.Project, fields map[string]string) (catalog.Project, error) {
	for key, value := range fields {
		switch key {
		case "name":
			p.Name = value
		case "description":
			p.Description = value
		case "product", "productId":
			p.ProductID = value
		default:
			return p, fmt.Errorf("unknown project field %q", key)
		}
	}
	return p, nil
}

func applyItem(i catalog.Item, fields map[string]string) (catalog.Item, error) {
	for key, value := range fields {
		switch key {
		case "name":
			i.Name = value
		case "description":
			i.Description = value
		case "status":
			i.Status = value
		default:
			return i, fmt.Errorf("unknown item field %q", key)
		}
	}
	if i.Status == "" {
		i.Status = catalog.StatusPending
	}
	return i, nil
}
