// Package shell hosts the console's screens as a bubbletea program. The root
// model owns navigation: paths resolve through the guard, one screen model is
// mounted at a time with its own cancellable context, and navigating away
// cancels that context so late responses are dropped instead of applied to a
// dead screen.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/orionsagar/catalog-console/internal/api"
	"github.com/orionsagar/catalog-console/internal/guard"
	"github.com/orionsagar/catalog-console/internal/session"
	"github.com/orionsagar/catalog-console/internal/state"
)

// screen is one mounted surface of the console.
type screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (screen, tea.Cmd)
	View() string
	// capturesInput reports whether the screen is consuming raw keystrokes
	// (text entry, confirmation), which suspends the root key bindings.
	capturesInput() bool
}

// navigateMsg asks the root model to resolve and mount a path.
type navigateMsg struct{ path string }

// statusMsg replaces the status line at the bottom of the frame.
type statusMsg struct{ text string }

func navigateTo(path string) tea.Cmd {
	return func() tea.Msg { return navigateMsg{path: path} }
}

func setStatus(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}

// Options configures a Shell.
type Options struct {
	Session   *session.Store
	Client    *api.Client
	Prefs     *state.DB
	Logger    *slog.Logger
	Policy    guard.Policy
	ExportDir string
}

// core carries the dependencies every screen shares.
type core struct {
	session   *session.Store
	client    *api.Client
	prefs     *state.DB
	logger    *slog.Logger
	policy    guard.Policy
	exportDir string

	mu           sync.Mutex
	sessionDirty bool
}

func (c *core) markSessionDirty() {
	c.mu.Lock()
	c.sessionDirty = true
	c.mu.Unlock()
}

func (c *core) takeSessionDirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	dirty := c.sessionDirty
	c.sessionDirty = false
	return dirty
}

func (c *core) authorize(action guard.Action) error {
	return c.policy(c.session.Identity(), action)
}

// Model is the root bubbletea model driving the console.
type Model struct {
	core *core

	width  int
	height int

	path         string
	active       screen
	cancelActive context.CancelFunc

	status       string
	pathInput    textinput.Model
	enteringPath bool

	initCmd tea.Cmd
}

// New creates the console model. The default policy admits any authenticated
// identity.
func New(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	policy := opts.Policy
	if policy == nil {
		policy = guard.AllowAuthenticated
	}
	exportDir := opts.ExportDir
	if exportDir == "" {
		exportDir = "."
	}

	c := &core{
		session:   opts.Session,
		client:    opts.Client,
		prefs:     opts.Prefs,
		logger:    logger,
		policy:    policy,
		exportDir: exportDir,
	}
	// The subscription lives for the whole program; a logout from any screen
	// is picked up on the next message.
	opts.Session.Subscribe(c.markSessionDirty)

	m := Model{core: c, width: 100, height: 32}
	m.pathInput = textinput.New()
	m.pathInput.Prompt = "open: "
	m.pathInput.Placeholder = "/dashboard/products"
	m.pathInput.CharLimit = 120
	m.pathInput.Width = 48

	m.initCmd = m.navigate("/dashboard/products")
	return m
}

// Run drives the program until the user quits or ctx is cancelled.
func (m Model) Run(ctx context.Context) error {
	_, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd { return m.initCmd }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// A logout invalidates any mounted dashboard screen; re-resolving the
	// current path lands on the login screen.
	if m.core.takeSessionDirty() {
		if !m.core.session.LoggedIn() && strings.HasPrefix(m.path, "/dashboard") {
			cmds = append(cmds, m.navigate(m.path))
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case navigateMsg:
		cmds = append(cmds, m.navigate(msg.path))
		return m, tea.Batch(cmds...)

	case statusMsg:
		m.status = msg.text
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.enteringPath {
			switch msg.String() {
			case "esc":
				m.enteringPath = false
				m.pathInput.Blur()
				return m, tea.Batch(cmds...)
			case "enter":
				path := strings.TrimSpace(m.pathInput.Value())
				m.enteringPath = false
				m.pathInput.Blur()
				if path != "" {
					cmds = append(cmds, m.navigate(path))
				}
				return m, tea.Batch(cmds...)
			}
			m.pathInput, _ = m.pathInput.Update(msg)
			return m, tea.Batch(cmds...)
		}

		if m.active == nil || !m.active.capturesInput() {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "g":
				m.enteringPath = true
				m.pathInput.SetValue("")
				m.pathInput.Focus()
				return m, tea.Batch(cmds...)
			case "1":
				cmds = append(cmds, m.navigate("/dashboard/products"))
				return m, tea.Batch(cmds...)
			case "2":
				cmds = append(cmds, m.navigate("/dashboard/projects"))
				return m, tea.Batch(cmds...)
			case "3":
				cmds = append(cmds, m.navigate("/dashboard/auditlogs"))
				return m, tea.Batch(cmds...)
			case "L":
				m.core.session.Logout()
				m.core.takeSessionDirty()
				cmds = append(cmds, m.navigate("/login"))
				return m, tea.Batch(cmds...)
			}
		}
	}

	if m.active != nil {
		scr, cmd := m.active.Update(msg)
		m.active = scr
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	crumb := lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Render(m.path)

	sections := []string{crumb}
	if m.active != nil {
		sections = append(sections, m.active.View())
	}
	if m.enteringPath {
		sections = append(sections, m.pathInput.View())
	}

	status := strings.TrimSpace(m.status)
	if status == "" {
		status = " "
	}
	sections = append(sections, lipgloss.NewStyle().
		Padding(0, 1).
		Background(lipgloss.Color("236")).
		Foreground(lipgloss.Color("255")).
		Render(status))

	if m.active == nil || !m.active.capturesInput() {
		help := "g: open path  1: products  2: projects  3: audit logs  L: logout  q: quit"
		sections = append(sections, lipgloss.NewStyle().Faint(true).Render(help))
	}
	return strings.Join(sections, "\n")
}

// navigate resolves a path through the guard, following redirects, then
// mounts the resulting screen with a fresh context. The previous screen's
// context is cancelled so its in-flight requests die with it.
func (m *Model) navigate(path string) tea.Cmd {
	var res guard.Resolution
	for {
		res = guard.Resolve(path, m.core.session.LoggedIn())
		if !res.Redirected() {
			break
		}
		if res.Replace {
			m.status = "login required, redirecting to " + res.RedirectTo
		}
		path = res.RedirectTo
	}

	if m.cancelActive != nil {
		m.cancelActive()
		m.cancelActive = nil
	}
	ctx, cancel := context.WithCancel(context.Background())

	scr, err := m.buildScreen(res, ctx)
	if err != nil {
		cancel()
		m.status = userMessage(err)
		if path != "/dashboard/products" && strings.HasPrefix(path, "/dashboard") {
			return m.navigate("/dashboard/products")
		}
		return nil
	}

	m.cancelActive = cancel
	m.path = path
	scr, _ = scr.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
	m.active = scr
	return scr.Init()
}

func (m *Model) buildScreen(res guard.Resolution, ctx context.Context) (screen, error) {
	switch res.Screen {
	case guard.ScreenLogin:
		return newLoginScreen(m.core, ctx), nil
	case guard.ScreenRegister:
		return newRegisterScreen(m.core, ctx), nil
	case guard.ScreenProducts:
		return m.newProductsScreen(ctx), nil
	case guard.ScreenProjects:
		return m.newProjectsScreen(ctx), nil
	case guard.ScreenItems:
		projectID := res.Params.Get("projectId")
		if projectID == "" {
			return nil, errors.New("missing projectId")
		}
		return m.newItemsScreen(ctx, projectID), nil
	case guard.ScreenAuditLogs:
		return m.newAuditLogScreen(ctx), nil
	case guard.ScreenProductSummary:
		return newSummaryScreen(m.core, ctx, "product", res.Params.Get("id"), "/dashboard/products"), nil
	case guard.ScreenProjectSummary:
		return newSummaryScreen(m.core, ctx, "project", res.Params.Get("id"), "/dashboard/projects"), nil
	}
	return nil, fmt.Errorf("no screen for %q", res.Screen)
}

// userMessage prefers the backend-provided message over transport detail.
func userMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
