package shell

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/orionsagar/catalog-console/internal/guard"
	"github.com/orionsagar/catalog-console/internal/resource"
)

type listMode int

const (
	modeBrowse listMode = iota
	modeSearch
	modeForm
	modeConfirmDelete
)

// rowItem is one rendered collection row.
type rowItem struct {
	id    string
	title string
	desc  string
}

func (r rowItem) Title() string       { return r.title }
func (r rowItem) Description() string { return r.desc }
func (r rowItem) FilterValue() string { return r.title }

// fieldSpec describes one form input for an entity type.
type fieldSpec[T any] struct {
	key       string
	label     string
	fromDraft func(T) string
}

// Messages carry the context of the mount that issued the request; a message
// tagged with a different context belongs to an unmounted screen and is
// dropped.
type listLoadedMsg struct {
	ctx context.Context
	err error
}

type listSavedMsg struct {
	ctx context.Context
	err error
}

type listDeletedMsg struct {
	ctx context.Context
	err error
}

// listScreen is the shared collection surface behind the products, projects,
// items and audit log screens.
type listScreen[T resource.Entity] struct {
	core *core
	ctx  context.Context

	name     string
	route    string
	backPath string
	ctrl     *resource.Controller[T]
	list     list.Model

	rowLine  func(T) (title, desc string)
	specs    []fieldSpec[T]
	apply    func(T, map[string]string) (T, error)
	validate func(T) error
	readOnly bool
	onOpen   func(id string) tea.Cmd
	extraKey func(key string) (tea.Cmd, bool)
	extraMsg func(msg tea.Msg) (tea.Cmd, bool)
	mount    func() tea.Cmd
	hints    string

	inputs []textinput.Model
	search textinput.Model
	focus  int

	mode   listMode
	busy   bool
	width  int
	height int
}

// newListScreen finishes construction of a listScreen literal.
func newListScreen[T resource.Entity](ls *listScreen[T], title string) *listScreen[T] {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	ls.list = l

	ls.inputs = make([]textinput.Model, 0, len(ls.specs))
	for _, spec := range ls.specs {
		in := textinput.New()
		in.Prompt = spec.label + ": "
		in.CharLimit = 200
		in.Width = 40
		ls.inputs = append(ls.inputs, in)
	}

	ls.search = textinput.New()
	ls.search.Prompt = "filter: "
	ls.search.CharLimit = 120
	ls.search.Width = 40

	if ls.validate == nil {
		ls.validate = func(T) error { return nil }
	}
	return ls
}

func (ls *listScreen[T]) Init() tea.Cmd {
	if term, err := ls.core.prefs.LoadSearch(ls.route); err == nil && term != "" {
		ls.ctrl.SetSearch(term)
	}
	if ls.mount != nil {
		return ls.mount()
	}
	return ls.load()
}

func (ls *listScreen[T]) capturesInput() bool {
	return ls.mode != modeBrowse
}

func (ls *listScreen[T]) load() tea.Cmd {
	ls.busy = true
	ctx, ctrl := ls.ctx, ls.ctrl
	return func() tea.Msg {
		return listLoadedMsg{ctx: ctx, err: ctrl.Load(ctx)}
	}
}

// refresh rebuilds the visible rows from the controller.
func (ls *listScreen[T]) refresh() {
	visible := ls.ctrl.Visible()
	items := make([]list.Item, 0, len(visible))
	for _, record := range visible {
		title, desc := ls.rowLine(record)
		items = append(items, rowItem{id: record.EntityID(), title: title, desc: desc})
	}
	ls.list.SetItems(items)
}

func (ls *listScreen[T]) selectedID() string {
	if row, ok := ls.list.SelectedItem().(rowItem); ok {
		return row.id
	}
	return ""
}

func (ls *listScreen[T]) resize() {
	h := ls.height - 6
	if h < 4 {
		h = 4
	}
	ls.list.SetSize(ls.width, h)
}

func (ls *listScreen[T]) Update(msg tea.Msg) (screen, tea.Cmd) {
	if ls.extraMsg != nil {
		if cmd, handled := ls.extraMsg(msg); handled {
			return ls, cmd
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		ls.width, ls.height = msg.Width, msg.Height
		ls.resize()
		return ls, nil

	case listLoadedMsg:
		if msg.ctx != ls.ctx {
			return ls, nil
		}
		ls.busy = false
		if msg.err != nil {
			if errors.Is(msg.err, context.Canceled) {
				return ls, nil
			}
			return ls, setStatus(userMessage(msg.err))
		}
		ls.refresh()
		return ls, nil

	case listSavedMsg:
		if msg.ctx != ls.ctx {
			return ls, nil
		}
		ls.busy = false
		if msg.err != nil {
			if errors.Is(msg.err, context.Canceled) {
				return ls, nil
			}
			// Keep the form open so the values can be corrected.
			return ls, setStatus(userMessage(msg.err))
		}
		ls.mode = modeBrowse
		ls.blurInputs()
		ls.refresh()
		return ls, setStatus("saved")

	case listDeletedMsg:
		if msg.ctx != ls.ctx {
			return ls, nil
		}
		ls.busy = false
		if msg.err != nil {
			if errors.Is(msg.err, context.Canceled) {
				return ls, nil
			}
			return ls, setStatus(userMessage(msg.err))
		}
		ls.refresh()
		return ls, setStatus("deleted")

	case tea.KeyMsg:
		switch ls.mode {
		case modeSearch:
			return ls.updateSearch(msg)
		case modeForm:
			return ls.updateForm(msg)
		case modeConfirmDelete:
			return ls.updateConfirm(msg)
		}
		return ls.updateBrowse(msg)
	}

	var cmd tea.Cmd
	ls.list, cmd = ls.list.Update(msg)
	return ls, cmd
}

func (ls *listScreen[T]) updateBrowse(msg tea.KeyMsg) (screen, tea.Cmd) {
	if ls.busy {
		var cmd tea.Cmd
		ls.list, cmd = ls.list.Update(msg)
		return ls, cmd
	}

	switch msg.String() {
	case "/":
		ls.mode = modeSearch
		ls.search.SetValue(ls.ctrl.Search())
		ls.search.Focus()
		return ls, nil

	case "r":
		return ls, ls.load()

	case "n":
		if ls.readOnly {
			return ls, nil
		}
		if err := ls.core.authorize(guard.ActionCreate); err != nil {
			return ls, setStatus(err.Error())
		}
		var zero T
		return ls.openForm(zero)

	case "e":
		if ls.readOnly {
			return ls, nil
		}
		if err := ls.core.authorize(guard.ActionUpdate); err != nil {
			return ls, setStatus(err.Error())
		}
		id := ls.selectedID()
		if id == "" {
			return ls, nil
		}
		if err := ls.ctrl.BeginEdit(id); err != nil {
			return ls, setStatus(userMessage(err))
		}
		return ls.openForm(ls.ctrl.Draft())

	case "d":
		if ls.readOnly {
			return ls, nil
		}
		if err := ls.core.authorize(guard.ActionDelete); err != nil {
			return ls, setStatus(err.Error())
		}
		id := ls.selectedID()
		if id == "" {
			return ls, nil
		}
		if err := ls.ctrl.RequestDelete(id); err != nil {
			return ls, setStatus(userMessage(err))
		}
		ls.mode = modeConfirmDelete
		return ls, nil

	case "x":
		if err := ls.core.authorize(guard.ActionExport); err != nil {
			return ls, setStatus(err.Error())
		}
		path, err := ls.ctrl.ExportFile(ls.core.exportDir)
		if err != nil {
			return ls, setStatus(userMessage(err))
		}
		return ls, setStatus("exported " + path)

	case "enter":
		if ls.onOpen != nil {
			if id := ls.selectedID(); id != "" {
				return ls, ls.onOpen(id)
			}
		}
		return ls, nil

	case "esc", "backspace":
		if ls.backPath != "" {
			return ls, navigateTo(ls.backPath)
		}
	}

	if ls.extraKey != nil {
		if cmd, handled := ls.extraKey(msg.String()); handled {
			return ls, cmd
		}
	}

	var cmd tea.Cmd
	ls.list, cmd = ls.list.Update(msg)
	return ls, cmd
}

func (ls *listScreen[T]) updateSearch(msg tea.KeyMsg) (screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		ls.mode = modeBrowse
		ls.search.Blur()
		return ls, nil
	case "enter":
		term := strings.TrimSpace(ls.search.Value())
		ls.ctrl.SetSearch(term)
		if err := ls.core.prefs.SaveSearch(ls.route, term); err != nil {
			ls.core.logger.Warn("failed to persist search", "route", ls.route, "error", err)
		}
		ls.mode = modeBrowse
		ls.search.Blur()
		ls.refresh()
		return ls, nil
	}
	ls.search, _ = ls.search.Update(msg)
	return ls, nil
}

func (ls *listScreen[T]) openForm(draft T) (screen, tea.Cmd) {
	for i, spec := range ls.specs {
		ls.inputs[i].SetValue(spec.fromDraft(draft))
		ls.inputs[i].Blur()
	}
	ls.focus = 0
	if len(ls.inputs) > 0 {
		ls.inputs[0].Focus()
	}
	ls.mode = modeForm
	return ls, nil
}

func (ls *listScreen[T]) blurInputs() {
	for i := range ls.inputs {
		ls.inputs[i].Blur()
	}
}

func (ls *listScreen[T]) setFocus(i int) {
	ls.blurInputs()
	ls.focus = i
	ls.inputs[i].Focus()
}

func (ls *listScreen[T]) updateForm(msg tea.KeyMsg) (screen, tea.Cmd) {
	if ls.busy {
		return ls, nil
	}

	switch msg.String() {
	case "esc":
		ls.mode = modeBrowse
		if ls.ctrl.State() == resource.Editing {
			ls.ctrl.CancelEdit()
		}
		ls.blurInputs()
		return ls, nil

	case "tab", "down":
		ls.setFocus((ls.focus + 1) % len(ls.inputs))
		return ls, nil

	case "shift+tab", "up":
		ls.setFocus((ls.focus + len(ls.inputs) - 1) % len(ls.inputs))
		return ls, nil

	case "enter":
		if ls.focus < len(ls.inputs)-1 {
			ls.setFocus(ls.focus + 1)
			return ls, nil
		}
		return ls.submitForm()
	}

	ls.inputs[ls.focus], _ = ls.inputs[ls.focus].Update(msg)
	return ls, nil
}

func (ls *listScreen[T]) submitForm() (screen, tea.Cmd) {
	values := map[string]string{}
	for i, spec := range ls.specs {
		if v := strings.TrimSpace(ls.inputs[i].Value()); v != "" {
			values[spec.key] = v
		}
	}

	var base T
	if ls.ctrl.State() == resource.Editing {
		base = ls.ctrl.Draft()
	}
	draft, err := ls.apply(base, values)
	if err != nil {
		return ls, setStatus(err.Error())
	}
	if err := ls.validate(draft); err != nil {
		return ls, setStatus(userMessage(err))
	}
	ls.ctrl.SetDraft(draft)

	ls.busy = true
	ctx, ctrl := ls.ctx, ls.ctrl
	return ls, func() tea.Msg {
		return listSavedMsg{ctx: ctx, err: ctrl.Submit(ctx)}
	}
}

func (ls *listScreen[T]) updateConfirm(msg tea.KeyMsg) (screen, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		ls.mode = modeBrowse
		ls.busy = true
		ctx, ctrl := ls.ctx, ls.ctrl
		return ls, func() tea.Msg {
			return listDeletedMsg{ctx: ctx, err: ctrl.ConfirmDelete(ctx)}
		}
	case "n", "esc":
		ls.ctrl.CancelDelete()
		ls.mode = modeBrowse
		return ls, nil
	}
	return ls, nil
}

func (ls *listScreen[T]) View() string {
	switch ls.mode {
	case modeForm:
		return ls.formView()
	case modeSearch:
		return ls.list.View() + "\n" + ls.search.View() + "\n" +
			lipgloss.NewStyle().Faint(true).Render("enter: apply  esc: cancel")
	case modeConfirmDelete:
		prompt := "delete " + ls.ctrl.PendingDeleteID() + "?  y: confirm  n: cancel"
		return ls.list.View() + "\n" +
			lipgloss.NewStyle().Bold(true).Render(prompt)
	}

	out := ls.list.View()
	if ls.hints != "" {
		out += "\n" + lipgloss.NewStyle().Faint(true).Render(ls.hints)
	}
	return out
}

func (ls *listScreen[T]) formView() string {
	title := "New " + ls.name
	if ls.ctrl.State() == resource.Editing {
		title = "Edit " + ls.name + " " + ls.ctrl.EditingID()
	}

	lines := make([]string, 0, len(ls.inputs)+2)
	lines = append(lines, lipgloss.NewStyle().Bold(true).Render(title))
	for i := range ls.inputs {
		lines = append(lines, ls.inputs[i].View())
	}
	lines = append(lines, lipgloss.NewStyle().Faint(true).Render("enter: next/save  tab: switch  esc: cancel"))

	width := ls.width - 4
	if width > 64 {
		width = 64
	}
	if width < 20 {
		width = 20
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		Width(width).
		Render(strings.Join(lines, "\n"))
}
