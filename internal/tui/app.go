package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bunchhieng/coursetree/internal/app"
	"github.com/bunchhieng/coursetree/internal/model"
	"github.com/bunchhieng/coursetree/internal/registry"
	"github.com/bunchhieng/coursetree/internal/share"
	"github.com/bunchhieng/coursetree/internal/tree"
)

const statusTimeout = 3 * time.Second

type inputMode int

const (
	inputNone inputMode = iota
	inputTitle
	inputCourseName
	inputResource
)

type appModel struct {
	sync      *tree.Synchronizer
	reg       *registry.Registry
	publisher *tree.Publisher
	copier    interface{ Copy(string) bool }
	notifier  *statusNotifier
	shareBase string

	id       string
	doc      model.TreeData
	owner    bool
	loaded   bool
	year     int
	selected int

	saveStatus    tree.SaveStatus
	mode          inputMode
	input         string
	confirmDelete bool
	width         int
	height        int
	err           error
	statusMsg     string
	statusSeq     int
}

type loadedMsg struct {
	doc   model.TreeData
	owner bool
	err   error
}

type saveStatusMsg struct {
	status tree.SaveStatus
}

type statusMsg struct {
	message string
}

type clearStatusMsg struct {
	seq int
}

type docMsg struct {
	doc     model.TreeData
	message string
}

// statusNotifier carries save status changes from the synchronizer's
// goroutine into the program. Only the latest status is kept.
type statusNotifier struct {
	ch chan tree.SaveStatus
}

func newStatusNotifier() *statusNotifier {
	return &statusNotifier{ch: make(chan tree.SaveStatus, 1)}
}

func (n *statusNotifier) notify(st tree.SaveStatus) {
	for {
		select {
		case n.ch <- st:
			return
		default:
			select {
			case <-n.ch:
			default:
			}
		}
	}
}

func (n *statusNotifier) wait() tea.Cmd {
	return func() tea.Msg {
		return saveStatusMsg{status: <-n.ch}
	}
}

func initialModel(a *app.App, id string, notifier *statusNotifier, sync *tree.Synchronizer) appModel {
	return appModel{
		sync:      sync,
		reg:       a.Registry,
		publisher: a.Publisher,
		copier:    share.NewCopier(),
		notifier:  notifier,
		shareBase: a.Config.ShareBaseURL,
		id:        id,
		year:      model.MinYear,
		width:     100,
		height:    30,
	}
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.loadTree(), m.notifier.wait())
}

func (m appModel) loadTree() tea.Cmd {
	return func() tea.Msg {
		doc, err := m.sync.Load(context.Background(), m.id)
		if err != nil {
			return loadedMsg{err: err}
		}
		owner, _ := m.reg.IsOwner(m.id)
		return loadedMsg{doc: doc, owner: owner}
	}
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.confirmDelete {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			return m.handleDeleteConfirmation(keyMsg)
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.mode != inputNone {
			return m.handleInput(msg)
		}
		return m.handleKey(msg)

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.doc = msg.doc
		m.owner = msg.owner
		m.loaded = true
		if m.owner {
			created, _ := m.reg.ConsumeJustCreated(m.id)
			unseen, _ := m.reg.ConsumeOnboarding(m.id)
			switch {
			case created:
				cmd := setStatus(&m, "Tree created. Press s to copy its link.")
				return m, cmd
			case unseen:
				cmd := setStatus(&m, "This is your tree. Press s to copy its link.")
				return m, cmd
			}
		}
		return m, nil

	case saveStatusMsg:
		m.saveStatus = msg.status
		return m, m.notifier.wait()

	case docMsg:
		m.doc = msg.doc
		m.clampSelection()
		cmd := setStatus(&m, msg.message)
		return m, cmd

	case statusMsg:
		cmd := setStatus(&m, msg.message)
		return m, cmd

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.statusMsg = ""
		}
		return m, nil
	}

	return m, nil
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, m.quit()
	}
	if !m.loaded {
		return m, nil
	}

	switch msg.String() {
	case "h", "left":
		if m.year > model.MinYear {
			m.year--
			m.selected = 0
		}
		return m, nil

	case "l", "right":
		if m.year < model.MaxYear {
			m.year++
			m.selected = 0
		}
		return m, nil

	case "j", "down":
		if m.selected < len(m.yearCourses())-1 {
			m.selected++
		}
		return m, nil

	case "k", "up":
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case "s":
		return m, m.copyLink()

	case "L":
		return m, m.like()

	case "f":
		return m, m.fork()

	case "?":
		return m, func() tea.Msg {
			return statusMsg{"Help: h/l=year, j/k=course, n=new, c=complete, 1-5=rate, a=link, x=delete, t=title, s=share, L=like, f=remix, q=quit"}
		}
	}

	if !m.owner {
		switch msg.String() {
		case "n", "c", "a", "x", "t", "1", "2", "3", "4", "5":
			cmd := setStatus(&m, "Read-only: press f to remix this tree and edit your copy")
			return m, cmd
		}
		return m, nil
	}

	switch msg.String() {
	case "n":
		m.mode = inputCourseName
		m.input = ""
		return m, nil

	case "t":
		m.mode = inputTitle
		m.input = m.doc.Title
		return m, nil

	case "a":
		if _, ok := m.current(); ok {
			m.mode = inputResource
			m.input = ""
		}
		return m, nil

	case "c":
		if c, ok := m.current(); ok {
			cmd := m.edit(tree.SetCourseStatus(c.ID, model.StatusCompleted))
			return m, cmd
		}
		return m, nil

	case "1", "2", "3", "4", "5":
		if c, ok := m.current(); ok {
			rating := int(msg.String()[0] - '0')
			review, prof := "", c.ProfReview
			if c.Review != nil {
				review = *c.Review
			}
			cmd := m.edit(tree.SaveCourse(c.ID, c.Name, rating, review, prof))
			return m, cmd
		}
		return m, nil

	case "x":
		if _, ok := m.current(); ok {
			m.confirmDelete = true
		}
		return m, nil
	}

	return m, nil
}

func (m appModel) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = inputNone
		m.input = ""
		return m, nil

	case "enter":
		mode, text := m.mode, strings.TrimSpace(m.input)
		m.mode = inputNone
		m.input = ""
		switch mode {
		case inputTitle:
			cmd := m.edit(tree.SetTitle(text))
			return m, cmd
		case inputCourseName:
			course := tree.NewCourse(m.year)
			if text != "" {
				course.Name = text
			}
			cmd := m.edit(tree.AddCourse(course))
			m.selected = len(m.yearCourses()) - 1
			return m, cmd
		case inputResource:
			c, ok := m.current()
			if !ok {
				return m, nil
			}
			res, err := model.NewResource(text, "", model.ResourceLink)
			if err != nil {
				cmd := setStatus(&m, "A link needs a URL")
				return m, cmd
			}
			cmd := m.edit(tree.AddResource(c.ID, res))
			return m, cmd
		}
		return m, nil

	case "backspace":
		if len(m.input) > 0 {
			runes := []rune(m.input)
			m.input = string(runes[:len(runes)-1])
		}
		return m, nil

	default:
		if len(msg.Runes) > 0 {
			m.input += string(msg.Runes)
		}
		return m, nil
	}
}

func (m appModel) handleDeleteConfirmation(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.confirmDelete = false
		c, ok := m.current()
		if !ok {
			return m, nil
		}
		doc, err := m.sync.ApplyEditImmediate(context.Background(), tree.DeleteCourse(c.ID))
		m.doc = doc
		m.clampSelection()
		if err != nil {
			cmd := setStatus(&m, "Delete not saved: "+err.Error())
			return m, cmd
		}
		cmd := setStatus(&m, fmt.Sprintf("Deleted %s", c.Name))
		return m, cmd

	case "n", "N", "esc":
		m.confirmDelete = false
		return m, nil

	default:
		return m, nil
	}
}

// edit applies a debounced mutation to the open tree.
func (m *appModel) edit(mut tree.Mutation) tea.Cmd {
	doc, err := m.sync.ApplyEdit(mut)
	if err != nil {
		return setStatus(m, "Error: "+err.Error())
	}
	m.doc = doc
	m.clampSelection()
	return nil
}

func (m *appModel) like() tea.Cmd {
	sync, reg := m.sync, m.reg
	return func() tea.Msg {
		added, doc, err := tree.Like(context.Background(), sync, reg)
		if err != nil && added {
			return docMsg{doc: doc, message: "Liked, but saving failed. It will be retried with your next edit."}
		}
		if err != nil {
			return statusMsg{fmt.Sprintf("Error: %v", err)}
		}
		if !added {
			return statusMsg{"You already liked this tree"}
		}
		return docMsg{doc: doc, message: fmt.Sprintf("Liked (%d)", doc.Likes)}
	}
}

func (m *appModel) fork() tea.Cmd {
	pub, doc, base := m.publisher, m.doc, m.shareBase
	return func() tea.Msg {
		id, _, err := pub.Fork(context.Background(), doc)
		if err != nil {
			return statusMsg{"Could not remix tree, please try again"}
		}
		return statusMsg{"Remixed: " + share.Link(base, id)}
	}
}

func (m *appModel) copyLink() tea.Cmd {
	link := share.Link(m.shareBase, m.id)
	copier := m.copier
	return func() tea.Msg {
		if copier.Copy(link) {
			return statusMsg{"Copied link: " + link}
		}
		return statusMsg{"Copy this link: " + link}
	}
}

// quit flushes a pending edit before leaving.
func (m appModel) quit() tea.Cmd {
	sync := m.sync
	return func() tea.Msg {
		// A failed flush is logged by the synchronizer.
		_ = sync.Flush(context.Background())
		sync.Close()
		return tea.QuitMsg{}
	}
}

func (m appModel) yearCourses() []model.Course {
	return m.doc.CoursesByYear(m.year)
}

func (m appModel) current() (model.Course, bool) {
	courses := m.yearCourses()
	if m.selected < 0 || m.selected >= len(courses) {
		return model.Course{}, false
	}
	return courses[m.selected], true
}

func (m *appModel) clampSelection() {
	n := len(m.yearCourses())
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func setStatus(m *appModel, message string) tea.Cmd {
	m.statusSeq++
	m.statusMsg = message
	seq := m.statusSeq
	return tea.Tick(statusTimeout, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

// Run opens tree id in the interactive editor.
func Run(a *app.App, id string) error {
	notifier := newStatusNotifier()
	sync := a.Synchronizer(notifier.notify)
	defer sync.Close()

	p := tea.NewProgram(initialModel(a, id, notifier, sync), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
