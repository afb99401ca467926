package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bunchhieng/coursetree/internal/app"
	"github.com/bunchhieng/coursetree/internal/model"
	"github.com/bunchhieng/coursetree/internal/registry"
	"github.com/bunchhieng/coursetree/internal/share"
	"github.com/bunchhieng/coursetree/internal/templates"
	"github.com/bunchhieng/coursetree/internal/tree"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

// ErrNotOwner is returned when an owner-only action targets a tree this
// browser did not create or fork.
var ErrNotOwner = errors.New("not the owner of this tree")

// Copier puts text on the clipboard and reports whether it succeeded.
type Copier interface {
	Copy(text string) bool
}

// Commands handles all CLI command execution.
type Commands struct {
	app    *app.App
	out    io.Writer
	copier Copier
}

// NewCommands creates a new Commands instance writing to out.
func NewCommands(a *app.App, out io.Writer, copier Copier) *Commands {
	if copier == nil {
		copier = share.NewCopier()
	}
	return &Commands{app: a, out: out, copier: copier}
}

func (c *Commands) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// load opens a tree through a synchronizer. The caller must Close it.
func (c *Commands) load(ctx context.Context, id string) (*tree.Synchronizer, model.TreeData, error) {
	if !model.ValidateTreeID(id) {
		return nil, model.TreeData{}, fmt.Errorf("invalid ID format: %s", id)
	}
	sync := c.app.Synchronizer(nil)
	doc, err := sync.Load(ctx, id)
	if err != nil {
		return nil, model.TreeData{}, c.handleNotFound(err, id, "load tree")
	}
	return sync, doc, nil
}

// New creates a tree from a template.
func (c *Commands) New(ctx context.Context, templateName string) error {
	if templateName == "" {
		templateName = templates.Blank
	}
	tmpl, err := templates.Get(templateName)
	if err != nil {
		return fmt.Errorf("%w (available: %s)", err, strings.Join(templates.Names(), ", "))
	}

	id, doc, err := c.app.Publisher.Create(ctx, tmpl.Tree())
	if err != nil {
		return fmt.Errorf("could not create tree, please try again: %w", err)
	}
	c.printf("%sCreated%s tree %s%s%s with %d course(s): %s%s%s\n",
		colorGreen, colorReset, colorBold, id, colorReset, len(doc.Courses),
		colorCyan, share.Link(c.app.Config.ShareBaseURL, id), colorReset)
	return nil
}

// Show prints a tree grouped by year.
func (c *Commands) Show(ctx context.Context, id string) error {
	sync, doc, err := c.load(ctx, id)
	if err != nil {
		return err
	}
	defer sync.Close()

	owner, _ := c.app.Registry.IsOwner(id)
	printTree(c.out, id, doc, owner)

	if owner {
		created, _ := c.app.Registry.ConsumeJustCreated(id)
		unseen, _ := c.app.Registry.ConsumeOnboarding(id)
		if created || unseen {
			c.printf("\n%sTip:%s share it with %scoursetree share %s%s\n", colorYellow, colorReset, colorBold, id, colorReset)
		}
	}
	return nil
}

// edit applies an owner-only mutation and writes it immediately.
func (c *Commands) edit(ctx context.Context, id string, m tree.Mutation) (model.TreeData, error) {
	sync, _, err := c.load(ctx, id)
	if err != nil {
		return model.TreeData{}, err
	}
	defer sync.Close()

	owner, err := c.app.Registry.IsOwner(id)
	if err != nil {
		return model.TreeData{}, err
	}
	if !owner {
		return model.TreeData{}, fmt.Errorf("tree %s%s%s: %w; fork it first", colorBold, id, colorReset, ErrNotOwner)
	}
	return sync.ApplyEditImmediate(ctx, m)
}

// requireCourse loads the tree and checks courseID exists in it.
func (c *Commands) requireCourse(ctx context.Context, id, courseID string) error {
	sync, doc, err := c.load(ctx, id)
	if err != nil {
		return err
	}
	sync.Close()
	if doc.FindCourse(courseID) < 0 {
		return fmt.Errorf("course %s%s%s: %w", colorBold, courseID, colorReset, model.ErrCourseNotFound)
	}
	return nil
}

// SetTitle renames a tree.
func (c *Commands) SetTitle(ctx context.Context, id, title string) error {
	doc, err := c.edit(ctx, id, tree.SetTitle(title))
	if err != nil {
		return err
	}
	c.printf("%sRenamed%s tree %s%s%s to %q.\n", colorGreen, colorReset, colorBold, id, colorReset, doc.Title)
	return nil
}

// SetContact sets or clears the owner's contact info.
func (c *Commands) SetContact(ctx context.Context, id, info string) error {
	doc, err := c.edit(ctx, id, tree.SetContactInfo(info))
	if err != nil {
		return err
	}
	if doc.ContactInfo == nil {
		c.printf("%sCleared%s contact info.\n", colorYellow, colorReset)
		return nil
	}
	c.printf("%sUpdated%s contact info.\n", colorGreen, colorReset)
	return nil
}

// SetAuthor sets or clears the author name.
func (c *Commands) SetAuthor(ctx context.Context, id, name string) error {
	doc, err := c.edit(ctx, id, tree.SetAuthorName(name))
	if err != nil {
		return err
	}
	c.printf("%sAuthor%s is now %s%s%s.\n", colorGreen, colorReset, colorBold, doc.Author(), colorReset)
	return nil
}

// AddCourse adds a course to a year column.
func (c *Commands) AddCourse(ctx context.Context, id string, year int, name string) error {
	if year < model.MinYear || year > model.MaxYear {
		return fmt.Errorf("year must be between %d and %d", model.MinYear, model.MaxYear)
	}
	course := tree.NewCourse(year)
	if name = strings.TrimSpace(name); name != "" {
		course.Name = name
	}
	if _, err := c.edit(ctx, id, tree.AddCourse(course)); err != nil {
		return err
	}
	c.printf("%sAdded%s course %s%s%s (%s) to year %d.\n", colorGreen, colorReset, colorBold, course.ID, colorReset, course.Name, year)
	return nil
}

// Review saves a rating and review, marking the course reviewed.
func (c *Commands) Review(ctx context.Context, id, courseID, name string, rating int, review, profReview string) error {
	if rating < 0 || rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5, or 0 for none")
	}
	if err := c.requireCourse(ctx, id, courseID); err != nil {
		return err
	}
	doc, err := c.edit(ctx, id, func(t model.TreeData) model.TreeData {
		if name == "" {
			if i := t.FindCourse(courseID); i >= 0 {
				name = t.Courses[i].Name
			}
		}
		return tree.SaveCourse(courseID, name, rating, review, profReview)(t)
	})
	if err != nil {
		return err
	}
	course := doc.Courses[doc.FindCourse(courseID)]
	c.printf("%sReviewed%s %s%s%s.\n", colorGreen, colorReset, colorBold, course.Name, colorReset)
	return nil
}

// SetStatus moves a course forward to completed.
func (c *Commands) SetStatus(ctx context.Context, id, courseID string, status model.Status) error {
	if err := c.requireCourse(ctx, id, courseID); err != nil {
		return err
	}
	doc, err := c.edit(ctx, id, tree.SetCourseStatus(courseID, status))
	if err != nil {
		return err
	}
	got := doc.Courses[doc.FindCourse(courseID)].Status
	if got != status {
		return fmt.Errorf("course stays %s: status only moves forward, and reviewed is set by review", got)
	}
	c.printf("%sMarked%s course %s%s%s as %s.\n", colorGreen, colorReset, colorBold, courseID, colorReset, status)
	return nil
}

// RemoveCourse deletes a course. The write is immediate.
func (c *Commands) RemoveCourse(ctx context.Context, id, courseID string) error {
	if err := c.requireCourse(ctx, id, courseID); err != nil {
		return err
	}
	if _, err := c.edit(ctx, id, tree.DeleteCourse(courseID)); err != nil {
		return err
	}
	c.printf("%sDeleted%s course %s%s%s.\n", colorRed, colorReset, colorBold, courseID, colorReset)
	return nil
}

// AddResource attaches a link to a course.
func (c *Commands) AddResource(ctx context.Context, id, courseID, rawURL, title, typ string) error {
	res, err := model.NewResource(rawURL, title, model.ParseResourceType(typ))
	if err != nil {
		return err
	}
	if err := c.requireCourse(ctx, id, courseID); err != nil {
		return err
	}
	if _, err := c.edit(ctx, id, tree.AddResource(courseID, res)); err != nil {
		return err
	}
	c.printf("%sAdded%s resource %s%s%s: %s%s%s\n", colorGreen, colorReset, colorBold, res.ID, colorReset, colorCyan, res.Title, colorReset)
	return nil
}

// RemoveResource detaches a link from a course.
func (c *Commands) RemoveResource(ctx context.Context, id, courseID, resourceID string) error {
	if err := c.requireCourse(ctx, id, courseID); err != nil {
		return err
	}
	if _, err := c.edit(ctx, id, tree.DeleteResource(courseID, resourceID)); err != nil {
		return err
	}
	c.printf("%sDeleted%s resource %s%s%s.\n", colorRed, colorReset, colorBold, resourceID, colorReset)
	return nil
}

// Fork copies a tree into a new one owned by this browser.
func (c *Commands) Fork(ctx context.Context, id string) error {
	sync, doc, err := c.load(ctx, id)
	if err != nil {
		return err
	}
	sync.Close()

	newID, forked, err := c.app.Publisher.Fork(ctx, doc)
	if err != nil {
		return fmt.Errorf("could not remix tree, please try again: %w", err)
	}
	c.printf("%sRemixed%s %s%s%s into %s%s%s (%q): %s%s%s\n",
		colorGreen, colorReset, colorBold, id, colorReset, colorBold, newID, colorReset, forked.Title,
		colorCyan, share.Link(c.app.Config.ShareBaseURL, newID), colorReset)
	return nil
}

// Collect toggles a tree in the collected list.
func (c *Commands) Collect(ctx context.Context, id string) error {
	sync, doc, err := c.load(ctx, id)
	if err != nil {
		return err
	}
	sync.Close()

	if owner, _ := c.app.Registry.IsOwner(id); owner {
		return fmt.Errorf("tree %s is yours; collecting is for other people's trees", id)
	}
	list, err := c.app.Registry.ToggleCollected(registry.CollectedTree{
		ID:         id,
		Title:      doc.Title,
		AuthorName: doc.Author(),
	})
	if err != nil {
		return fmt.Errorf("toggle collection: %w", err)
	}
	for _, t := range list {
		if t.ID == id {
			c.printf("%sCollected%s %s%s%s (%d in collection).\n", colorGreen, colorReset, colorBold, doc.Title, colorReset, len(list))
			return nil
		}
	}
	c.printf("%sRemoved%s %s%s%s from collection.\n", colorYellow, colorReset, colorBold, doc.Title, colorReset)
	return nil
}

// Like adds this browser's like to a tree.
func (c *Commands) Like(ctx context.Context, id string) error {
	sync, _, err := c.load(ctx, id)
	if err != nil {
		return err
	}
	defer sync.Close()

	added, doc, err := tree.Like(ctx, sync, c.app.Registry)
	if err != nil {
		return fmt.Errorf("like tree: %w", err)
	}
	if !added {
		c.printf("You already liked this tree (%d like(s)).\n", doc.Likes)
		return nil
	}
	c.printf("%sLiked%s %s%s%s (%d like(s)).\n", colorGreen, colorReset, colorBold, doc.Title, colorReset, doc.Likes)
	return nil
}

// Share copies the tree's link to the clipboard, or prints it for manual
// copying.
func (c *Commands) Share(ctx context.Context, id string) error {
	sync, _, err := c.load(ctx, id)
	if err != nil {
		return err
	}
	sync.Close()

	link := share.Link(c.app.Config.ShareBaseURL, id)
	if c.copier.Copy(link) {
		c.printf("%sCopied%s link to clipboard: %s%s%s\n", colorGreen, colorReset, colorCyan, link, colorReset)
		return nil
	}
	c.printf("Copy this link: %s%s%s\n", colorCyan, link, colorReset)
	return nil
}

// History prints recently opened trees after collapsing stale duplicates.
func (c *Commands) History() error {
	if _, err := c.app.Registry.CleanupHistory(); err != nil {
		return fmt.Errorf("clean history: %w", err)
	}
	history, err := c.app.Registry.History()
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	if len(history) == 0 {
		c.printf("No recent trees.\n")
		return nil
	}
	rows := make([][]string, len(history))
	for i, h := range history {
		rows[i] = []string{h.ID, h.Title, formatMillis(h.Timestamp)}
	}
	printTable(c.out, []string{"ID", "TITLE", "OPENED"}, rows)
	return nil
}

// Collected prints the collected trees.
func (c *Commands) Collected() error {
	list, err := c.app.Registry.Collected()
	if err != nil {
		return fmt.Errorf("read collection: %w", err)
	}
	if len(list) == 0 {
		c.printf("No collected trees.\n")
		return nil
	}
	rows := make([][]string, len(list))
	for i, t := range list {
		rows[i] = []string{t.ID, t.Title, t.AuthorName}
	}
	printTable(c.out, []string{"ID", "TITLE", "AUTHOR"}, rows)
	return nil
}

// Export writes a tree snapshot as JSON.
func (c *Commands) Export(ctx context.Context, id string, w io.Writer) error {
	sync, doc, err := c.load(ctx, id)
	if err != nil {
		return err
	}
	sync.Close()
	return share.Export(w, doc)
}

// Import creates a new owned tree from a snapshot file.
func (c *Commands) Import(ctx context.Context, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	doc, err := share.Import(file)
	if err != nil {
		return fmt.Errorf("import %s: %w", filename, err)
	}
	id, created, err := c.app.Publisher.Create(ctx, doc)
	if err != nil {
		return fmt.Errorf("could not create tree, please try again: %w", err)
	}
	c.printf("%sImported%s %s%d%s course(s) into tree %s%s%s.\n",
		colorGreen, colorReset, colorBold, len(created.Courses), colorReset, colorBold, id, colorReset)
	return nil
}

// Version prints the version.
func (c *Commands) Version(version string) {
	c.printf("coursetree version %s\n", version)
}

func (c *Commands) handleNotFound(err error, id string, action string) error {
	if errors.Is(err, model.ErrNotFound) {
		msg := fmt.Sprintf("tree %s%s%s not found", colorBold, id, colorReset)
		if suggestion := c.suggestID(id); suggestion != "" {
			msg += fmt.Sprintf("\n\n%sDid you mean:%s %s%s%s?", colorYellow, colorReset, colorBold, suggestion, colorReset)
		}
		return fmt.Errorf("%s: %w", msg, model.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", action, err)
}

// ParseID validates an ID string format.
func ParseID(s string) (string, error) {
	if !model.ValidateTreeID(s) {
		return "", fmt.Errorf("invalid ID format: %s", s)
	}
	return s, nil
}
