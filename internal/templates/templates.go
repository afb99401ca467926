// Package templates holds the starter course lists offered when a new tree
// is created.
package templates

import (
	"embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/bunchhieng/coursetree/internal/model"
)

// Blank is the name of the empty template.
const Blank = "blank"

//go:embed data/*.yaml
var dataFS embed.FS

// Template is a named starter set of courses.
type Template struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Courses     []course `yaml:"courses"`
}

type course struct {
	Name      string     `yaml:"name"`
	Year      int        `yaml:"year"`
	Status    string     `yaml:"status"`
	Resources []resource `yaml:"resources"`
}

type resource struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
	Type  string `yaml:"type"`
}

var (
	loadOnce  sync.Once
	templates map[string]Template
	loadErr   error
)

func load() (map[string]Template, error) {
	loadOnce.Do(func() {
		entries, err := dataFS.ReadDir("data")
		if err != nil {
			loadErr = err
			return
		}
		templates = make(map[string]Template, len(entries))
		for _, e := range entries {
			data, err := dataFS.ReadFile("data/" + e.Name())
			if err != nil {
				loadErr = err
				return
			}
			var t Template
			if err := yaml.Unmarshal(data, &t); err != nil {
				loadErr = fmt.Errorf("parse template %s: %w", e.Name(), err)
				return
			}
			templates[t.Name] = t
		}
	})
	return templates, loadErr
}

// Names lists the available templates, sorted.
func Names() []string {
	all, err := load()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(all))
	for n := range all {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Get returns the template called name.
func Get(name string) (Template, error) {
	all, err := load()
	if err != nil {
		return Template{}, err
	}
	t, ok := all[name]
	if !ok {
		return Template{}, fmt.Errorf("unknown template %q", name)
	}
	return t, nil
}

// Tree builds a new tree seeded with the template's courses. Course and
// resource ids are assigned by the caller when the tree is published.
func (t Template) Tree() model.TreeData {
	doc := model.NewTree()
	for i, c := range t.Courses {
		status := model.Status(c.Status)
		if !status.Valid() {
			status = model.StatusLocked
		}
		mc := model.Course{
			ID:        fmt.Sprintf("%s-%d", t.Name, i+1),
			Name:      c.Name,
			Year:      c.Year,
			Status:    status,
			Resources: make([]model.Resource, 0, len(c.Resources)),
		}
		for j, r := range c.Resources {
			title := r.Title
			if title == "" {
				title = model.TitleFromURL(r.URL)
			}
			mc.Resources = append(mc.Resources, model.Resource{
				ID:    fmt.Sprintf("%s-res-%d", mc.ID, j),
				URL:   r.URL,
				Title: title,
				Type:  model.ParseResourceType(r.Type),
			})
		}
		doc.Courses = append(doc.Courses, mc)
	}
	return doc
}
