// Package web holds the embedded HTML templates.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"time"

	"github.com/gin-contrib/multitemplate"
	"github.com/gin-gonic/gin/render"

	"yatube/internal/services"
	"yatube/internal/utils"
)

//go:embed templates
var files embed.FS

// Page views rendered inside the base layout.
var pages = []string{
	"posts/index.html",
	"posts/group_list.html",
	"posts/profile.html",
	"posts/post_detail.html",
	"posts/create_post.html",
	"posts/follow.html",
	"posts/groups.html",
	"users/login.html",
	"users/signup.html",
	"core/404.html",
	"core/500.html",
}

// Fragments rendered on their own, without the layout.
var fragments = map[string]string{
	// cached body of the home page
	"posts/index_listing.html": "listing",
}

type Templates struct {
	render multitemplate.Render
}

func FuncMap() template.FuncMap {
	return template.FuncMap{
		"dict": func(values ...any) (map[string]any, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"add": func(a, b int) int {
			return a + b
		},
		"date": func(t time.Time) string {
			return t.Format("2 January 2006 15:04")
		},
		"markdown": utils.RenderMarkdown,
		"excerpt":  utils.Excerpt,
		"mediaURL": services.URL,
	}
}

func read(name string) (string, error) {
	b, err := fs.ReadFile(files, path.Join("templates", name))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func readDir(dir string) ([]string, error) {
	entries, err := fs.ReadDir(files, path.Join("templates", dir))
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		s, err := read(path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Load parses every view with the layout and shared includes.
func Load() (t *Templates, err error) {
	defer func() {
		// multitemplate panics on parse errors
		if r := recover(); r != nil {
			err = fmt.Errorf("parse templates: %v", r)
		}
	}()

	layout, err := read("layouts/base.html")
	if err != nil {
		return nil, err
	}
	includes, err := readDir("includes")
	if err != nil {
		return nil, err
	}

	funcMap := FuncMap()
	r := multitemplate.New()
	for _, name := range pages {
		view, err := read("views/" + name)
		if err != nil {
			return nil, err
		}
		parts := append([]string{layout}, includes...)
		r.AddFromStringsFuncs(name, funcMap, append(parts, view)...)
	}
	for name, root := range fragments {
		view, err := read("views/" + name)
		if err != nil {
			return nil, err
		}
		parts := append([]string{`{{template "` + root + `" .}}`}, includes...)
		r.AddFromStringsFuncs(name, funcMap, append(parts, view)...)
	}
	return &Templates{render: r}, nil
}

// HTMLRender plugs the templates into gin.
func (t *Templates) HTMLRender() render.HTMLRender {
	return t.render
}

// Execute renders name into a byte slice.
func (t *Templates) Execute(name string, data any) ([]byte, error) {
	tmpl, ok := t.render[name]
	if !ok {
		return nil, fmt.Errorf("template %s not found", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
