package server

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed templates/*.html
var templateFiles embed.FS

type pages struct {
	index   *template.Template
	login   *template.Template
	secured *template.Template
}

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a template from the embedded filesystem
func ParseTemplate(name string) (*template.Template, error) {
	content, err := fs.ReadFile(TemplateFilesFS(), name)
	if err != nil {
		return nil, err
	}
	return template.New(name).Parse(string(content))
}

func parsePages() (*pages, error) {
	var (
		p   pages
		err error
	)
	if p.index, err = ParseTemplate("index.html"); err != nil {
		return nil, err
	}
	if p.login, err = ParseTemplate("login.html"); err != nil {
		return nil, err
	}
	if p.secured, err = ParseTemplate("secured.html"); err != nil {
		return nil, err
	}
	return &p, nil
}
