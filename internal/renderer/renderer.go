package renderer

import (
	"bytes"
	"embed"
	"fmt"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

const templateDir = "templates/"

//go:embed templates/*.tmpl
var tplFS embed.FS

var tplCache sync.Map

// funcMap is sprig's text functions (ternary, fail, ...) plus the C literal helpers.
func funcMap() template.FuncMap {
	fm := sprig.TxtFuncMap()
	fm["cstring"] = CString
	return fm
}

// exec executes a pre-parsed template.
func exec(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template %q: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// Render merges the named template file with data, using a cache.
func Render(name TemplateName, data any) (string, error) {
	strName := string(name)

	// only *template.Template values are ever stored
	if cached, ok := tplCache.Load(strName); ok {
		return exec(cached.(*template.Template), data)
	}

	path := templateDir + strName
	t, err := template.New(strName).
		Option("missingkey=error").
		Funcs(funcMap()).
		ParseFS(tplFS, path)
	if err != nil {
		return "", fmt.Errorf("parsing template %q: %w", path, err)
	}

	// concurrent first renders may both parse; the first stored wins
	actual, _ := tplCache.LoadOrStore(strName, t)
	return exec(actual.(*template.Template), data)
}
