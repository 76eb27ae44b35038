package echoweb

import (
	"embed"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/marksboard/core/marks"
	"github.com/trezcool/marksboard/core/portal"
	"github.com/trezcool/marksboard/core/student"
)

// pages
const (
	signupPage    = "signup"
	loginPage     = "login"
	dashboardPage = "dashboard"
	tablePage     = "table"
	errorPage     = "error"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageData is what every page template is executed with.
type pageData struct {
	AppName string
	Title   string
	Student *student.Student
	Notice  portal.Notice

	// signup & login
	Form        interface{}
	FieldErrors map[string]string

	Dashboard *portal.DashboardView
	Table     *portal.TableView
	Refresh   int // seconds before the page reloads itself (0: never)

	Code  int
	Error string
}

var templateFuncs = template.FuncMap{
	"score": marks.FormatScore,
	"rank": func(rank *int) string {
		return marks.FormatRank(rank, "-")
	},
	"status": func(selected *bool) string {
		if selected != nil && *selected {
			return "Selected"
		}
		return "Not Selected"
	},
}

// renderer executes the page templates, each one parsed once along with the layout.
type renderer struct {
	appName   string
	templates map[string]*template.Template
}

var _ echo.Renderer = (*renderer)(nil)

func newRenderer(appName string) *renderer {
	r := &renderer{appName: appName, templates: make(map[string]*template.Template)}
	for _, page := range []string{signupPage, loginPage, dashboardPage, tablePage, errorPage} {
		r.templates[page] = template.Must(
			template.New(page).Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html"),
		)
	}
	return r
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return errors.Errorf("unknown page %q", name)
	}
	if pd, ok := data.(*pageData); ok && pd.AppName == "" {
		pd.AppName = r.appName
	}
	return errors.Wrapf(tmpl.ExecuteTemplate(w, "layout", data), "rendering %s", name)
}
