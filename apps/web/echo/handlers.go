package echoweb

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/marksboard/core"
	"github.com/trezcool/marksboard/core/marks"
	"github.com/trezcool/marksboard/core/portal"
	"github.com/trezcool/marksboard/core/student"
	sheetsvc "github.com/trezcool/marksboard/services/sheet"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	tablePath       = "/dashboard/table"
)

type handlers struct {
	conf   *core.Config
	logger core.Logger
}

// dashboardPath is the landing page of authenticated students.
func (h handlers) dashboardPath() string {
	if h.conf.Portal.Dashboard == "single" {
		return "/dashboard"
	}
	return tablePath
}

func (h handlers) home(ctx echo.Context) error {
	shell, err := getContextShell(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context shell")
	}
	switch shell.Screen() {
	case portal.ScreenDashboard:
		return ctx.Redirect(http.StatusSeeOther, h.dashboardPath())
	case portal.ScreenLogin:
		return ctx.Redirect(http.StatusSeeOther, "/login")
	}
	return ctx.Redirect(http.StatusSeeOther, "/signup")
}

// Signup & Login

func (h handlers) signupPage(ctx echo.Context) error {
	return h.authPage(ctx, portal.ScreenSignup, signupPage, "Signup", nil)
}

func (h handlers) loginPage(ctx echo.Context) error {
	return h.authPage(ctx, portal.ScreenLogin, loginPage, "Login", nil)
}

func (h handlers) authPage(ctx echo.Context, screen portal.Screen, page, title string, form interface{}) error {
	shell, err := getContextShell(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context shell")
	}
	if err := shell.Show(screen); err != nil {
		return errors.Wrapf(err, "showing %s", screen)
	}
	if shell.Screen() == portal.ScreenDashboard {
		return ctx.Redirect(http.StatusSeeOther, h.dashboardPath())
	}
	return ctx.Render(http.StatusOK, page, &pageData{Title: title, Notice: shell.Notice(), Form: form})
}

func (h handlers) signup(ctx echo.Context) error {
	shell, err := getContextShell(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context shell")
	}
	if err := shell.Show(portal.ScreenSignup); err != nil {
		return errors.Wrap(err, "showing signup")
	}

	reg := student.Registration{
		Name:     ctx.FormValue("name"),
		Email:    ctx.FormValue("email"),
		Password: ctx.FormValue("password"),
	}
	if err := shell.Signup(ctx.Request().Context(), reg); err != nil {
		return h.authFailed(ctx, shell, signupPage, "Signup", &reg, err)
	}
	return ctx.Redirect(http.StatusSeeOther, h.dashboardPath())
}

func (h handlers) login(ctx echo.Context) error {
	shell, err := getContextShell(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context shell")
	}
	if err := shell.Show(portal.ScreenLogin); err != nil {
		return errors.Wrap(err, "showing login")
	}

	creds := student.Credentials{
		Email:    ctx.FormValue("email"),
		Password: ctx.FormValue("password"),
	}
	if err := shell.Login(ctx.Request().Context(), creds); err != nil {
		return h.authFailed(ctx, shell, loginPage, "Login", &creds, err)
	}
	return ctx.Redirect(http.StatusSeeOther, h.dashboardPath())
}

// authFailed renders the signup/login page again, with the field errors or the notice of the failure.
func (h handlers) authFailed(ctx echo.Context, shell *portal.Shell, page, title string, form interface{}, err error) error {
	data := &pageData{Title: title, Notice: shell.Notice(), Form: form}
	var vErr *core.ValidationError
	if errors.As(err, &vErr) {
		data.FieldErrors = vErr.FieldMap()
	} else {
		h.logger.Info(title+" failed", err)
	}
	return ctx.Render(http.StatusBadRequest, page, data)
}

func (h handlers) logout(ctx echo.Context) error {
	shell, err := getContextShell(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context shell")
	}
	shell.Logout()
	return ctx.Redirect(http.StatusSeeOther, "/login")
}

// Single-student dashboard

func getContextDashboard(ctx echo.Context) (*portal.Dashboard, error) {
	shell, err := getContextShell(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "getting context shell")
	}
	return shell.Dashboard()
}

func (h handlers) dashboard(ctx echo.Context) error {
	dash, err := getContextDashboard(ctx)
	if err != nil {
		return errors.Wrap(err, "getting dashboard")
	}
	dash.Load(ctx.Request().Context())

	view := dash.View()
	data := &pageData{Title: "Dashboard", Student: &view.Student, Notice: view.Notice, Dashboard: &view}
	if view.Calculating {
		data.Refresh = 2
	}
	return ctx.Render(http.StatusOK, dashboardPage, data)
}

func (h handlers) submitMarks(ctx echo.Context) error {
	dash, err := getContextDashboard(ctx)
	if err != nil {
		return errors.Wrap(err, "getting dashboard")
	}
	bindMarksForm(ctx, dash.SetField)

	switch err := dash.Submit(ctx.Request().Context()); {
	case err == nil, err == portal.ErrInvalidForm, err == portal.ErrBusy:
	default:
		h.logger.Info("saving marks failed", err, h.contextStudent(ctx))
	}
	return ctx.Redirect(http.StatusSeeOther, "/dashboard")
}

// bindMarksForm feeds the tr1..tr3 form values to `set`, each one validated on its own.
func bindMarksForm(ctx echo.Context, set func(marks.Field, string) error) {
	for _, fld := range marks.Fields {
		_ = set(fld, ctx.FormValue(fld.String()))
	}
}

// Multi-student dashboard

func getContextTable(ctx echo.Context) (*portal.Table, error) {
	shell, err := getContextShell(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "getting context shell")
	}
	return shell.Table()
}

func (h handlers) table(ctx echo.Context) error {
	tbl, err := getContextTable(ctx)
	if err != nil {
		return errors.Wrap(err, "getting table")
	}
	// a failed load is displayed inline
	_ = tbl.Reload(ctx.Request().Context())
	if ctx.QueryParam("add") != "" {
		tbl.OpenAddForm()
	}

	view := tbl.View()
	return ctx.Render(http.StatusOK, tablePage, &pageData{
		Title:   "Rankings",
		Student: &view.Student,
		Notice:  view.Notice,
		Table:   &view,
	})
}

func (h handlers) addMarks(ctx echo.Context) error {
	tbl, err := getContextTable(ctx)
	if err != nil {
		return errors.Wrap(err, "getting table")
	}
	bindMarksForm(ctx, tbl.SetAddField)

	if err := tbl.Add(ctx.Request().Context()); err != nil {
		if err != portal.ErrInvalidForm && err != portal.ErrBusy {
			h.logger.Info("adding marks failed", err, h.contextStudent(ctx))
		}
		return ctx.Redirect(http.StatusSeeOther, tablePath+"?add=1")
	}
	return ctx.Redirect(http.StatusSeeOther, tablePath)
}

func (h handlers) closeAddForm(ctx echo.Context) error {
	tbl, err := getContextTable(ctx)
	if err != nil {
		return errors.Wrap(err, "getting table")
	}
	tbl.CloseAddForm()
	return ctx.Redirect(http.StatusSeeOther, tablePath)
}

func (h handlers) editRow(ctx echo.Context) error {
	tbl, err := getContextTable(ctx)
	if err != nil {
		return errors.Wrap(err, "getting table")
	}
	switch err := tbl.StartEdit(ctx.Param("studentId")); err {
	case nil, portal.ErrNotOwner:
	case portal.ErrRowNotFound:
		return errHttpNotFound
	default:
		return errors.Wrap(err, "starting edit")
	}
	return ctx.Redirect(http.StatusSeeOther, tablePath)
}

func (h handlers) saveRow(ctx echo.Context) error {
	tbl, err := getContextTable(ctx)
	if err != nil {
		return errors.Wrap(err, "getting table")
	}
	if tbl.Editing() != "" {
		bindMarksForm(ctx, tbl.SetEditField)
	}

	switch err := tbl.Save(ctx.Request().Context()); {
	case err == nil, err == portal.ErrInvalidForm, err == portal.ErrBusy, err == portal.ErrNotEditing:
	default:
		h.logger.Info("updating marks failed", err, h.contextStudent(ctx))
	}
	return ctx.Redirect(http.StatusSeeOther, tablePath)
}

func (h handlers) cancelEdit(ctx echo.Context) error {
	tbl, err := getContextTable(ctx)
	if err != nil {
		return errors.Wrap(err, "getting table")
	}
	tbl.CancelEdit()
	return ctx.Redirect(http.StatusSeeOther, tablePath)
}

func (h handlers) exportRanking(ctx echo.Context) error {
	tbl, err := getContextTable(ctx)
	if err != nil {
		return errors.Wrap(err, "getting table")
	}
	if err := tbl.Reload(ctx.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, portal.UserMessage(err, "Failed to load dashboard data"))
	}

	view := tbl.View()
	var buf bytes.Buffer
	if err := sheetsvc.WriteRanking(&buf, tbl.Rows(), view.Student.ID); err != nil {
		return errors.Wrap(err, "writing ranking")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="ranking.xlsx"`)
	return ctx.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h handlers) contextStudent(ctx echo.Context) student.Student {
	if shell, err := getContextShell(ctx); err == nil {
		stu, _ := shell.Student()
		return stu
	}
	return student.Student{}
}
