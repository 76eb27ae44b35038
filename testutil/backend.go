// Package testutil provides an in-process fake of the marks service for tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/marksboard/core/student"
)

// Routes of the fake marks service, as "METHOD path" (see Backend.Calls and WithoutRoutes).
const (
	RouteRegister     = "POST /api/student/register"
	RouteLogin        = "POST /api/student/login"
	RouteAddMarks     = "POST /api/marks/add"
	RouteUpdateByPath = "PUT /api/marks/update/:studentId"
	RouteUpdateByQry  = "PUT /api/marks/update"
	RouteEditMarks    = "PUT /api/marks/student/:studentId/edit"
	RouteGetMarks     = "GET /api/marks/student/:studentId"
	RouteGetByQuery   = "GET /api/marks/get"
	RouteGetByID      = "GET /api/marks/:studentId"
	RouteDashboard    = "GET /api/marks/dashboard"
	RouteRanking      = "GET /api/marks/rank"
)

type Option func(b *Backend)

// DeferRanks makes marks mutations answer without a rank.
// Ranks are computed on the next read, the way an asynchronous ranking job would.
func DeferRanks() Option {
	return func(b *Backend) { b.deferRanks = true }
}

// WithoutRoutes makes the given routes answer 404, as if the marks service did not serve them.
func WithoutRoutes(routes ...string) Option {
	return func(b *Backend) {
		for _, r := range routes {
			b.disabled[r] = true
		}
	}
}

type account struct {
	student.Student
	passwordHash []byte
}

type marksRow struct {
	id        string
	studentID string
	tr1       *float64
	tr2       *float64
	tr3       *float64
	total     *float64
	selected  *bool
	rank      *int
}

type failure struct {
	status int
	body   string
}

// Backend is a fake marks service served over HTTP.
// It answers errors with plain-text bodies, like the real one.
type Backend struct {
	*httptest.Server

	deferRanks bool
	disabled   map[string]bool

	mu           sync.Mutex
	accounts     map[string]*account // by ID
	marks        map[string]*marksRow
	ranksPending bool
	failures     map[string]failure
	calls        map[string]int
}

func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		disabled: make(map[string]bool),
		accounts: make(map[string]*account),
		marks:    make(map[string]*marksRow),
		failures: make(map[string]failure),
		calls:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(b)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(b.intercept)

	api := e.Group("/api")
	api.POST("/student/register", b.register)
	api.POST("/student/login", b.login)
	api.GET("/student", b.listStudents)

	mg := api.Group("/marks")
	mg.POST("/add", b.addMarks)
	mg.PUT("/update/:studentId", b.updateMarks)
	mg.PUT("/update", b.updateMarks)
	mg.PUT("/student/:studentId/edit", b.updateMarks)
	mg.GET("/student/:studentId", b.getMarks)
	mg.GET("/get", b.getMarks)
	mg.GET("/dashboard", b.dashboard)
	mg.GET("/rank", b.ranking)
	mg.GET("/:studentId", b.getMarks)

	b.Server = httptest.NewServer(e)
	return b
}

// BaseURL is the API root to configure clients with.
func (b *Backend) BaseURL() string {
	return b.URL + "/api"
}

// Calls returns how many times `route` was requested.
func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

// Fail makes `route` answer `status` with the plain-text `body` until Recover is called.
func (b *Backend) Fail(route string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[route] = failure{status: status, body: body}
}

func (b *Backend) Recover(route string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, route)
}

func (b *Backend) intercept(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		route := ctx.Request().Method + " " + ctx.Path()

		b.mu.Lock()
		b.calls[route]++
		fail, failing := b.failures[route]
		b.mu.Unlock()

		if b.disabled[route] {
			return ctx.NoContent(http.StatusNotFound)
		}
		if failing {
			return ctx.String(fail.status, fail.body)
		}
		return next(ctx)
	}
}

// CreateStudent registers a student directly, bypassing the HTTP API.
func (b *Backend) CreateStudent(name, email, password string) (student.Student, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return student.Student{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	acc := &account{
		Student:      student.Student{ID: uuid.New().String(), Name: name, Email: email},
		passwordHash: hash,
	}
	b.accounts[acc.ID] = acc
	return acc.Student, nil
}

// SetMarks stores the marks of a student directly and updates all ranks.
func (b *Backend) SetMarks(studentID string, tr1, tr2, tr3 float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	row, ok := b.marks[studentID]
	if !ok {
		row = &marksRow{id: uuid.New().String(), studentID: studentID}
		b.marks[studentID] = row
	}
	row.tr1, row.tr2, row.tr3 = &tr1, &tr2, &tr3
	row.calculateTotal()
	b.updateAllRanks()
}

func (b *Backend) accountByEmail(email string) *account {
	for _, acc := range b.accounts {
		if acc.Email == email {
			return acc
		}
	}
	return nil
}

func (r *marksRow) calculateTotal() {
	var total float64
	for _, score := range []*float64{r.tr1, r.tr2, r.tr3} {
		if score != nil {
			total += *score
		}
	}
	selected := total/3 > 35
	r.total, r.selected = &total, &selected
}

func (r *marksRow) totalOrZero() float64 {
	if r.total == nil {
		return 0
	}
	return *r.total
}

// sorted returns the marks by descending total.
func (b *Backend) sorted() []*marksRow {
	rows := make([]*marksRow, 0, len(b.marks))
	for _, r := range b.marks {
		rows = append(rows, r)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		ti, tj := rows[i].totalOrZero(), rows[j].totalOrZero()
		if ti != tj {
			return ti > tj
		}
		return rows[i].id < rows[j].id
	})
	return rows
}

// updateAllRanks applies competition ranking: equal totals share a rank and the next
// distinct total takes its 1-based position.
func (b *Backend) updateAllRanks() {
	rows := b.sorted()
	for i, r := range rows {
		rank := i + 1
		if i > 0 && r.totalOrZero() == rows[i-1].totalOrZero() {
			rank = *rows[i-1].rank
		}
		r.rank = &rank
	}
	b.ranksPending = false
}

// mutated ranks the marks right away, or leaves the mutated row unranked when ranks are deferred.
func (b *Backend) mutated(row *marksRow) {
	if b.deferRanks {
		row.rank = nil
		b.ranksPending = true
		return
	}
	b.updateAllRanks()
}

func (b *Backend) settleRanks() {
	if b.ranksPending {
		b.updateAllRanks()
	}
}
