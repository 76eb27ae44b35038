package testutil

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/marksboard/core/student"
)

type marksResponse struct {
	ID       string           `json:"id"`
	Student  *student.Student `json:"student"`
	TR1      *float64         `json:"tr1"`
	TR2      *float64         `json:"tr2"`
	TR3      *float64         `json:"tr3"`
	Total    *float64         `json:"total"`
	Selected *bool            `json:"selected"`
	Rank     *int             `json:"rank"`
}

type dashboardRow struct {
	StudentID string   `json:"studentId"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	TR1       *float64 `json:"tr1"`
	TR2       *float64 `json:"tr2"`
	TR3       *float64 `json:"tr3"`
	Total     *float64 `json:"total"`
	Selected  *bool    `json:"selected"`
	Rank      *int     `json:"rank"`
}

func (b *Backend) marksResponse(r *marksRow) marksResponse {
	res := marksResponse{
		ID:       r.id,
		TR1:      r.tr1,
		TR2:      r.tr2,
		TR3:      r.tr3,
		Total:    r.total,
		Selected: r.selected,
		Rank:     r.rank,
	}
	if acc, ok := b.accounts[r.studentID]; ok {
		stu := acc.Student
		res.Student = &stu
	}
	return res
}

func (b *Backend) register(ctx echo.Context) error {
	var data student.Registration
	if err := ctx.Bind(&data); err != nil {
		return ctx.String(http.StatusBadRequest, "Invalid request")
	}

	b.mu.Lock()
	exists := b.accountByEmail(data.Email) != nil
	b.mu.Unlock()
	if exists {
		return ctx.String(http.StatusBadRequest, "Email already registered")
	}

	stu, err := b.CreateStudent(data.Name, data.Email, data.Password)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stu)
}

func (b *Backend) login(ctx echo.Context) error {
	var data student.Credentials
	if err := ctx.Bind(&data); err != nil {
		return ctx.String(http.StatusBadRequest, "Invalid request")
	}

	b.mu.Lock()
	acc := b.accountByEmail(data.Email)
	b.mu.Unlock()
	if acc == nil {
		return ctx.String(http.StatusBadRequest, "Invalid email")
	}
	if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(data.Password)); err != nil {
		return ctx.String(http.StatusBadRequest, "Invalid password")
	}
	return ctx.JSON(http.StatusOK, acc.Student)
}

func (b *Backend) listStudents(ctx echo.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	students := make([]student.Student, 0, len(b.accounts))
	for _, acc := range b.accounts {
		students = append(students, acc.Student)
	}
	return ctx.JSON(http.StatusOK, students)
}

// bindScores decodes a partial {tr1,tr2,tr3} body. ok is false when no score is provided.
func bindScores(ctx echo.Context) (scores map[string]*float64, ok bool) {
	scores = make(map[string]*float64)
	if err := json.NewDecoder(ctx.Request().Body).Decode(&scores); err != nil {
		return nil, false
	}
	for _, key := range []string{"tr1", "tr2", "tr3"} {
		if _, found := scores[key]; found {
			return scores, true
		}
	}
	return nil, false
}

func studentID(ctx echo.Context) string {
	if id := ctx.Param("studentId"); id != "" {
		return id
	}
	return ctx.QueryParam("studentId")
}

func (b *Backend) addMarks(ctx echo.Context) error {
	id := studentID(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.accounts[id]; !ok {
		return ctx.String(http.StatusBadRequest, "Student not found")
	}
	if _, ok := b.marks[id]; ok {
		return ctx.String(http.StatusBadRequest, "Marks already exist for this student. Use update endpoint.")
	}
	scores, ok := bindScores(ctx)
	if !ok {
		return ctx.String(http.StatusBadRequest, "No marks data provided")
	}

	row := &marksRow{id: uuid.New().String(), studentID: id, tr1: scores["tr1"], tr2: scores["tr2"], tr3: scores["tr3"]}
	row.calculateTotal()
	b.marks[id] = row
	b.mutated(row)
	return ctx.JSON(http.StatusOK, b.marksResponse(row))
}

func (b *Backend) updateMarks(ctx echo.Context) error {
	id := studentID(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()

	row, ok := b.marks[id]
	if !ok {
		return ctx.NoContent(http.StatusNotFound)
	}
	scores, ok := bindScores(ctx)
	if !ok {
		return ctx.String(http.StatusBadRequest, "No marks data provided")
	}

	if s := scores["tr1"]; s != nil {
		row.tr1 = s
	}
	if s := scores["tr2"]; s != nil {
		row.tr2 = s
	}
	if s := scores["tr3"]; s != nil {
		row.tr3 = s
	}
	row.calculateTotal()
	b.mutated(row)
	return ctx.JSON(http.StatusOK, b.marksResponse(row))
}

func (b *Backend) getMarks(ctx echo.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.settleRanks()

	row, ok := b.marks[studentID(ctx)]
	if !ok {
		return ctx.NoContent(http.StatusNotFound)
	}
	return ctx.JSON(http.StatusOK, b.marksResponse(row))
}

func (b *Backend) dashboard(ctx echo.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.settleRanks()

	rows := make([]dashboardRow, 0, len(b.marks))
	for _, r := range b.sorted() {
		row := dashboardRow{
			StudentID: r.studentID,
			TR1:       r.tr1,
			TR2:       r.tr2,
			TR3:       r.tr3,
			Total:     r.total,
			Selected:  r.selected,
			Rank:      r.rank,
		}
		if acc, ok := b.accounts[r.studentID]; ok {
			row.Name, row.Email = acc.Name, acc.Email
		}
		rows = append(rows, row)
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (b *Backend) ranking(ctx echo.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.settleRanks()

	res := make([]marksResponse, 0, len(b.marks))
	for _, r := range b.sorted() {
		res = append(res, b.marksResponse(r))
	}
	return ctx.JSON(http.StatusOK, res)
}
