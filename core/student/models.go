package student

import (
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/marksboard/core"
)

// Student is the identity of an authenticated student, as returned by the marks service.
// It is only ever held in memory and is not a credential.
type Student struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Valid reports whether the backend returned a usable identity.
func (s Student) Valid() bool {
	return s.ID != "" && s.Name != "" && s.Email != ""
}

// Initial is the upper-cased first letter of the student's name (avatar).
func (s Student) Initial() string {
	for _, r := range s.Name {
		return string(unicode.ToUpper(r))
	}
	return "?"
}

// Registration contains information needed to register a new Student.
type Registration struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *Registration) Validate(validate *validator.Validate, translator ut.Translator) error {
	r.Name = core.CleanString(r.Name)
	r.Email = core.CleanString(r.Email)
	return core.ValidateStruct(validate, translator, r)
}

// Credentials are what a Student logs in with.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (c *Credentials) Validate(validate *validator.Validate, translator ut.Translator) error {
	c.Email = core.CleanString(c.Email)
	return core.ValidateStruct(validate, translator, c)
}
