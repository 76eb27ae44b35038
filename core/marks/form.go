package marks

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	MinMark = 0
	MaxMark = 100
)

var (
	ErrInvalidNumber = errors.New("Please enter a valid number")
	ErrOutOfRange    = errors.New("Marks must be between 0 and 100")
	ErrUnknownField  = errors.New("unknown marks field")
)

// Field identifies one of the three term score inputs.
type Field int

const (
	TR1 Field = iota
	TR2
	TR3
)

// Fields lists the form fields in display order.
var Fields = [...]Field{TR1, TR2, TR3}

func (f Field) String() string {
	switch f {
	case TR1:
		return "tr1"
	case TR2:
		return "tr2"
	case TR3:
		return "tr3"
	}
	return "tr?"
}

// Label is the human name of the field.
func (f Field) Label() string {
	return "Term " + strconv.Itoa(int(f)+1)
}

func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tr1":
		return TR1, nil
	case "tr2":
		return TR2, nil
	case "tr3":
		return TR3, nil
	}
	return 0, errors.Wrapf(ErrUnknownField, "%q", s)
}

// ValidateMark parses a raw score input.
// It fails with ErrInvalidNumber when `raw` is not a number and with ErrOutOfRange
// when the number is outside [0,100].
func ValidateMark(raw string) (float64, error) {
	num, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(num) {
		return 0, ErrInvalidNumber
	}
	if num < MinMark || num > MaxMark {
		return 0, ErrOutOfRange
	}
	return num, nil
}

// Form holds the raw inputs of a marks form and their field errors.
// The zero value is an empty form.
type Form struct {
	values [len(Fields)]string
	errs   [len(Fields)]string
}

// NewForm returns a form prefilled with the scores of `rec` (absent scores stay empty).
func NewForm(rec Record) *Form {
	f := new(Form)
	for i, score := range []*float64{rec.TR1, rec.TR2, rec.TR3} {
		if score != nil {
			f.values[i] = strconv.FormatFloat(*score, 'f', -1, 64)
		}
	}
	return f
}

// Set stores the raw value of `field` and validates it, updating the error of that field only.
func (f *Form) Set(field Field, raw string) error {
	if field < TR1 || field > TR3 {
		return ErrUnknownField
	}
	f.values[field] = raw
	if _, err := ValidateMark(raw); err != nil {
		f.errs[field] = err.Error()
		return err
	}
	f.errs[field] = ""
	return nil
}

func (f *Form) Value(field Field) string { return f.values[field] }
func (f *Form) Error(field Field) string { return f.errs[field] }

// Errors returns the recorded field errors keyed by field name.
func (f *Form) Errors() map[string]string {
	errs := make(map[string]string)
	for _, fld := range Fields {
		if msg := f.errs[fld]; msg != "" {
			errs[fld.String()] = msg
		}
	}
	return errs
}

// Submittable reports whether all three fields are filled in and none has an error.
func (f *Form) Submittable() bool {
	for _, fld := range Fields {
		if f.values[fld] == "" || f.errs[fld] != "" {
			return false
		}
	}
	return true
}

// Scores parses the three values. It must only be called on a submittable form.
func (f *Form) Scores() (Scores, error) {
	var parsed [len(Fields)]float64
	for _, fld := range Fields {
		num, err := ValidateMark(f.values[fld])
		if err != nil {
			return Scores{}, errors.Wrap(err, fld.String())
		}
		parsed[fld] = num
	}
	return Scores{TR1: parsed[TR1], TR2: parsed[TR2], TR3: parsed[TR3]}, nil
}

// Reset clears all values and errors.
func (f *Form) Reset() {
	*f = Form{}
}
