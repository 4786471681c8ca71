// Package guard validates a contact form on submit and blocks the
// submission when a required field is missing or the email is malformed.
//
// The guard never touches a browser or a request directly. It works
// against a Document, which the dom package backs with the real page and
// the views package backs with posted form values.
package guard

import (
	"regexp"
	"strings"
	"unicode"
)

// Element identifiers of the contact page.
const (
	FormID = "contactForm"
)

// Field names one of the three required inputs.
type Field string

const (
	Name    Field = "name"
	Email   Field = "email"
	Message Field = "message"
)

// Fields lists the guarded inputs in page order.
var Fields = []Field{Name, Email, Message}

// InputID is the element id of the field's input.
func (f Field) InputID() string { return string(f) }

// IndicatorID is the element id of the field's error hint.
func (f Field) IndicatorID() string { return string(f) + "Error" }

// emailPart matches one run of characters that are neither '@' nor
// browser whitespace. RE2's \s lacks \v and the Unicode spaces, so they
// are listed.
const emailPart = `[^@\s\v\p{Z}\x{FEFF}]+`

// EmailRX is deliberately permissive and must not be tightened.
var EmailRX = regexp.MustCompile(`^` + emailPart + `@` + emailPart + `\.` + emailPart + `$`)

// IsSpace reports whether r is whitespace as a browser's String.prototype.trim
// sees it. Unlike unicode.IsSpace it includes U+FEFF and excludes U+0085.
func IsSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', '\uFEFF':
		return true
	}
	return unicode.In(r, unicode.Zs, unicode.Zl, unicode.Zp)
}

// Trim removes leading and trailing whitespace as defined by IsSpace.
func Trim(s string) string {
	return strings.TrimFunc(s, IsSpace)
}

// Input is a text input whose current value can be read.
type Input interface {
	Value() string
}

// Indicator is an error hint that can be shown or hidden.
type Indicator interface {
	SetVisible(visible bool)
}

// SubmitEvent is the event handed to submit listeners.
type SubmitEvent interface {
	PreventDefault()
}

// Form accepts submit listeners.
type Form interface {
	OnSubmit(func(SubmitEvent))
}

// Document resolves page elements by id. A false second return means the
// element does not exist.
type Document interface {
	Form(id string) (Form, bool)
	Input(id string) (Input, bool)
	Indicator(id string) (Indicator, bool)
}

// Values holds the raw value of each field.
type Values map[Field]string

// Result is the outcome of one submission attempt.
type Result struct {
	Valid  bool
	Failed map[Field]bool
}

// Check runs the field checks on vals. Missing entries count as empty.
func Check(vals Values) Result {
	res := Result{Valid: true, Failed: make(map[Field]bool, len(Fields))}
	for _, f := range Fields {
		ok := FieldValid(f, vals[f])
		res.Failed[f] = !ok
		if !ok {
			res.Valid = false
		}
	}
	return res
}

// FieldValid reports whether raw passes the check for f.
func FieldValid(f Field, raw string) bool {
	v := Trim(raw)
	if v == "" {
		return false
	}
	if f == Email {
		return EmailRX.MatchString(v)
	}
	return true
}

// Guard holds the elements looked up at activation.
type Guard struct {
	inputs     map[Field]Input
	indicators map[Field]Indicator
}

// Activate looks up the contact form and its elements once and subscribes
// the guard to the form's submit event. It returns nil and does nothing
// when the form or any of its elements is missing.
func Activate(doc Document) *Guard {
	form, ok := doc.Form(FormID)
	if !ok {
		return nil
	}
	g := &Guard{
		inputs:     make(map[Field]Input, len(Fields)),
		indicators: make(map[Field]Indicator, len(Fields)),
	}
	for _, f := range Fields {
		in, ok := doc.Input(f.InputID())
		if !ok {
			return nil
		}
		ind, ok := doc.Indicator(f.IndicatorID())
		if !ok {
			return nil
		}
		g.inputs[f] = in
		g.indicators[f] = ind
	}
	form.OnSubmit(func(ev SubmitEvent) { g.HandleSubmit(ev) })
	return g
}

// HandleSubmit validates the current field values, sets every indicator
// and cancels ev when any field fails.
func (g *Guard) HandleSubmit(ev SubmitEvent) Result {
	vals := make(Values, len(Fields))
	for _, f := range Fields {
		vals[f] = g.inputs[f].Value()
	}
	res := Check(vals)
	for _, f := range Fields {
		g.indicators[f].SetVisible(res.Failed[f])
	}
	if !res.Valid {
		ev.PreventDefault()
	}
	return res
}
