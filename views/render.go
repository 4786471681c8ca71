package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/CorrelAid/contact_form_guard/guard"
)

//go:embed templates/contact.html
var templateFS embed.FS

var contactTmpl = template.Must(template.ParseFS(templateFS, "templates/contact.html"))

// Hints are the texts of the error indicators, keyed by field name.
var Hints = map[string]string{
	string(guard.Name):    "Please enter your name.",
	string(guard.Email):   "Please enter a valid email address.",
	string(guard.Message): "Please enter a message.",
}

// Notice kinds.
const (
	NoticeSuccess = "success"
	NoticeDanger  = "danger"
)

// PageData is what the contact template renders.
type PageData struct {
	Name    string
	Email   string
	Message string

	Hidden map[string]bool
	Hints  map[string]string

	Notice     string
	NoticeKind string

	TurnstileSiteKey string
	WASMPath         string
	ExecJSPath       string
}

// Assets are the optional page-level script settings.
type Assets struct {
	TurnstileSiteKey string
	WASMPath         string
	ExecJSPath       string
}

// Data turns the page into template data, keeping the posted values.
func (p *Page) Data(a Assets) PageData {
	hidden := make(map[string]bool, len(p.hidden))
	for id, h := range p.hidden {
		hidden[id] = h
	}
	return PageData{
		Name:             p.Value(guard.Name.InputID()),
		Email:            p.Value(guard.Email.InputID()),
		Message:          p.Value(guard.Message.InputID()),
		Hidden:           hidden,
		Hints:            Hints,
		TurnstileSiteKey: a.TurnstileSiteKey,
		WASMPath:         a.WASMPath,
		ExecJSPath:       a.ExecJSPath,
	}
}

// Render writes the contact page.
func Render(w io.Writer, data PageData) error {
	if err := contactTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render contact page: %w", err)
	}
	return nil
}
