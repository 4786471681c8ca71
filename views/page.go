// Package views renders the contact page and lets the guard run against
// posted values on the server.
package views

import (
	"github.com/CorrelAid/contact_form_guard/guard"
	"github.com/CorrelAid/contact_form_guard/models"
)

// Page is a server-side rendition of the contact page. It satisfies
// guard.Document so the same guard that runs in the browser can run
// against a POST. A Page serves a single request.
type Page struct {
	values    map[string]string
	hidden    map[string]bool
	listeners []func(guard.SubmitEvent)
}

// NewPage builds a page carrying the posted values with every hint hidden.
func NewPage(form models.ContactForm) *Page {
	p := &Page{
		values: map[string]string{
			guard.Name.InputID():    form.Name,
			guard.Email.InputID():   form.Email,
			guard.Message.InputID(): form.Message,
		},
		hidden: make(map[string]bool, len(guard.Fields)),
	}
	for _, f := range guard.Fields {
		p.hidden[f.IndicatorID()] = true
	}
	return p
}

func (p *Page) Form(id string) (guard.Form, bool) {
	if id != guard.FormID {
		return nil, false
	}
	return pageForm{p: p}, true
}

func (p *Page) Input(id string) (guard.Input, bool) {
	if _, ok := p.values[id]; !ok {
		return nil, false
	}
	return pageInput{p: p, id: id}, true
}

func (p *Page) Indicator(id string) (guard.Indicator, bool) {
	if _, ok := p.hidden[id]; !ok {
		return nil, false
	}
	return pageIndicator{p: p, id: id}, true
}

// Submit dispatches a submit event to the page's listeners and reports
// whether any of them cancelled it.
func (p *Page) Submit() (prevented bool) {
	ev := &submitEvent{}
	for _, fn := range p.listeners {
		fn(ev)
	}
	return ev.prevented
}

// Hidden reports whether the hint with id is hidden.
func (p *Page) Hidden(id string) bool {
	return p.hidden[id]
}

// Value returns the posted value of the input with id, untrimmed.
func (p *Page) Value(id string) string {
	return p.values[id]
}

type pageForm struct{ p *Page }

func (f pageForm) OnSubmit(fn func(guard.SubmitEvent)) {
	f.p.listeners = append(f.p.listeners, fn)
}

type pageInput struct {
	p  *Page
	id string
}

func (i pageInput) Value() string { return i.p.values[i.id] }

type pageIndicator struct {
	p  *Page
	id string
}

func (i pageIndicator) SetVisible(visible bool) { i.p.hidden[i.id] = !visible }

type submitEvent struct{ prevented bool }

func (e *submitEvent) PreventDefault() { e.prevented = true }
