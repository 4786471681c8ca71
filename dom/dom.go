//go:build js && wasm

// Package dom exposes the browser document to the guard.
package dom

import (
	"syscall/js"

	"github.com/CorrelAid/contact_form_guard/guard"
)

// HiddenClass is the class that hides an error hint.
const HiddenClass = "hidden"

type document struct {
	doc js.Value
}

// Document returns the global browser document.
func Document() guard.Document {
	return document{doc: js.Global().Get("document")}
}

func (d document) lookup(id string) (js.Value, bool) {
	el := d.doc.Call("getElementById", id)
	if el.IsNull() || el.IsUndefined() {
		return js.Value{}, false
	}
	return el, true
}

func (d document) Form(id string) (guard.Form, bool) {
	el, ok := d.lookup(id)
	if !ok {
		return nil, false
	}
	return form{el: el}, true
}

func (d document) Input(id string) (guard.Input, bool) {
	el, ok := d.lookup(id)
	if !ok {
		return nil, false
	}
	return input{el: el}, true
}

func (d document) Indicator(id string) (guard.Indicator, bool) {
	el, ok := d.lookup(id)
	if !ok {
		return nil, false
	}
	return indicator{el: el}, true
}

type form struct{ el js.Value }

// OnSubmit keeps the js.Func alive for the lifetime of the page.
func (f form) OnSubmit(fn func(guard.SubmitEvent)) {
	cb := js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) > 0 {
			fn(event{ev: args[0]})
		}
		return nil
	})
	f.el.Call("addEventListener", "submit", cb)
}

type input struct{ el js.Value }

func (i input) Value() string {
	v := i.el.Get("value")
	if v.Type() != js.TypeString {
		return ""
	}
	return v.String()
}

type indicator struct{ el js.Value }

func (i indicator) SetVisible(visible bool) {
	cl := i.el.Get("classList")
	if visible {
		cl.Call("remove", HiddenClass)
	} else {
		cl.Call("add", HiddenClass)
	}
}

type event struct{ ev js.Value }

func (e event) PreventDefault() { e.ev.Call("preventDefault") }

// OnReady runs fn once the document has been parsed.
func OnReady(fn func()) {
	doc := js.Global().Get("document")
	if doc.Get("readyState").String() != "loading" {
		fn()
		return
	}
	var cb js.Func
	cb = js.FuncOf(func(this js.Value, args []js.Value) any {
		cb.Release()
		fn()
		return nil
	})
	doc.Call("addEventListener", "DOMContentLoaded", cb)
}
