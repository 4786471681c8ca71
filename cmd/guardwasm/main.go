//go:build js && wasm

// Command guardwasm guards the contact form in the browser.
//
//	GOOS=js GOARCH=wasm go build -o static/guard.wasm ./cmd/guardwasm
package main

import (
	"github.com/CorrelAid/contact_form_guard/dom"
	"github.com/CorrelAid/contact_form_guard/guard"
)

func main() {
	dom.OnReady(func() {
		guard.Activate(dom.Document())
	})
	select {}
}
