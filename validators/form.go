package validators

import (
	"html"

	"github.com/CorrelAid/contact_form_guard/guard"
	"github.com/CorrelAid/contact_form_guard/models"
	"github.com/CorrelAid/contact_form_guard/views"
	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.StrictPolicy()

// PlainText strips every element from s and decodes the entities the
// policy leaves behind. The result is plain text, not HTML: it must be
// escaped wherever it is rendered as markup.
func PlainText(s string) string {
	return guard.Trim(html.UnescapeString(textPolicy.Sanitize(s)))
}

// ValidateContactForm runs the form guard against the posted values. The
// returned page carries the indicator state to render. When the guard
// lets the form through the errors are empty and the contact holds the
// trimmed values, with markup stripped from the message.
//
// A message that only passes the guard because of its markup is blocked
// with the message hint shown, as if it had been empty.
func ValidateContactForm(formData models.ContactForm) (models.Contact, models.FieldErrors, *views.Page) {
	page := views.NewPage(formData)
	// NewPage carries every element, so activation cannot be a no-op.
	guard.Activate(page)

	errs := models.FieldErrors{}
	if page.Submit() {
		for _, f := range guard.Fields {
			if !page.Hidden(f.IndicatorID()) {
				errs[string(f)] = views.Hints[string(f)]
			}
		}
		return models.Contact{}, errs, page
	}

	message := PlainText(formData.Message)
	if !guard.FieldValid(guard.Message, message) {
		if ind, ok := page.Indicator(guard.Message.IndicatorID()); ok {
			ind.SetVisible(true)
		}
		errs[string(guard.Message)] = views.Hints[string(guard.Message)]
		return models.Contact{}, errs, page
	}

	contact := models.Contact{
		Name:    guard.Trim(formData.Name),
		Email:   guard.Trim(formData.Email),
		Message: message,
	}
	return contact, errs, page
}
