package validators

import (
	"context"
	"testing"

	"github.com/CorrelAid/contact_form_guard/models"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestValidateContactForm(t *testing.T) {
	t.Run("valid form is trimmed", func(t *testing.T) {
		contact, errs, page := ValidateContactForm(models.ContactForm{
			Name:    "  Jo ",
			Email:   " a@b.co\n",
			Message: "\thi there ",
		})

		assert.True(t, errs.Valid())
		assert.Equal(t, "Jo", contact.Name)
		assert.Equal(t, "a@b.co", contact.Email)
		assert.Equal(t, "hi there", contact.Message)
		assert.True(t, page.Hidden("emailError"))
	})

	t.Run("empty form fails every field", func(t *testing.T) {
		contact, errs, page := ValidateContactForm(models.ContactForm{})

		assert.Equal(t, models.Contact{}, contact)
		assert.Len(t, errs, 3)
		assert.Contains(t, errs, "name")
		assert.Contains(t, errs, "email")
		assert.Contains(t, errs, "message")
		assert.False(t, page.Hidden("nameError"))
		assert.False(t, page.Hidden("emailError"))
		assert.False(t, page.Hidden("messageError"))
	})

	t.Run("only the email fails", func(t *testing.T) {
		_, errs, _ := ValidateContactForm(models.ContactForm{Name: "Jo", Email: "not-an-email", Message: "hi"})

		assert.Equal(t, models.FieldErrors{"email": "Please enter a valid email address."}, errs)
	})

	t.Run("page keeps the raw values", func(t *testing.T) {
		_, _, page := ValidateContactForm(models.ContactForm{Name: " ", Email: "a@b.com", Message: "hi"})

		assert.Equal(t, " ", page.Value("name"))
	})
}

func TestValidateContactFormMarkupOnlyMessage(t *testing.T) {
	for _, msg := range []string{"<b></b>", "<script>alert(1)</script>", " <div>\u00a0</div> "} {
		t.Run(msg, func(t *testing.T) {
			contact, errs, page := ValidateContactForm(models.ContactForm{Name: "Jo", Email: "a@b.co", Message: msg})

			assert.Equal(t, models.Contact{}, contact)
			assert.Equal(t, models.FieldErrors{"message": "Please enter a message."}, errs)
			assert.False(t, page.Hidden("messageError"))
			assert.True(t, page.Hidden("nameError"))
			assert.True(t, page.Hidden("emailError"))
		})
	}
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "hi there & bye", PlainText(`hi <script>alert(1)</script><b>there</b> & bye`))
	assert.Equal(t, "", PlainText("<b></b>"))
	assert.Equal(t, "a < b", PlainText("a &lt; b"), "entities decode to plain text")
}

func TestValidateContactFormTrimsBrowserWhitespace(t *testing.T) {
	contact, errs, _ := ValidateContactForm(models.ContactForm{
		Name:    "\ufeffJo\u00a0",
		Email:   "\u3000a@b.co",
		Message: "hi\v",
	})

	assert.True(t, errs.Valid())
	assert.Equal(t, "Jo", contact.Name)
	assert.Equal(t, "a@b.co", contact.Email)
	assert.Equal(t, "hi", contact.Message)
}

func TestValidateTurnstileToken(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("disabled without a secret", func(t *testing.T) {
		assert.NoError(t, ValidateTurnstileToken(ctx, TurnstileConfig{}, "", "127.0.0.1", logger))
	})

	t.Run("token required", func(t *testing.T) {
		err := ValidateTurnstileToken(ctx, TurnstileConfig{Secret: "s"}, "", "127.0.0.1", logger)
		assert.ErrorIs(t, err, ErrTokenRequired)
	})

	t.Run("test token accepted outside release", func(t *testing.T) {
		cfg := TurnstileConfig{Secret: "s", TestToken: "XXXX.DUMMY.TOKEN"}
		assert.NoError(t, ValidateTurnstileToken(ctx, cfg, "XXXX.DUMMY.TOKEN", "127.0.0.1", logger))
	})
}
