package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/CorrelAid/contact_form_guard/metrics"
	"github.com/CorrelAid/contact_form_guard/models"
	"github.com/CorrelAid/contact_form_guard/notify"
	"github.com/CorrelAid/contact_form_guard/operations"
	"github.com/CorrelAid/contact_form_guard/validators"
	"github.com/CorrelAid/contact_form_guard/views"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	noticeSent = "Thanks for your message, we will get back to you soon!"
	noticeFill = "Please fill in every field."
)

// Contact serves the contact page and accepts its submissions.
type Contact struct {
	Store     operations.ContactStore
	Notifier  notify.Notifier
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	Turnstile validators.TurnstileConfig
	Assets    views.Assets
	Retention time.Duration

	// Now is stubbed in tests.
	Now func() time.Time
	// NotifyTimeout bounds one background notification.
	NotifyTimeout time.Duration

	pending sync.WaitGroup
}

func (h *Contact) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// Show renders the empty contact page.
func (h *Contact) Show(c *gin.Context) {
	data := views.NewPage(models.ContactForm{}).Data(h.Assets)
	if c.Query("notice") == "sent" {
		data.Notice = noticeSent
		data.NoticeKind = views.NoticeSuccess
	}
	h.render(c, http.StatusOK, data)
}

// Submit guards a posted contact form, stores it when the guard lets it
// through and redirects back to the page.
func (h *Contact) Submit(c *gin.Context) {
	var formData models.ContactForm
	if err := c.ShouldBind(&formData); err != nil {
		h.Logger.Info("cannot bind contact form", zap.Error(err))
		c.String(http.StatusBadRequest, "Error reading form: "+err.Error())
		return
	}

	if err := validators.ValidateTurnstileToken(c.Request.Context(), h.Turnstile, formData.TurnstileToken, c.ClientIP(), h.Logger); err != nil {
		status := http.StatusForbidden
		if errors.Is(err, validators.ErrVerification) {
			status = http.StatusInternalServerError
		}
		c.AbortWithStatusJSON(status, gin.H{"status": "rejected", "message": err.Error()})
		return
	}

	contact, fieldErrs, page := validators.ValidateContactForm(formData)
	h.Metrics.ObserveGuard(fieldErrs)

	if !fieldErrs.Valid() {
		if wantsJSON(c) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"status": "invalid", "errors": fieldErrs})
			return
		}
		data := page.Data(h.Assets)
		data.Notice = noticeFill
		data.NoticeKind = views.NoticeDanger
		h.render(c, http.StatusUnprocessableEntity, data)
		return
	}

	contact = operations.NewContact(contact, h.now(), h.Retention)
	if err := h.Store.Insert(c.Request.Context(), contact); err != nil {
		h.Logger.Error("cannot store contact", zap.Error(err))
		c.String(http.StatusInternalServerError, "Error: could not store your message")
		return
	}
	h.Logger.Info("stored contact", zap.String("id", contact.ID), zap.String("email", contact.Email))

	h.pending.Add(1)
	go func() {
		defer h.pending.Done()
		h.notify(contact)
	}()

	if wantsJSON(c) {
		c.JSON(http.StatusCreated, gin.H{"status": "stored", "id": contact.ID})
		return
	}
	c.Redirect(http.StatusSeeOther, "/contact?notice=sent")
}

func (h *Contact) notify(contact models.Contact) {
	timeout := h.NotifyTimeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := h.Notifier.ContactReceived(ctx, contact); err != nil {
		h.Logger.Warn("contact notification failed", zap.String("id", contact.ID), zap.Error(err))
	}
}

// Drain waits for the notifications still in flight. It gives up when
// ctx is done and returns its error.
func (h *Contact) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Contact) render(c *gin.Context, status int, data views.PageData) {
	var buf bytes.Buffer
	if err := views.Render(&buf, data); err != nil {
		h.Logger.Error("cannot render contact page", zap.Error(err))
		c.String(http.StatusInternalServerError, "Error: could not render page")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func wantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}
