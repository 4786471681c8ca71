package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/CorrelAid/contact_form_guard/metrics"
	"github.com/CorrelAid/contact_form_guard/models"
	"github.com/CorrelAid/contact_form_guard/operations"
	"github.com/CorrelAid/contact_form_guard/validators"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingNotifier struct {
	got chan models.Contact
}

func (n *recordingNotifier) ContactReceived(_ context.Context, c models.Contact) error {
	n.got <- c
	return nil
}

type failingStore struct {
	operations.ContactStore
}

func (failingStore) Insert(context.Context, models.Contact) error {
	return errors.New("disk full")
}

type fixture struct {
	router   *gin.Engine
	store    *operations.MemStore
	notifier *recordingNotifier
}

func newFixture(t *testing.T, opts RouterOptions) *fixture {
	t.Helper()
	store, err := operations.NewMemStore()
	require.NoError(t, err)
	notifier := &recordingNotifier{got: make(chan models.Contact, 4)}

	h := &Contact{
		Store:     store,
		Notifier:  notifier,
		Metrics:   metrics.New(),
		Logger:    zap.NewNop(),
		Retention: time.Hour,
		Now:       func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
	return &fixture{
		router:   NewRouter(h, h.Metrics, zap.NewNop(), opts),
		store:    store,
		notifier: notifier,
	}
}

func postForm(r http.Handler, vals url.Values, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	req.RemoteAddr = "10.1.1.1:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func form(name, email, message string) url.Values {
	return url.Values{"name": {name}, "email": {email}, "message": {message}}
}

func TestShowContactPage(t *testing.T) {
	f := newFixture(t, RouterOptions{})

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/contact", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `id="contactForm"`)
	assert.Contains(t, body, `<p id="nameError" class="error hidden">`)
	assert.NotContains(t, body, noticeSent)

	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/contact?notice=sent", nil))
	assert.Contains(t, w.Body.String(), noticeSent)
}

func TestSubmitScenarios(t *testing.T) {
	cases := []struct {
		name    string
		vals    url.Values
		visible []string
		blocked bool
	}{
		{"whitespace name", form(" ", "a@b.com", "hi"), []string{"nameError"}, true},
		{"malformed email", form("Jo", "not-an-email", "hi"), []string{"emailError"}, true},
		{"empty message", form("Jo", "a@b.com", ""), []string{"messageError"}, true},
		{"valid", form("Jo", "a@b.co", "hi"), nil, false},
		{"all empty", form("", "", ""), []string{"nameError", "emailError", "messageError"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, RouterOptions{})
			w := postForm(f.router, tc.vals, "")

			stored, err := f.store.List(context.Background())
			require.NoError(t, err)

			if !tc.blocked {
				assert.Equal(t, http.StatusSeeOther, w.Code)
				assert.Equal(t, "/contact?notice=sent", w.Header().Get("Location"))
				assert.Len(t, stored, 1)
				return
			}

			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.Empty(t, stored)
			body := w.Body.String()
			for _, id := range []string{"nameError", "emailError", "messageError"} {
				shown := `<p id="` + id + `" class="error">`
				if contains(tc.visible, id) {
					assert.Contains(t, body, shown)
				} else {
					assert.NotContains(t, body, shown)
				}
			}
		})
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestSubmitStoresAndNotifies(t *testing.T) {
	f := newFixture(t, RouterOptions{})

	w := postForm(f.router, form("  Jo ", "jo@example.com", "<i>Hello</i>"), "application/json")
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Status string `json:"status"`
		ID     string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "stored", resp.Status)

	stored, err := f.store.Get(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jo", stored.Name)
	assert.Equal(t, "Hello", stored.Message)

	select {
	case got := <-f.notifier.got:
		assert.Equal(t, resp.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("notification not sent")
	}
}

func TestSubmitMarkupOnlyMessage(t *testing.T) {
	f := newFixture(t, RouterOptions{})

	w := postForm(f.router, form("Jo", "a@b.co", "<b></b>"), "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `<p id="messageError" class="error">`)
	assert.Contains(t, w.Body.String(), `<p id="nameError" class="error hidden">`)

	w = postForm(f.router, form("Jo", "a@b.co", "<i></i>"), "application/json")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"message"`)

	stored, err := f.store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)

	select {
	case c := <-f.notifier.got:
		t.Fatalf("unexpected notification for %s", c.ID)
	default:
	}
}

type blockingNotifier struct {
	release chan struct{}
	sent    chan string
}

func (n *blockingNotifier) ContactReceived(_ context.Context, c models.Contact) error {
	<-n.release
	n.sent <- c.ID
	return nil
}

func TestDrainWaitsForNotifications(t *testing.T) {
	store, err := operations.NewMemStore()
	require.NoError(t, err)
	notifier := &blockingNotifier{release: make(chan struct{}), sent: make(chan string, 1)}
	h := &Contact{
		Store:    store,
		Notifier: notifier,
		Metrics:  metrics.New(),
		Logger:   zap.NewNop(),
	}
	r := NewRouter(h, h.Metrics, zap.NewNop(), RouterOptions{})

	require.Equal(t, http.StatusSeeOther, postForm(r, form("Jo", "a@b.co", "hi"), "").Code)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, h.Drain(ctx), context.DeadlineExceeded)

	close(notifier.release)
	require.NoError(t, h.Drain(context.Background()))
	select {
	case id := <-notifier.sent:
		assert.NotEmpty(t, id)
	default:
		t.Fatal("drain returned before the notification was sent")
	}
}

func TestDrainWithoutNotifications(t *testing.T) {
	h := &Contact{}
	assert.NoError(t, h.Drain(context.Background()))
}

func TestSubmitInvalidJSON(t *testing.T) {
	f := newFixture(t, RouterOptions{})

	w := postForm(f.router, form("Jo", "nope", "hi"), "application/json")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp struct {
		Status string            `json:"status"`
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid", resp.Status)
	assert.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors, "email")
}

func TestSubmitStoreFailure(t *testing.T) {
	store, err := operations.NewMemStore()
	require.NoError(t, err)
	h := &Contact{
		Store:    failingStore{ContactStore: store},
		Notifier: &recordingNotifier{got: make(chan models.Contact, 1)},
		Metrics:  metrics.New(),
		Logger:   zap.NewNop(),
	}
	r := NewRouter(h, h.Metrics, zap.NewNop(), RouterOptions{})

	w := postForm(r, form("Jo", "a@b.co", "hi"), "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSubmitTurnstileRequired(t *testing.T) {
	store, err := operations.NewMemStore()
	require.NoError(t, err)
	h := &Contact{
		Store:     store,
		Notifier:  &recordingNotifier{got: make(chan models.Contact, 1)},
		Metrics:   metrics.New(),
		Logger:    zap.NewNop(),
		Turnstile: validators.TurnstileConfig{Secret: "secret", TestToken: "test-token"},
	}
	r := NewRouter(h, h.Metrics, zap.NewNop(), RouterOptions{})

	w := postForm(r, form("Jo", "a@b.co", "hi"), "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	vals := form("Jo", "a@b.co", "hi")
	vals.Set("cf-turnstile-response", "test-token")
	w = postForm(r, vals, "")
	assert.Equal(t, http.StatusSeeOther, w.Code)
}

func TestSubmitRateLimited(t *testing.T) {
	f := newFixture(t, RouterOptions{RateLimitPerMinute: 1})

	assert.Equal(t, http.StatusSeeOther, postForm(f.router, form("Jo", "a@b.co", "hi"), "").Code)
	assert.Equal(t, http.StatusTooManyRequests, postForm(f.router, form("Jo", "a@b.co", "hi"), "").Code)
}

func TestHostAllowList(t *testing.T) {
	f := newFixture(t, RouterOptions{AllowedHosts: []string{"petshop.example"}})

	req := httptest.NewRequest(http.MethodGet, "/contact", nil)
	req.Host = "other.example"
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Host = "other.example"
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
