package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/portfolio/internal/captcha"
	"github.com/Zachkp/portfolio/internal/config"
	"github.com/Zachkp/portfolio/internal/contact"
	"github.com/Zachkp/portfolio/internal/store"
)

type fakeRelay struct {
	mu       sync.Mutex
	requests []contact.Request
	resp     *contact.RelayResponse
	err      error
}

func (f *fakeRelay) Submit(_ context.Context, req contact.Request) (*contact.RelayResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.resp, f.err
}

func (f *fakeRelay) calls() []contact.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]contact.Request(nil), f.requests...)
}

func testConfig() *config.Config {
	return &config.Config{
		Environment:    "test",
		Port:           "0",
		AccessKey:      "test-access-key",
		RelayURL:       contact.DefaultEndpoint,
		Subject:        "Portfolio - New Form Submission",
		SiteKey:        "site-key-123",
		SubmitTimeout:  2 * time.Second,
		ContactRPS:     100,
		ContactBurst:   100,
		ViewTTL:        time.Hour,
		MaxViews:       100,
		VisitRetention: 365 * 24 * time.Hour,
		AdminUsername:  "admin",
		AdminPassword:  "secret",
	}
}

func newTestServer(t *testing.T, cfg *config.Config, relay contact.Relay) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	s, err := New(cfg, st, relay)
	require.NoError(t, err)
	return s
}

var viewIDPattern = regexp.MustCompile(`name="view_id" value="([0-9a-f-]{36})"`)

func loadHome(t *testing.T, s *Server) (string, string) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	s.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	m := viewIDPattern.FindStringSubmatch(w.Body.String())
	require.Len(t, m, 2, "home page should carry a view id")
	return m[1], w.Body.String()
}

func postForm(s *Server, path string, form url.Values) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	s.Handler().ServeHTTP(w, req)
	return w
}

func contactForm(viewID, token string) url.Values {
	return url.Values{
		"view_id":            {viewID},
		"name":               {"Ada"},
		"email":              {"ada@example.com"},
		"message":            {"Hello there"},
		contact.CaptchaField: {token},
	}
}

func TestHome(t *testing.T) {
	s := newTestServer(t, testConfig(), &fakeRelay{})

	_, body := loadHome(t, s)
	assert.Contains(t, body, `data-sitekey="site-key-123"`)
	assert.Equal(t, 1, strings.Count(body, captcha.ScriptURL))
	assert.Contains(t, body, `id="contact"`)
	assert.Equal(t, 1, s.views.Len())
}

func TestHomeScriptOutsideSwappedForm(t *testing.T) {
	s := newTestServer(t, testConfig(), &fakeRelay{})

	_, body := loadHome(t, s)
	formEnd := strings.Index(body, "</form>")
	script := strings.Index(body, captcha.ScriptURL)
	require.NotEqual(t, -1, formEnd)
	require.NotEqual(t, -1, script)
	assert.Greater(t, script, formEnd, "captcha script must survive form swaps")
	assert.Contains(t, body, "htmx:afterSwap")
	assert.Contains(t, body, "hcaptcha.render")
}

func TestStaticStylesheetExists(t *testing.T) {
	assert.FileExists(t, "../../static/site.css")
}

func TestHomeThemeFromCookie(t *testing.T) {
	s := newTestServer(t, testConfig(), &fakeRelay{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: themeCookie, Value: "dark"})
	s.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `class="scroll-smooth dark"`)
}

func TestContactFormSuccess(t *testing.T) {
	relay := &fakeRelay{resp: &contact.RelayResponse{Success: true}}
	s := newTestServer(t, testConfig(), relay)
	viewID, _ := loadHome(t, s)

	w := postForm(s, "/contact", contactForm(viewID, "tok"))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Message sent successfully")
	assert.Contains(t, body, `data-outcome="success"`)
	assert.NotContains(t, body, captcha.ScriptURL, "script is only attached once per view")

	calls := relay.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Ada", calls[0].Name)
	assert.Equal(t, "tok", calls[0].CaptchaToken)
	assert.Equal(t, "test-access-key", calls[0].AccessKey)

	v, ok := s.views.Get(viewID)
	require.True(t, ok)
	assert.True(t, v.Contact.Fields().IsZero(), "fields are cleared after success")
}

func TestContactFormRetryKeepsWidgetWithoutScript(t *testing.T) {
	relay := &fakeRelay{err: contact.ErrTransport}
	s := newTestServer(t, testConfig(), relay)
	viewID, _ := loadHome(t, s)

	for i := 0; i < 2; i++ {
		w := postForm(s, "/contact", contactForm(viewID, "tok"))
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, contact.LineNetworkError)
		assert.Contains(t, body, `data-captcha="true"`)
		assert.Contains(t, body, `data-sitekey="site-key-123"`)
		assert.NotContains(t, body, "<script")
	}
	assert.Len(t, relay.calls(), 2)
}

func TestContactFormAfterEvictionDoesNotReloadScript(t *testing.T) {
	cfg := testConfig()
	cfg.MaxViews = 1
	relay := &fakeRelay{resp: &contact.RelayResponse{Success: true}}
	s := newTestServer(t, cfg, relay)

	evicted, first := loadHome(t, s)
	assert.Equal(t, 1, strings.Count(first, captcha.ScriptURL))
	loadHome(t, s)
	_, ok := s.views.Get(evicted)
	require.False(t, ok)

	w := postForm(s, "/contact", contactForm(evicted, "tok"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), captcha.ScriptURL)
	assert.Contains(t, w.Body.String(), "Message sent successfully")

	m := viewIDPattern.FindStringSubmatch(w.Body.String())
	require.Len(t, m, 2)
	fresh, ok := s.views.Get(m[1])
	require.True(t, ok)
	assert.True(t, fresh.Captcha.Loaded())
	assert.Equal(t, 1, fresh.Doc.Count(captcha.ScriptURL))
}

func TestContactFormMissingCaptcha(t *testing.T) {
	relay := &fakeRelay{resp: &contact.RelayResponse{Success: true}}
	s := newTestServer(t, testConfig(), relay)
	viewID, _ := loadHome(t, s)

	w := postForm(s, "/contact", contactForm(viewID, ""))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), contact.LineCaptchaMissing)
	assert.Contains(t, w.Body.String(), `value="Ada"`, "fields are kept on failure")
	assert.Empty(t, relay.calls())
}

func TestContactFormProviderError(t *testing.T) {
	relay := &fakeRelay{resp: &contact.RelayResponse{Success: false, Message: "Invalid access key"}}
	s := newTestServer(t, testConfig(), relay)
	viewID, _ := loadHome(t, s)

	w := postForm(s, "/contact", contactForm(viewID, "tok"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid access key")
	assert.Contains(t, w.Body.String(), `data-outcome="provider_error"`)
}

func TestContactFormRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.ContactRPS = 1
	cfg.ContactBurst = 1
	relay := &fakeRelay{resp: &contact.RelayResponse{Success: true}}
	s := newTestServer(t, cfg, relay)
	viewID, _ := loadHome(t, s)

	first := postForm(s, "/contact", contactForm(viewID, "tok"))
	require.Equal(t, http.StatusOK, first.Code)

	second := postForm(s, "/contact", contactForm(viewID, "tok"))
	require.Equal(t, http.StatusOK, second.Code)
	assert.Contains(t, second.Body.String(), "Too many messages")
	assert.Len(t, relay.calls(), 1)
}

func TestContactRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	cfg := testConfig()
	cfg.ContactRPS = 1
	cfg.ContactBurst = 1
	relay := &fakeRelay{resp: &contact.RelayResponse{Success: true}}
	s := newTestServer(t, cfg, relay)
	viewID, _ := loadHome(t, s)

	limited := 0
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(contactForm(viewID, "tok").Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
		s.Handler().ServeHTTP(w, req)
		if strings.Contains(w.Body.String(), "Too many messages") {
			limited++
		}
	}

	assert.Equal(t, 4, limited)
	assert.Len(t, relay.calls(), 1)
}

func TestTrustedProxyForwardedFor(t *testing.T) {
	cfg := testConfig()
	cfg.ContactRPS = 1
	cfg.ContactBurst = 1
	cfg.TrustedProxies = []string{"192.0.2.0/24"}
	relay := &fakeRelay{resp: &contact.RelayResponse{Success: true}}
	s := newTestServer(t, cfg, relay)
	viewID, _ := loadHome(t, s)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(contactForm(viewID, "tok").Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
		s.Handler().ServeHTTP(w, req)
		assert.NotContains(t, w.Body.String(), "Too many messages")
	}
	assert.Len(t, relay.calls(), 3)
}

func TestNewRejectsInvalidTrustedProxies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := testConfig()
	cfg.TrustedProxies = []string{"not-an-ip"}
	_, err = New(cfg, st, &fakeRelay{})
	assert.Error(t, err)
}

func TestContactJSON(t *testing.T) {
	tests := []struct {
		name       string
		relay      *fakeRelay
		token      string
		wantStatus int
		wantKind   string
	}{
		{
			name:       "success",
			relay:      &fakeRelay{resp: &contact.RelayResponse{Success: true}},
			token:      "tok",
			wantStatus: http.StatusOK,
			wantKind:   "success",
		},
		{
			name:       "missing captcha",
			relay:      &fakeRelay{resp: &contact.RelayResponse{Success: true}},
			wantStatus: http.StatusUnprocessableEntity,
			wantKind:   "validation_error",
		},
		{
			name:       "network error",
			relay:      &fakeRelay{err: contact.ErrTransport},
			token:      "tok",
			wantStatus: http.StatusBadGateway,
			wantKind:   "network_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, testConfig(), tt.relay)

			body, err := json.Marshal(ContactRequest{
				Name:         "Ada",
				Email:        "ada@example.com",
				Message:      "Hello",
				CaptchaToken: tt.token,
			})
			require.NoError(t, err)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(string(body)))
			req.Header.Set("Content-Type", "application/json")
			s.Handler().ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), `"outcome":"`+tt.wantKind+`"`)
		})
	}
}

func TestContactJSONBadBody(t *testing.T) {
	s := newTestServer(t, testConfig(), &fakeRelay{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNavToggleTheme(t *testing.T) {
	s := newTestServer(t, testConfig(), &fakeRelay{})
	viewID, _ := loadHome(t, s)

	w := postForm(s, "/nav/toggle-theme", url.Values{"view_id": {viewID}})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "theme=dark")
	assert.Contains(t, w.Body.String(), `data-theme-icon="sun"`)

	v, ok := s.views.Get(viewID)
	require.True(t, ok)
	assert.True(t, v.Nav().Dark())
}

func TestNavMenuAndScroll(t *testing.T) {
	s := newTestServer(t, testConfig(), &fakeRelay{})
	viewID, _ := loadHome(t, s)

	w := postForm(s, "/nav/open-menu", url.Values{"view_id": {viewID}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "translate-x-0")
	assert.Empty(t, w.Header().Get("Set-Cookie"))

	w = postForm(s, "/nav/scroll", url.Values{"view_id": {viewID}, "y": {"120"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "backdrop-blur-lg bg-white/10 shadow-md")
}

func TestNavUnknownAction(t *testing.T) {
	s := newTestServer(t, testConfig(), &fakeRelay{})
	viewID, _ := loadHome(t, s)

	w := postForm(s, "/nav/teleport", url.Values{"view_id": {viewID}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = postForm(s, "/nav/teleport", url.Values{"view_id": {"00000000-0000-0000-0000-000000000000"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 1, s.views.Len(), "unknown actions must not create views")
}

func TestReveal(t *testing.T) {
	s := newTestServer(t, testConfig(), &fakeRelay{})
	viewID, _ := loadHome(t, s)

	w := postForm(s, "/reveal", url.Values{"view_id": {viewID}, "section": {"about"}})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = postForm(s, "/reveal", url.Values{"view_id": {viewID}, "section": {"about"}})
	assert.Equal(t, http.StatusAlreadyReported, w.Code)

	w = postForm(s, "/reveal", url.Values{"view_id": {viewID}, "section": {"basement"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postForm(s, "/reveal", url.Values{"view_id": {"missing"}, "section": {"about"}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	stats, err := s.store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Reveals["about"])
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig(), &fakeRelay{})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"ok"`)
}

func TestAdminRequiresLogin(t *testing.T) {
	s := newTestServer(t, testConfig(), &fakeRelay{})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/login", w.Header().Get("Location"))
}

func TestAdminAPIRequiresLogin(t *testing.T) {
	s := newTestServer(t, testConfig(), &fakeRelay{})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/api/stats", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"UNAUTHORIZED"`)
}

func TestAdminLogin(t *testing.T) {
	s := newTestServer(t, testConfig(), &fakeRelay{})

	bad := postForm(s, "/admin/login", url.Values{"username": {"admin"}, "password": {"nope"}})
	assert.Equal(t, http.StatusUnauthorized, bad.Code)
	assert.Contains(t, bad.Body.String(), "Invalid credentials")

	good := postForm(s, "/admin/login", url.Values{"username": {"admin"}, "password": {"secret"}})
	require.Equal(t, http.StatusFound, good.Code)
	assert.Equal(t, "/admin/dashboard", good.Header().Get("Location"))

	cookies := good.Result().Cookies()
	require.NotEmpty(t, cookies)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/api/stats", nil)
	req.AddCookie(cookies[0])
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "total_visitors")
}
