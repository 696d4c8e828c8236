package httpx

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hmcts/xui-gateway/internal/adapters/authroles"
	"github.com/hmcts/xui-gateway/internal/adapters/securecookie"
	domainauth "github.com/hmcts/xui-gateway/internal/domain/auth"
	authmocks "github.com/hmcts/xui-gateway/internal/mocks/auth"
	"github.com/hmcts/xui-gateway/internal/service"
)

const testHashKey = "0123456789abcdef0123456789abcdef"

// testGateway wires the real service, gate and cookie codec around in-memory doubles.
type testGateway struct {
	handler  http.Handler
	gate     *service.Gate
	provider *authmocks.MockAuthProvider
	sessions *authmocks.MemorySessionStore
	svc      *service.AuthService
	cookies  *Cookies
}

type gatewayOption func(*RouterServices)

func newTestCookies(t *testing.T) *Cookies {
	t.Helper()
	codec, err := securecookie.New(securecookie.Config{HashKey: []byte(testHashKey)})
	require.NoError(t, err)
	return NewCookies(CookieConfig{Platform: "aat"}, codec)
}

func newTestGateway(t *testing.T, opts ...gatewayOption) *testGateway {
	t.Helper()
	gate := service.NewGate()
	provider := authmocks.NewMockAuthProvider()
	require.NoError(t, gate.Register(domainauth.StrategyOIDC, provider))
	sessions := authmocks.NewMemorySessionStore()
	svc := service.NewAuthService(service.AuthServiceOptions{
		Strategies: gate,
		Sessions:   sessions,
		Roles:      authroles.NewAllowList(authroles.DefaultEntries),
	})
	cookies := newTestCookies(t)

	rs := RouterServices{Auth: svc, Cookies: cookies, Readiness: gate}
	for _, o := range opts {
		o(&rs)
	}
	return &testGateway{
		handler:  NewRouter(rs),
		gate:     gate,
		provider: provider,
		sessions: sessions,
		svc:      svc,
		cookies:  cookies,
	}
}

func (g *testGateway) do(t *testing.T, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	rr := httptest.NewRecorder()
	g.handler.ServeHTTP(rr, req)
	return rr
}

// startLogin runs /login and returns the state and the oauth cookies.
func (g *testGateway) startLogin(t *testing.T) (string, []*http.Cookie) {
	t.Helper()
	rr := g.do(t, "/login")
	require.Equal(t, http.StatusFound, rr.Code)
	loc, err := url.Parse(rr.Header().Get("Location"))
	require.NoError(t, err)
	return loc.Query().Get("state"), rr.Result().Cookies()
}

// login completes a full login and returns the cookies the callback wrote.
func (g *testGateway) login(t *testing.T) map[string]*http.Cookie {
	t.Helper()
	state, oauth := g.startLogin(t)
	rr := g.do(t, "/oauth2/callback?code=abc&state="+state, oauth...)
	require.Equal(t, http.StatusFound, rr.Code, rr.Body.String())
	return cookieMap(rr)
}

func cookieMap(rr *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := make(map[string]*http.Cookie)
	for _, c := range rr.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func liveCookies(m map[string]*http.Cookie) []*http.Cookie {
	var out []*http.Cookie
	for _, c := range m {
		if c.MaxAge >= 0 && c.Value != "" {
			out = append(out, c)
		}
	}
	return out
}

func withRoles(roles ...string) func(*authmocks.MockAuthProvider) {
	return func(p *authmocks.MockAuthProvider) { p.DefaultUser.Roles = roles }
}

func requestWithCookies(cookies []*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	return req
}
