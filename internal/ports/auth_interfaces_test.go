package ports_test

import (
	"testing"

	"github.com/hmcts/xui-gateway/internal/adapters/authroles"
	"github.com/hmcts/xui-gateway/internal/adapters/securecookie"
	mocks "github.com/hmcts/xui-gateway/internal/mocks/auth"
	"github.com/hmcts/xui-gateway/internal/ports"
)

// This test only verifies that our doubles and adapters conform to the ports at compile time.
func TestMocksImplementPorts(t *testing.T) {
	t.Helper()

	var _ ports.AuthProvider = (*mocks.MockAuthProvider)(nil)
	var _ ports.SessionStore = (*mocks.MemorySessionStore)(nil)
	var _ ports.RoleGate = (*authroles.AllowList)(nil)
	var _ ports.CookieCodec = (*securecookie.Codec)(nil)
}
