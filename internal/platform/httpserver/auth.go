package httpserver

import (
	"net/http"
	"strings"
)

const apiKeyHeader = "X-API-Key"

// Identity is the authenticated caller. Host is empty for global keys and
// names the one provider a scoped key may query.
type Identity struct {
	Key  string
	Host string
}

func (i Identity) Global() bool { return i.Host == "" }

// APIKeyAuth resolves the caller identity from the API-key header.
type APIKeyAuth struct {
	globalKeys map[string]struct{}
	scopedKeys map[string]string
}

func NewAPIKeyAuth(globalKeys []string, scopedKeys map[string]string) *APIKeyAuth {
	auth := &APIKeyAuth{
		globalKeys: make(map[string]struct{}, len(globalKeys)),
		scopedKeys: make(map[string]string, len(scopedKeys)),
	}
	for _, key := range globalKeys {
		if key = strings.TrimSpace(key); key != "" {
			auth.globalKeys[key] = struct{}{}
		}
	}
	for key, host := range scopedKeys {
		if key = strings.TrimSpace(key); key != "" {
			auth.scopedKeys[key] = strings.TrimSpace(host)
		}
	}
	return auth
}

// Authenticate returns the caller identity, or false for missing/unknown
// keys. The response for an unknown key carries no hint about which keys
// exist.
func (a *APIKeyAuth) Authenticate(r *http.Request) (Identity, bool) {
	key := strings.TrimSpace(r.Header.Get(apiKeyHeader))
	if key == "" {
		return Identity{}, false
	}
	if _, ok := a.globalKeys[key]; ok {
		return Identity{Key: key}, true
	}
	if host, ok := a.scopedKeys[key]; ok {
		return Identity{Key: key, Host: host}, true
	}
	return Identity{}, false
}
