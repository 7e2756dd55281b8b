package settings

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrBadAddress reports a backend address that cannot be turned into an HTTP endpoint.
var ErrBadAddress = errors.New("bad server address")

// HTTPEndpoint maps a WebSocket base address to the HTTP URL of path on the
// same host. wss becomes https and any other scheme becomes http; the query
// and fragment are dropped.
func HTTPEndpoint(wsBase, path string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(wsBase))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadAddress, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q is not absolute", ErrBadAddress, wsBase)
	}
	switch strings.ToLower(u.Scheme) {
	case "wss", "https":
		u.Scheme = "https"
	default:
		u.Scheme = "http"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u.Path = path
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	u.User = nil
	return u.String(), nil
}
