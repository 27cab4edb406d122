package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/softjail/internal/logging"
)

// withRequestMetadata adds the client IP and User-Agent to the request
// context so every log line of the call carries them.
func withRequestMetadata(r *http.Request) context.Context {
	return logging.WithAttrs(r.Context(),
		"ip", r.RemoteAddr, // already resolved by TrustedRealIP
		"user_agent", r.UserAgent(),
	)
}
