package types

import (
	"os"
	"strings"
)

// ContextUserKey is where the auth middleware stores the AuthenticatedUser.
const ContextUserKey = "user"

// AllowedOrigins feeds both the CORS layer and the websocket origin check.
// CLIENT_URL names the deployed frontend; ALLOWED_ORIGINS appends extra
// comma-separated origins. The Vite dev server is always allowed so local
// frontend work needs no env setup.
var AllowedOrigins = buildAllowedOrigins(os.Getenv("CLIENT_URL"), os.Getenv("ALLOWED_ORIGINS"))

func buildAllowedOrigins(clientURL, extra string) []string {
	origins := []string{"http://localhost:5173"}

	if clientURL != "" {
		origins = append(origins, clientURL)
	}

	for _, origin := range strings.Split(extra, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}

	return origins
}
