package instance

import (
	"os"

	"github.com/angelmondragon/homeplast-storefront/pkg/env"
)

// GetID identifies this process in logs: HOMEPLAST_INSTANCE_ID, then the platform's
// DYNO variable, then the hostname.
func GetID() string {
	if id := env.Get("HOMEPLAST_INSTANCE_ID", env.Get("DYNO", "")); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
