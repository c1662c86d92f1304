package instance

import (
	"os"

	"github.com/moritea/storefront/pkg/env"
)

// ID identifies this process in logs. MORI_INSTANCE_ID wins, then the
// hostname (the pod name on Cloud Run and Kubernetes).
func ID() string {
	if id := env.Get("MORI_INSTANCE_ID", ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "instance-0"
}
