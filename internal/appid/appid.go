// Package appid resolves the crosspost application identity, falling back to
// the embedded copy when no `.fulmen/app.yaml` is discoverable.
package appid

import (
	"context"

	"github.com/fulmenhq/gofulmen/appidentity"

	appidentityassets "github.com/crosspost/crosspost/internal/assets/appidentity"
)

func init() {
	// FULMEN_APP_IDENTITY_PATH and explicit paths still take precedence.
	_ = appidentity.RegisterEmbeddedIdentityYAML(appidentityassets.YAML)
}

// Get returns the process-wide identity.
func Get(ctx context.Context) (*appidentity.Identity, error) {
	return appidentity.Get(ctx)
}
