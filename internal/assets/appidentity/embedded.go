package appidentityassets

import _ "embed"

// YAML is the embedded copy of `.fulmen/app.yaml` so the binary resolves its
// identity when run outside the repository.
//
//go:embed app.yaml
var YAML []byte
