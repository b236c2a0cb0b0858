// Package webui embeds the single-page management UI served by the daemon.
// The page is self-contained (no external assets) so it works on an
// installation with no internet access.
package webui

import "embed"

//go:embed index.html
var Files embed.FS
