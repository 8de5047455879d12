package config

import (
	"os"

	derrors "github.com/mpalmer/static-builder/internal/foundation/errors"
)

const exampleConfig = `# static-builder configuration
#
# source:  directory tree compiled into the route table (hidden entries are skipped)
# layouts: templates that documents extend with {{extends "<name>.html"}}
# mode:    frozen (content baked at compile time) or live (re-rendered per request)
source: site
layouts: layouts
mode: frozen

scan:
  normalize_unicode: false

output:
  file: internal/site/static_content.go
  package: site
  # depfile: internal/site/static_content.d

serve:
  addr: ":8080"
  metrics: true
  watch: false

links:
  verify: false
`

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return derrors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}
	if err := os.WriteFile(path, []byte(exampleConfig), 0o644); err != nil {
		return derrors.WrapError(err, derrors.CategoryConfig, "failed to write config file").
			Fatal().WithContext("path", path).Build()
	}
	return nil
}
