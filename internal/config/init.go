package config

import (
	"os"

	swerrors "git.home.luguber.info/inful/sitewright/internal/errors"
)

const exampleConfig = `# SiteWright configuration.
# Environment variables are expanded: use ${VAR} for secrets.

site:
  title: "My Site"
  baseUrl: "https://example.com"
  description: ""

# Plugins run in the order listed. Each name may appear once.
plugins:
  - name: source-filesystem
    options:
      path: ./content
  # - name: source-git
  #   options:
  #     name: docs
  #     url: https://git.example.com/team/docs.git
  #     branch: main
  #     auth:
  #       type: token
  #       token: ${GIT_TOKEN}
  - name: transformer-markdown

output:
  directory: ./public
  clean: true
  verify: false

dev:
  addr: ":8000"
  watch:
    - ./content
  debounceMs: 300

eventstore:
  path: ./sitewright.db

relay:
  enabled: false
  # url: nats://localhost:4222
  # subject: sitewright.builds
  # kvBucket: sitewright-reports

metrics:
  enabled: true

logging:
  level: info
  format: text
`

// Init writes a commented example config file. An existing file is left
// alone unless force is set.
func Init(path string, force bool) error {
	if path == "" {
		path = DefaultPath
	}

	if _, err := os.Stat(path); err == nil && !force {
		return swerrors.New(swerrors.CategoryConfig, swerrors.SeverityFatal, "config file already exists, use --force to overwrite").
			WithContext("path", path)
	}

	if err := os.WriteFile(path, []byte(exampleConfig), 0o644); err != nil {
		return swerrors.Wrap(err, swerrors.CategoryConfig, swerrors.SeverityFatal, "failed to write config file").
			WithContext("path", path)
	}

	return nil
}
