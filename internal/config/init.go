package config

import (
	"os"

	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

const exampleConfig = `# docsite configuration
site:
  title: Libernet Documentation
  description: Libernet Documentation
  author:
    name: The Libernet team
    url: https://libernet.xyz
  icon: /favicon.svg
  # base_url: https://docs.libernet.xyz

paths:
  content: content
  output: public
  # static: static

build:
  profile: full # minimal | full
  workers: 4
  highlight_style: github

# Replaces the built-in navigation when present.
navigation:
  - title: Introduction
    links:
      - { title: Introduction, href: / }
  - title: User Guides
    links:
      - { title: Getting Started, href: /user/getting-started }
      - { title: Node Turnup, href: /user/node-turnup }
  - title: Developer Guides
    links:
      - { title: Architecture, href: /dev/architecture }
      - { title: Wire Protocol, href: /dev/protocol }
      - { title: Wallet Format V1, href: /dev/wallet/v1 }

# pages:
#   /dev/protocol:
#     title: Wire Protocol

serve:
  host: 127.0.0.1
  port: 1314
  livereload: true
  # rebuild_interval: 5m

logging:
  level: info
  format: text
`

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if path == "" {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}
	if err := os.WriteFile(path, []byte(exampleConfig), 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write config file").
			WithContext("path", path).
			Build()
	}
	return nil
}
