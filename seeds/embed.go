// Package seeds embeds the demo question bank.
package seeds

import _ "embed"

// Questions is the YAML bank loaded by cmd/seed-questions and the tests.
//
//go:embed questions.yaml
var Questions []byte
