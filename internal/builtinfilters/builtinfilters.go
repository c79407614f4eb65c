// Package builtinfilters embeds the builtin filter library (spec.md
// §4.9's third discovery tier) so the binary ships usable filters with
// no install step.
package builtinfilters

import "embed"

//go:embed data
var FS embed.FS
