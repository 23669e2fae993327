package statequick

import (
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
)

// boolGen is the one primitive generator the engine derives itself,
// without a model author's help, per Return.Gen's fallback-derivation
// rule.
func boolGen() gopter.Gen {
	return gen.Bool()
}
