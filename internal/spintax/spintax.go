// internal/spintax/spintax.go
package spintax

import (
	"math/rand"
	"regexp"
	"strings"
)

// groupPattern matches {opt1|opt2|...} alternation groups. Options cannot
// contain braces, so groups never nest.
var groupPattern = regexp.MustCompile(`\{([^{}]+\|[^{}]+)\}`)

// firstNamePattern matches the {{first_name}} placeholder case-insensitively.
var firstNamePattern = regexp.MustCompile(`(?i)\{\{first_name\}\}`)

// Spin replaces every alternation group with one of its options, chosen
// independently and uniformly at random. Options are trimmed. Text without
// groups passes through unchanged.
func Spin(rng *rand.Rand, template string) string {
	return groupPattern.ReplaceAllStringFunc(template, func(match string) string {
		options := strings.Split(match[1:len(match)-1], "|")
		return strings.TrimSpace(options[rng.Intn(len(options))])
	})
}

// Render spins the template and substitutes the friend's first name.
func Render(rng *rand.Rand, template, firstName string) string {
	spun := Spin(rng, template)
	return firstNamePattern.ReplaceAllLiteralString(spun, firstName)
}
