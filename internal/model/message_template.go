// internal/model/message_template.go
package model

import (
	"strings"
	"time"
)

// VariationSeparator splits a template body into rotating variations.
const VariationSeparator = "---"

// MessageTemplate holds spintax body text with {a|b|c} alternation groups
// and a {{first_name}} placeholder. A body may carry several variations
// separated by "---" lines; the scheduler rotates between them so
// consecutive sends never reuse the same one.
type MessageTemplate struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Variations returns the body's variation texts. A body without separator
// lines is a single variation.
func (t MessageTemplate) Variations() []string {
	variations := []string{}
	for _, part := range strings.Split(t.Body, "\n"+VariationSeparator+"\n") {
		part = strings.TrimSpace(part)
		if part != "" {
			variations = append(variations, part)
		}
	}
	if len(variations) == 0 {
		variations = append(variations, "")
	}
	return variations
}
