package metadata

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-configform/pkg/schema"
)

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// sanitizeText strips markup from display strings. Entities escaped by the
// policy are decoded again so labels stay plain text.
func sanitizeText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	cleaned := textSanitizer().Sanitize(trimmed)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

func textSanitizer() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}

func sanitizeMetadata(meta schema.FieldMetadata) schema.FieldMetadata {
	meta.Label = sanitizeText(meta.Label)
	meta.Description = sanitizeText(meta.Description)
	meta.Placeholder = sanitizeText(meta.Placeholder)
	if len(meta.Options) > 0 {
		options := make([]schema.Option, len(meta.Options))
		for i, opt := range meta.Options {
			opt.Label = sanitizeText(opt.Label)
			options[i] = opt
		}
		meta.Options = options
	}
	return meta
}
