package dialog

import (
	"regexp"

	"github.com/careline/careline/internal"
	"github.com/careline/careline/pkg/models"
)

var log = internal.GetLogger()

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Render substitutes {name} placeholders in a template from caller
// attributes and extracted entities. Attributes win on key collisions.
// A placeholder with no value in either source is left literal, so a
// degraded reply still shows what it could not fill rather than an
// empty gap.
func Render(template string, attributes map[string]string, entities models.Entities) string {
	values := internal.MergeMaps(entities.AsMap(), attributes)

	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		if value, ok := values[name]; ok {
			return value
		}
		return match
	})
}
