package engine

import "strings"

// RenderTemplate substitutes {{key}} placeholders in tpl using the provided
// variable map. Every occurrence of a present key is replaced; placeholders
// whose key is absent are left untouched, braces included.
func RenderTemplate(tpl string, vars map[string]string) string {
	if tpl == "" || len(vars) == 0 {
		return tpl
	}
	rendered := tpl
	for key, value := range vars {
		rendered = strings.ReplaceAll(rendered, "{{"+key+"}}", value)
	}
	return rendered
}
