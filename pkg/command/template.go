// LingBot - Daily fortune slip bot for group chats
// License: MIT
//
// Copyright (c) 2026 LingBot contributors

package command

import "regexp"

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Render substitutes {name} placeholders from vars. Placeholders with
// no binding stay literal, so a typo in a configured template degrades
// visibly instead of erasing text.
func Render(template string, vars map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(m string) string {
		name := m[1 : len(m)-1]
		if v, ok := vars[name]; ok {
			return v
		}
		return m
	})
}

// previewText shortens a question to max runes for the list view,
// marking the cut with "...". Runes, not bytes, so CJK text is never
// split mid-character.
func previewText(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
