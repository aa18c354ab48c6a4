package render

import "strings"

// DefaultLanguage is preselected in the Q&A panel.
const DefaultLanguage = "English"

// Closed set of answer languages offered in the Q&A panel.
var languages = []string{
	"Assamese", "Bengali", "Bodo", "Dogri", "English", "Gujarati", "Hindi",
	"Kannada", "Kashmiri", "Konkani", "Maithili", "Malayalam", "Manipuri",
	"Marathi", "Nepali", "Odia", "Punjabi", "Sanskrit", "Santali", "Sindhi",
	"Tamil", "Telugu", "Urdu",
}

// Languages returns a copy of the full catalog.
func Languages() []string {
	out := make([]string, len(languages))
	copy(out, languages)
	return out
}

// FilterLanguages returns catalog entries containing q, case-insensitive.
// An empty query returns the whole catalog.
func FilterLanguages(q string) []string {
	if q == "" {
		return Languages()
	}
	q = strings.ToLower(q)
	var out []string
	for _, l := range languages {
		if strings.Contains(strings.ToLower(l), q) {
			out = append(out, l)
		}
	}
	return out
}

// ValidLanguage reports whether lang is in the catalog.
func ValidLanguage(lang string) bool {
	for _, l := range languages {
		if l == lang {
			return true
		}
	}
	return false
}
