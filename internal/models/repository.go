package models

// Snapshot is one tracked repository as last observed by the search API.
type Snapshot struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Owner    string  `json:"owner"`
	Language *string `json:"language"`
	Stars    int64   `json:"stars"`
}

// HasLanguage reports whether the upstream API reported a primary language.
func (s *Snapshot) HasLanguage() bool {
	return s.Language != nil && *s.Language != ""
}

// LanguageOrEmpty returns the language, or "" when absent.
func (s *Snapshot) LanguageOrEmpty() string {
	if s.Language == nil {
		return ""
	}
	return *s.Language
}
