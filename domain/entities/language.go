package entities

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// ErrLanguageNotFound is returned when a language code is not in the catalog
var ErrLanguageNotFound = errors.New("language not found")

// Language is a selectable language
type Language struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Locale string `json:"locale"` // BCP-47 tag handed to speech services
}

// Catalog maps language codes to display names
type Catalog struct {
	languages map[string]Language
	ordered   []Language
}

// DefaultLanguages are the languages offered by the translator
var DefaultLanguages = []Language{
	{Code: "en", Name: "English", Locale: "en-US"},
	{Code: "hi", Name: "Hindi", Locale: "hi-IN"},
	{Code: "bn", Name: "Bengali", Locale: "bn-IN"},
	{Code: "te", Name: "Telugu", Locale: "te-IN"},
	{Code: "mr", Name: "Marathi", Locale: "mr-IN"},
	{Code: "ta", Name: "Tamil", Locale: "ta-IN"},
	{Code: "ur", Name: "Urdu", Locale: "ur-IN"},
	{Code: "gu", Name: "Gujarati", Locale: "gu-IN"},
	{Code: "ml", Name: "Malayalam", Locale: "ml-IN"},
	{Code: "kn", Name: "Kannada", Locale: "kn-IN"},
	{Code: "pa", Name: "Punjabi", Locale: "pa-Guru-IN"},
	{Code: "es", Name: "Spanish", Locale: "es-ES"},
	{Code: "fr", Name: "French", Locale: "fr-FR"},
	{Code: "de", Name: "German", Locale: "de-DE"},
	{Code: "zh-CN", Name: "Chinese (Simplified)", Locale: "cmn-Hans-CN"},
	{Code: "ja", Name: "Japanese", Locale: "ja-JP"},
	{Code: "ko", Name: "Korean", Locale: "ko-KR"},
	{Code: "ru", Name: "Russian", Locale: "ru-RU"},
	{Code: "pt", Name: "Portuguese", Locale: "pt-BR"},
	{Code: "ar", Name: "Arabic", Locale: "ar-SA"},
	{Code: "it", Name: "Italian", Locale: "it-IT"},
	{Code: "nl", Name: "Dutch", Locale: "nl-NL"},
	{Code: "tr", Name: "Turkish", Locale: "tr-TR"},
}

// NewCatalog creates a catalog from the given languages.
// Codes must be unique and well-formed language tags.
func NewCatalog(languages []Language) (*Catalog, error) {
	c := &Catalog{
		languages: make(map[string]Language, len(languages)),
		ordered:   make([]Language, 0, len(languages)),
	}

	for _, lang := range languages {
		if lang.Name == "" {
			return nil, fmt.Errorf("language %q has no display name", lang.Code)
		}
		key, err := normalizeCode(lang.Code)
		if err != nil {
			return nil, fmt.Errorf("invalid language code %q: %w", lang.Code, err)
		}
		if _, exists := c.languages[key]; exists {
			return nil, fmt.Errorf("duplicate language code %q", lang.Code)
		}
		if lang.Locale == "" {
			lang.Locale = lang.Code
		}
		c.languages[key] = lang
		c.ordered = append(c.ordered, lang)
	}

	sort.Slice(c.ordered, func(i, j int) bool {
		return c.ordered[i].Code < c.ordered[j].Code
	})

	return c, nil
}

// DefaultCatalog returns the catalog of DefaultLanguages
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultLanguages)
	if err != nil {
		panic(err)
	}
	return c
}

// Resolve looks up a language by code. Codes are matched case-insensitively
// after tag normalisation, so "zh-cn" resolves to "zh-CN".
func (c *Catalog) Resolve(code string) (Language, error) {
	key, err := normalizeCode(code)
	if err != nil {
		return Language{}, fmt.Errorf("%w: %q", ErrLanguageNotFound, code)
	}

	lang, ok := c.languages[key]
	if !ok {
		return Language{}, fmt.Errorf("%w: %q", ErrLanguageNotFound, code)
	}
	return lang, nil
}

// DisplayName returns the display name for a code
func (c *Catalog) DisplayName(code string) (string, error) {
	lang, err := c.Resolve(code)
	if err != nil {
		return "", err
	}
	return lang.Name, nil
}

// ValidatePair resolves both sides of a translation
func (c *Catalog) ValidatePair(source, target string) (Language, Language, error) {
	src, err := c.Resolve(source)
	if err != nil {
		return Language{}, Language{}, fmt.Errorf("source language: %w", err)
	}
	tgt, err := c.Resolve(target)
	if err != nil {
		return Language{}, Language{}, fmt.Errorf("target language: %w", err)
	}
	return src, tgt, nil
}

// All returns every language ordered by code
func (c *Catalog) All() []Language {
	out := make([]Language, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Len returns the number of languages in the catalog
func (c *Catalog) Len() int {
	return len(c.ordered)
}

func normalizeCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", errors.New("empty code")
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", err
	}
	return strings.ToLower(tag.String()), nil
}
