// Package translate implements query translation between the two languages
// the service supports. The pipeline works in English; Polish queries are
// translated in before retrieval and answers are generated directly in the
// requested language.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lunbi/lunbi/internal/log"
)

// DefaultLanguage is the pipeline working language.
const DefaultLanguage = "en"

var (
	// ErrTranslation indicates the translation request failed. Callers fall
	// back to the original text instead of aborting the pipeline.
	ErrTranslation = errors.New("translation failed")

	// ErrUnsupportedLanguage indicates a language code outside the supported set.
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// languageNames maps supported codes to display names used in the prompt.
var languageNames = map[string]string{
	"en": "English",
	"pl": "Polish",
}

// Supported reports whether the language code is handled by the service.
func Supported(lang string) bool {
	_, ok := languageNames[lang]
	return ok
}

// LanguageName returns the display name for a supported language code,
// or the code itself when unknown.
func LanguageName(lang string) string {
	if name, ok := languageNames[lang]; ok {
		return name
	}
	return lang
}

// inverse returns the other language in the two-language system.
func inverse(lang string) string {
	if lang == "en" {
		return "pl"
	}
	return "en"
}

// Generator is the narrow model capability the translator needs.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Translator translates text between the supported languages using the
// language model.
type Translator struct {
	model  Generator
	logger log.Logger
}

// New creates a Translator.
func New(model Generator, logger log.Logger) *Translator {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Translator{model: model, logger: logger}
}

// Translate translates text into targetLang. When sourceLang is empty it
// defaults to the inverse of targetLang; when source and target match the
// input is returned unchanged without a model call.
func (t *Translator) Translate(ctx context.Context, text, targetLang, sourceLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	if !Supported(targetLang) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, targetLang)
	}

	if sourceLang == "" {
		sourceLang = inverse(targetLang)
	}
	if sourceLang == targetLang {
		return text, nil
	}
	if !Supported(sourceLang) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, sourceLang)
	}

	prompt := fmt.Sprintf(
		"Translate the following content from %s to %s. "+
			"Preserve technical terminology and keep the tone formal.\n\nContent:\n%s",
		LanguageName(sourceLang), LanguageName(targetLang), text)

	t.logger.Debug("translating content", "from", sourceLang, "to", targetLang)

	out, err := t.model.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTranslation, err)
	}
	return strings.TrimSpace(out), nil
}
