package translate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lunbi/lunbi/internal/log"
)

type fakeGenerator struct {
	output     string
	err        error
	calls      int
	lastPrompt string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

func TestTranslate(t *testing.T) {
	model := &fakeGenerator{output: "  How does microgravity affect bone?  "}
	tr := New(model, log.NewNop())

	out, err := tr.Translate(context.Background(), "Jak mikrograwitacja wplywa na kosci?", "en", "pl")
	if err != nil {
		t.Fatalf("Translate() unexpected error: %v", err)
	}
	if out != "How does microgravity affect bone?" {
		t.Errorf("Translate() = %q, want trimmed model output", out)
	}
	if !strings.Contains(model.lastPrompt, "Polish") || !strings.Contains(model.lastPrompt, "English") {
		t.Errorf("prompt missing language names: %q", model.lastPrompt)
	}
	if !strings.Contains(model.lastPrompt, "Jak mikrograwitacja wplywa na kosci?") {
		t.Errorf("prompt missing source text: %q", model.lastPrompt)
	}
}

func TestTranslateSameLanguageNoOp(t *testing.T) {
	model := &fakeGenerator{}
	tr := New(model, log.NewNop())

	out, err := tr.Translate(context.Background(), "already english", "en", "en")
	if err != nil {
		t.Fatalf("Translate() unexpected error: %v", err)
	}
	if out != "already english" {
		t.Errorf("Translate() = %q, want input unchanged", out)
	}
	if model.calls != 0 {
		t.Errorf("model calls = %d, want 0", model.calls)
	}
}

func TestTranslateEmptyTextNoOp(t *testing.T) {
	model := &fakeGenerator{}
	tr := New(model, log.NewNop())

	out, err := tr.Translate(context.Background(), "   ", "en", "pl")
	if err != nil {
		t.Fatalf("Translate() unexpected error: %v", err)
	}
	if out != "   " {
		t.Errorf("Translate() = %q, want input unchanged", out)
	}
	if model.calls != 0 {
		t.Errorf("model calls = %d, want 0", model.calls)
	}
}

func TestTranslateDefaultsSourceToInverse(t *testing.T) {
	model := &fakeGenerator{output: "translated"}
	tr := New(model, log.NewNop())

	if _, err := tr.Translate(context.Background(), "tekst", "en", ""); err != nil {
		t.Fatalf("Translate() unexpected error: %v", err)
	}
	if !strings.Contains(model.lastPrompt, "from Polish to English") {
		t.Errorf("prompt = %q, want inverse source language", model.lastPrompt)
	}
}

func TestTranslateUnsupportedLanguage(t *testing.T) {
	tr := New(&fakeGenerator{}, log.NewNop())

	if _, err := tr.Translate(context.Background(), "text", "de", "en"); !errors.Is(err, ErrUnsupportedLanguage) {
		t.Errorf("target error = %v, want ErrUnsupportedLanguage", err)
	}
	if _, err := tr.Translate(context.Background(), "text", "en", "de"); !errors.Is(err, ErrUnsupportedLanguage) {
		t.Errorf("source error = %v, want ErrUnsupportedLanguage", err)
	}
}

func TestTranslateModelFailure(t *testing.T) {
	model := &fakeGenerator{err: errors.New("quota exceeded")}
	tr := New(model, log.NewNop())

	_, err := tr.Translate(context.Background(), "tekst", "en", "pl")
	if !errors.Is(err, ErrTranslation) {
		t.Fatalf("Translate() error = %v, want ErrTranslation", err)
	}
}

func TestSupported(t *testing.T) {
	tests := []struct {
		lang string
		want bool
	}{
		{"en", true},
		{"pl", true},
		{"de", false},
		{"", false},
		{"EN", false},
	}
	for _, tt := range tests {
		if got := Supported(tt.lang); got != tt.want {
			t.Errorf("Supported(%q) = %v, want %v", tt.lang, got, tt.want)
		}
	}
}

func TestLanguageName(t *testing.T) {
	if got := LanguageName("pl"); got != "Polish" {
		t.Errorf("LanguageName(pl) = %q, want Polish", got)
	}
	if got := LanguageName("xx"); got != "xx" {
		t.Errorf("LanguageName(xx) = %q, want the code itself", got)
	}
}
