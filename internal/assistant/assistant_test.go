package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lunbi/lunbi/internal/knowledge"
	"github.com/lunbi/lunbi/internal/log"
)

// fakeSearcher returns scripted retrieval results.
type fakeSearcher struct {
	results []knowledge.Result
	err     error
	lastK   int
}

func (f *fakeSearcher) Search(_ context.Context, _ string, k int) ([]knowledge.Result, error) {
	f.lastK = k
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

// fakeModel is a deterministic Generator. The blocking path returns the
// concatenation of deltas; the streaming path emits them one at a time.
// failAfter injects a failure after that many deltas (-1 disables).
type fakeModel struct {
	deltas    []string
	failAfter int
	genErr    error
	calls     int
}

func newFakeModel(deltas ...string) *fakeModel {
	return &fakeModel{deltas: deltas, failAfter: -1}
}

func (f *fakeModel) Generate(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.genErr != nil {
		return "", f.genErr
	}
	return strings.Join(f.deltas, ""), nil
}

func (f *fakeModel) GenerateStream(ctx context.Context, _ string, cb StreamCallback) (string, error) {
	f.calls++
	if f.genErr != nil {
		return "", f.genErr
	}
	var b strings.Builder
	for i, d := range f.deltas {
		if f.failAfter >= 0 && i == f.failAfter {
			return "", errors.New("stream interrupted")
		}
		if err := cb(ctx, d); err != nil {
			return "", err
		}
		b.WriteString(d)
	}
	return b.String(), nil
}

func resultsWithScore(score float64) []knowledge.Result {
	return []knowledge.Result{
		{
			Document: knowledge.Document{
				ID:        "doc-1",
				Content:   "Microgravity reduces mechanical load on bone.",
				Source:    "bone_density.md",
				CreatedAt: time.Now(),
			},
			Similarity: score,
		},
		{
			Document: knowledge.Document{
				ID:        "doc-2",
				Content:   "Astronauts lose 1-2% bone mass per month in orbit.",
				Source:    "bone_density.md",
				CreatedAt: time.Now(),
			},
			Similarity: score - 0.1,
		},
	}
}

func TestAnswerRelevanceBoundary(t *testing.T) {
	tests := []struct {
		name       string
		score      float64
		wantStatus Status
		wantCalls  int
	}{
		{name: "exactly at threshold passes", score: 0.5, wantStatus: StatusSuccess, wantCalls: 1},
		{name: "just below threshold is gated", score: 0.499, wantStatus: StatusOutOfContext, wantCalls: 0},
		{name: "well above threshold passes", score: 0.8, wantStatus: StatusSuccess, wantCalls: 1},
		{name: "well below threshold is gated", score: 0.2, wantStatus: StatusOutOfContext, wantCalls: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			search := &fakeSearcher{results: resultsWithScore(tt.score)}
			model := newFakeModel("answer")
			p := New(search, model, log.NewNop())

			res, err := p.Answer(context.Background(), "How does microgravity affect bone?", "en")
			if err != nil {
				t.Fatalf("Answer() unexpected error: %v", err)
			}
			if res.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", res.Status, tt.wantStatus)
			}
			if model.calls != tt.wantCalls {
				t.Errorf("model calls = %d, want %d", model.calls, tt.wantCalls)
			}
			if search.lastK != TopK {
				t.Errorf("retrieval k = %d, want %d", search.lastK, TopK)
			}
		})
	}
}

func TestAnswerEmptyRetrieval(t *testing.T) {
	search := &fakeSearcher{}
	model := newFakeModel("answer")
	p := New(search, model, log.NewNop())

	res, err := p.Answer(context.Background(), "What is the capital of France?", "en")
	if err != nil {
		t.Fatalf("Answer() unexpected error: %v", err)
	}
	if res.Status != StatusOutOfContext {
		t.Errorf("Status = %q, want %q", res.Status, StatusOutOfContext)
	}
	if res.Answer != outOfContextMessage {
		t.Errorf("Answer = %q, want the fixed out-of-context message", res.Answer)
	}
	if model.calls != 0 {
		t.Errorf("model calls = %d, want 0", model.calls)
	}
}

func TestAnswerExampleKeywords(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "example keyword", query: "Give me some example questions"},
		{name: "prompt keyword", query: "show me sample prompts"},
		{name: "topic keyword uppercase", query: "What TOPICS can I ask about?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			search := &fakeSearcher{results: resultsWithScore(0.1)}
			model := newFakeModel("answer")
			p := New(search, model, log.NewNop())

			res, err := p.Answer(context.Background(), tt.query, "en")
			if err != nil {
				t.Fatalf("Answer() unexpected error: %v", err)
			}
			if res.Status != StatusSuccess {
				t.Errorf("Status = %q, want %q", res.Status, StatusSuccess)
			}
			if !strings.HasPrefix(res.Answer, exampleListHeader) {
				t.Errorf("Answer missing example list header: %q", res.Answer)
			}
			for _, hint := range scopeHints {
				if !strings.Contains(res.Answer, hint) {
					t.Errorf("Answer missing hint %q", hint)
				}
			}
			if model.calls != 0 {
				t.Errorf("model calls = %d, want 0", model.calls)
			}
		})
	}
}

func TestAnswerExampleKeywordWithRelevantResults(t *testing.T) {
	// Keywords only matter when the gate rejects; a relevant query that
	// happens to contain "topic" still gets a generated answer.
	search := &fakeSearcher{results: resultsWithScore(0.9)}
	model := newFakeModel("generated answer")
	p := New(search, model, log.NewNop())

	res, err := p.Answer(context.Background(), "Explain the topic of bone loss in orbit", "en")
	if err != nil {
		t.Fatalf("Answer() unexpected error: %v", err)
	}
	if res.Answer != "generated answer" {
		t.Errorf("Answer = %q, want generated answer", res.Answer)
	}
	if model.calls != 1 {
		t.Errorf("model calls = %d, want 1", model.calls)
	}
}

func TestAnswerRetrievalError(t *testing.T) {
	searchErr := errors.New("connection refused")
	p := New(&fakeSearcher{err: searchErr}, newFakeModel("answer"), log.NewNop())

	_, err := p.Answer(context.Background(), "How does microgravity affect bone?", "en")
	if !errors.Is(err, searchErr) {
		t.Fatalf("Answer() error = %v, want %v", err, searchErr)
	}
}

func TestAnswerGenerationFailure(t *testing.T) {
	search := &fakeSearcher{results: resultsWithScore(0.8)}
	model := newFakeModel("answer")
	model.genErr = errors.New("model unavailable")
	p := New(search, model, log.NewNop())

	res, err := p.Answer(context.Background(), "How does microgravity affect bone?", "en")
	if err != nil {
		t.Fatalf("Answer() unexpected error: %v", err)
	}
	if res.Status != StatusFailed {
		t.Errorf("Status = %q, want %q", res.Status, StatusFailed)
	}
	if res.Answer != failureMessage {
		t.Errorf("Answer = %q, want the fixed failure message", res.Answer)
	}
	if model.calls != 1 {
		t.Errorf("model calls = %d, want 1 (no retry)", model.calls)
	}
}

func TestAnswerCollectsSources(t *testing.T) {
	results := resultsWithScore(0.8)
	results = append(results, knowledge.Result{
		Document:   knowledge.Document{ID: "doc-3", Content: "Untracked passage."},
		Similarity: 0.6,
	})
	search := &fakeSearcher{results: results}
	p := New(search, newFakeModel("answer"), log.NewNop())

	res, err := p.Answer(context.Background(), "How does microgravity affect bone?", "en")
	if err != nil {
		t.Fatalf("Answer() unexpected error: %v", err)
	}
	// doc-3 has no source reference and is dropped.
	if len(res.Sources) != 2 {
		t.Fatalf("len(Sources) = %d, want 2", len(res.Sources))
	}
	for _, src := range res.Sources {
		if src != "bone_density.md" {
			t.Errorf("unexpected source %q", src)
		}
	}
}

func TestAnswerStreamMatchesBlocking(t *testing.T) {
	deltas := []string{"Bone ", "loses ", "density ", "in orbit."}

	search := &fakeSearcher{results: resultsWithScore(0.8)}
	p := New(search, newFakeModel(deltas...), log.NewNop())

	blocking, err := p.Answer(context.Background(), "How does microgravity affect bone?", "en")
	if err != nil {
		t.Fatalf("Answer() unexpected error: %v", err)
	}

	var streamed []string
	streaming, err := p.AnswerStream(context.Background(), "How does microgravity affect bone?", "en",
		func(_ context.Context, chunk string) error {
			streamed = append(streamed, chunk)
			return nil
		})
	if err != nil {
		t.Fatalf("AnswerStream() unexpected error: %v", err)
	}

	if streaming.Answer != blocking.Answer {
		t.Errorf("streaming Answer = %q, blocking Answer = %q", streaming.Answer, blocking.Answer)
	}
	if streaming.Status != blocking.Status {
		t.Errorf("streaming Status = %q, blocking Status = %q", streaming.Status, blocking.Status)
	}
	if got := strings.Join(streamed, ""); got != blocking.Answer {
		t.Errorf("concatenated deltas = %q, want %q", got, blocking.Answer)
	}
	if len(streamed) != len(deltas) {
		t.Errorf("delta count = %d, want %d", len(streamed), len(deltas))
	}
}

func TestAnswerStreamMidFailure(t *testing.T) {
	model := newFakeModel("one ", "two ", "three ", "four ", "five")
	model.failAfter = 3

	search := &fakeSearcher{results: resultsWithScore(0.8)}
	p := New(search, model, log.NewNop())

	var streamed int
	res, err := p.AnswerStream(context.Background(), "How does microgravity affect bone?", "en",
		func(_ context.Context, _ string) error {
			streamed++
			return nil
		})
	if err != nil {
		t.Fatalf("AnswerStream() unexpected error: %v", err)
	}
	if streamed != 3 {
		t.Errorf("deltas before failure = %d, want 3", streamed)
	}
	if res.Status != StatusFailed {
		t.Errorf("Status = %q, want %q", res.Status, StatusFailed)
	}
	if res.Answer != failureMessage {
		t.Errorf("Answer = %q, want the fixed failure message (partials discarded)", res.Answer)
	}
}

func TestBuildPrompt(t *testing.T) {
	p := New(&fakeSearcher{}, newFakeModel(), log.NewNop())
	results := resultsWithScore(0.8)

	prompt := p.buildPrompt("How does microgravity affect bone?", "pl", results)

	if !strings.Contains(prompt, results[0].Document.Content) {
		t.Error("prompt missing first passage")
	}
	if !strings.Contains(prompt, results[1].Document.Content) {
		t.Error("prompt missing second passage")
	}
	if !strings.Contains(prompt, contextSeparator) {
		t.Error("prompt missing passage separator")
	}
	if !strings.Contains(prompt, "Polish") {
		t.Error("prompt missing target language name")
	}

	// Unsupported languages fall back to the default in the instruction.
	prompt = p.buildPrompt("question", "xx", results)
	if !strings.Contains(prompt, "English") {
		t.Error("prompt missing default language name for unsupported language")
	}
}

func TestWantsExamples(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"give me an example", true},
		{"EXAMPLE", true},
		{"what prompts work", true},
		{"suggest a topic", true},
		{"how does bone loss happen", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := wantsExamples(tt.query); got != tt.want {
			t.Errorf("wantsExamples(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestScopeHintsCopy(t *testing.T) {
	hints := ScopeHints()
	if len(hints) != len(scopeHints) {
		t.Fatalf("len(ScopeHints()) = %d, want %d", len(hints), len(scopeHints))
	}
	hints[0] = "mutated"
	if scopeHints[0] == "mutated" {
		t.Error("ScopeHints() returned the internal slice, want a copy")
	}
}
