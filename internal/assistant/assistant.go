// Package assistant implements the retrieval-augmented answer pipeline:
// similarity retrieval, the relevance gate, persona prompt construction,
// and blocking or streaming generation.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/lunbi/lunbi/internal/knowledge"
	"github.com/lunbi/lunbi/internal/log"
	"github.com/lunbi/lunbi/internal/translate"
)

// Fixed retrieval policy. These are not per-call parameters.
const (
	// TopK is the number of passages retrieved per query.
	TopK = 3

	// RelevanceThreshold is the minimum best-match score for generation to
	// proceed. The boundary is inclusive: exactly 0.5 passes.
	RelevanceThreshold = 0.5
)

// Searcher is the retrieval capability the pipeline needs.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]knowledge.Result, error)
}

// Generator is the model capability the pipeline needs.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateStream(ctx context.Context, prompt string, cb StreamCallback) (string, error)
}

// StreamCallback receives one content delta at a time, in arrival order.
// An alias of the bare function type so model clients satisfy Generator
// without a conversion.
type StreamCallback = func(ctx context.Context, chunk string) error

// Result is the terminal outcome of one answer invocation. In streaming mode
// it is the terminal event, carrying the same fields as the blocking path.
type Result struct {
	// Answer is the generated text, the example list, or a fixed persona
	// message; never empty.
	Answer string

	// Sources are the source references of the retrieved documents, in
	// retrieval order. Documents without a reference are dropped.
	Sources []string

	// Status is the terminal status for this invocation.
	Status Status
}

// Pipeline orchestrates retrieval, the relevance gate, and generation.
//
// Pipeline is stateless across invocations and safe for concurrent use.
type Pipeline struct {
	search Searcher
	model  Generator
	logger log.Logger
}

// New creates an answer Pipeline.
func New(search Searcher, model Generator, logger log.Logger) *Pipeline {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Pipeline{search: search, model: model, logger: logger}
}

// Answer runs the full pipeline in blocking mode. language is the language
// the answer must be written in.
//
// A retrieval failure is returned as an error; a generation failure is
// recovered into the fixed apology with StatusFailed.
func (p *Pipeline) Answer(ctx context.Context, query, language string) (Result, error) {
	return p.answer(ctx, query, language, nil)
}

// AnswerStream runs the pipeline forwarding content deltas to cb as they
// arrive. The returned Result carries the concatenated answer and the same
// fields as the blocking path. If generation fails mid-stream, the Result is
// the fixed apology with StatusFailed regardless of how much was already
// streamed; accumulated partial text is discarded.
func (p *Pipeline) AnswerStream(ctx context.Context, query, language string, cb StreamCallback) (Result, error) {
	return p.answer(ctx, query, language, cb)
}

func (p *Pipeline) answer(ctx context.Context, query, language string, cb StreamCallback) (Result, error) {
	results, err := p.search.Search(ctx, query, TopK)
	if err != nil {
		// Vector store unreachable: no graceful answer is possible.
		return Result{}, err
	}

	if gated, res := p.relevanceGate(query, results); gated {
		return res, nil
	}

	prompt := p.buildPrompt(query, language, results)

	var answer string
	if cb != nil {
		answer, err = p.model.GenerateStream(ctx, prompt, cb)
	} else {
		answer, err = p.model.Generate(ctx, prompt)
	}
	if err != nil {
		p.logger.Error("model invocation failed", "error", err, "streaming", cb != nil)
		return Result{Answer: failureMessage, Status: StatusFailed}, nil
	}

	sources := make([]string, 0, len(results))
	for _, r := range results {
		if r.Document.Source != "" {
			sources = append(sources, r.Document.Source)
		}
	}

	p.logger.Info("answer generated", "sources", sources)
	return Result{Answer: answer, Sources: sources, Status: StatusSuccess}, nil
}

// relevanceGate judges whether the query is in domain. It returns the
// terminal result for gated queries; no model call is made in this branch.
func (p *Pipeline) relevanceGate(query string, results []knowledge.Result) (bool, Result) {
	if len(results) > 0 && results[0].Similarity >= RelevanceThreshold {
		return false, Result{}
	}

	if wantsExamples(query) {
		p.logger.Info("providing example prompts", "query", query)
		var b strings.Builder
		b.WriteString(exampleListHeader)
		for _, hint := range scopeHints {
			b.WriteString("\n- ")
			b.WriteString(hint)
		}
		return true, Result{Answer: b.String(), Status: StatusSuccess}
	}

	p.logger.Warn("no relevant documents", "query", query)
	return true, Result{Answer: outOfContextMessage, Status: StatusOutOfContext}
}

// wantsExamples reports whether the query contains any example keyword.
func wantsExamples(query string) bool {
	q := strings.ToLower(query)
	for _, kw := range exampleKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// buildPrompt concatenates the retrieved passages into the bounded context
// block and renders the persona instruction.
func (p *Pipeline) buildPrompt(query, language string, results []knowledge.Result) string {
	passages := make([]string, 0, len(results))
	for _, r := range results {
		passages = append(passages, r.Document.Content)
	}
	contextBlock := strings.Join(passages, contextSeparator)

	langName := translate.LanguageName(translate.DefaultLanguage)
	if translate.Supported(language) {
		langName = translate.LanguageName(language)
	}

	return fmt.Sprintf(promptTemplate, contextBlock, query, langName)
}
