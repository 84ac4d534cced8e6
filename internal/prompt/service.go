// Package prompt implements the top-level orchestration: translation,
// answer generation, source resolution, and status-driven persistence.
// Every query leaves an auditable record regardless of outcome.
package prompt

import (
	"context"
	"time"

	"github.com/lunbi/lunbi/internal/assistant"
	"github.com/lunbi/lunbi/internal/log"
	"github.com/lunbi/lunbi/internal/source"
	"github.com/lunbi/lunbi/internal/translate"
)

// Answerer is the pipeline capability the orchestrator needs.
type Answerer interface {
	Answer(ctx context.Context, query, language string) (assistant.Result, error)
	AnswerStream(ctx context.Context, query, language string, cb assistant.StreamCallback) (assistant.Result, error)
}

// Translator translates the query into the pipeline working language.
type Translator interface {
	Translate(ctx context.Context, text, targetLang, sourceLang string) (string, error)
}

// Resolver maps retrieval references to a durable source record.
type Resolver interface {
	Resolve(ctx context.Context, candidates []string) (*source.Source, *source.Payload)
}

// Recorder persists and lists prompt records.
type Recorder interface {
	Add(ctx context.Context, rec Record) (Record, error)
	ListLatest(ctx context.Context, limit int) ([]Record, error)
}

// Response is the combined payload returned to the caller after one
// invocation. PromptID is zero when the audit write failed; the answer is
// still returned.
type Response struct {
	PromptID int64           `json:"prompt_id,omitempty"`
	Answer   string          `json:"answer"`
	Status   string          `json:"status"`
	Language string          `json:"language"`
	Source   *source.Payload `json:"source,omitempty"`
}

// Service drives the answer pipeline and owns persistence ordering:
// translate if needed, answer, resolve source, persist last.
//
// Service is stateless across invocations and safe for concurrent use.
type Service struct {
	answers     Answerer
	translator  Translator
	sources     Resolver
	store       Recorder
	defaultLang string
	logger      log.Logger
}

// NewService creates the orchestrator. defaultLang is the response language
// used when a request carries none; unsupported values fall back to the
// pipeline working language.
func NewService(answers Answerer, translator Translator, sources Resolver, store Recorder, defaultLang string, logger log.Logger) *Service {
	if logger == nil {
		logger = log.NewNop()
	}
	if !translate.Supported(defaultLang) {
		defaultLang = translate.DefaultLanguage
	}
	return &Service{
		answers:     answers,
		translator:  translator,
		sources:     sources,
		store:       store,
		defaultLang: defaultLang,
		logger:      logger,
	}
}

// Process handles one blocking invocation. language is the language the
// caller wants the answer in; unsupported or empty values fall back to the
// pipeline default.
func (s *Service) Process(ctx context.Context, query, language string) (Response, error) {
	overallStart := time.Now()

	lang, workQuery := s.prepareQuery(ctx, query, language)

	generationStart := time.Now()
	result, err := s.answers.Answer(ctx, workQuery, lang)
	if err != nil {
		return Response{}, err
	}
	s.logger.Info("prompt generation completed",
		"query", query, "duration", time.Since(generationStart))

	resp := s.finish(ctx, query, lang, result)
	s.logger.Info("prompt processed",
		"prompt_id", resp.PromptID, "duration", time.Since(overallStart))
	return resp, nil
}

// ProcessStream handles one streaming invocation, forwarding content deltas
// to onDelta in arrival order. The returned Response carries the terminal
// state; no structured final payload is sent through onDelta.
//
// Persistence still runs when the caller disconnects mid-stream: the audit
// record of the attempt is written with whatever state was reached.
func (s *Service) ProcessStream(ctx context.Context, query, language string, onDelta assistant.StreamCallback) (Response, error) {
	overallStart := time.Now()

	lang, workQuery := s.prepareQuery(ctx, query, language)

	streamStart := time.Now()
	result, err := s.answers.AnswerStream(ctx, workQuery, lang, onDelta)
	if err != nil {
		return Response{}, err
	}
	s.logger.Info("stream consumption completed",
		"query", query, "duration", time.Since(streamStart))

	resp := s.finish(ctx, query, lang, result)
	s.logger.Info("stream prompt completed",
		"prompt_id", resp.PromptID, "duration", time.Since(overallStart))
	return resp, nil
}

// SamplePrompts returns the curated example questions.
func (s *Service) SamplePrompts() []string {
	return assistant.ScopeHints()
}

// ListLatest returns the most recent prompt records.
func (s *Service) ListLatest(ctx context.Context, limit int) ([]Record, error) {
	return s.store.ListLatest(ctx, limit)
}

// prepareQuery normalizes the requested language and translates the query
// into the pipeline working language when they differ. Translation failure
// falls back to the original text, and the language is then forced to the
// default so the answer matches the text the model actually saw.
func (s *Service) prepareQuery(ctx context.Context, query, language string) (lang, workQuery string) {
	lang = language
	if lang == "" {
		lang = s.defaultLang
	}
	if !translate.Supported(lang) {
		s.logger.Warn("unsupported language requested, using default",
			"language", language)
		lang = s.defaultLang
	}

	workQuery = query
	if lang != translate.DefaultLanguage {
		translated, err := s.translator.Translate(ctx, query, translate.DefaultLanguage, lang)
		if err != nil {
			s.logger.Warn("query translation failed, using original text",
				"error", err, "language", lang)
			lang = translate.DefaultLanguage
		} else {
			workQuery = translated
		}
	}
	return lang, workQuery
}

// finish resolves the source, persists the record, and builds the response.
// Persistence is the last step and is never skipped; a persistence failure
// is logged and surfaced as a zero prompt id rather than failing the request.
func (s *Service) finish(ctx context.Context, query, lang string, result assistant.Result) Response {
	// The audit write must survive caller cancellation.
	persistCtx := context.WithoutCancel(ctx)

	metadataStart := time.Now()
	src, payload := s.sources.Resolve(persistCtx, result.Sources)
	s.logger.Info("source preparation finished",
		"query", query, "duration", time.Since(metadataStart), "resolved", payload != nil)

	status := assistant.ParseStatus(string(result.Status), s.logger)

	rec := Record{
		Query:  query,
		Status: status,
	}
	if result.Answer != "" {
		answer := result.Answer
		rec.Answer = &answer
	}
	if src != nil {
		id := src.ID
		rec.SourceID = &id
	}

	persistenceStart := time.Now()
	saved, err := s.store.Add(persistCtx, rec)
	if err != nil {
		s.logger.Error("prompt persistence failed, returning without record id",
			"error", err, "status", status)
		saved = rec
	} else {
		s.logger.Info("prompt persisted",
			"prompt_id", saved.ID, "status", status, "duration", time.Since(persistenceStart))
	}

	return Response{
		PromptID: saved.ID,
		Answer:   result.Answer,
		Status:   string(status),
		Language: lang,
		Source:   payload,
	}
}
