package assistant

// promptTemplate is the persona-constrained instruction sent to the model.
// The model must answer only from the provided context and decline politely
// when the context is insufficient.
const promptTemplate = `You are Lunbi, a cheerful AI assistant inspired by Mooncake from the series Final Space.
Speak in a warm, friendly tone and treat the user like a teammate.
Only rely on the context below, which covers NASA and Space Biology topics.
If the context lacks the needed details or the question falls outside Space Biology, politely explain that you can only help with Space Biology and invite the user to ask another question from that field.
Never invent or speculate beyond the given context.

Context:
%s

User question: %s

Answer (in %s, in Lunbi's style):`

// contextSeparator joins retrieved passages inside the context block.
const contextSeparator = "\n\n---\n\n"

// outOfContextMessage is the fixed decline for out-of-domain queries.
const outOfContextMessage = "Loo-loo! That question doesn't seem to orbit NASA or Space Biology. " +
	"Could you ask me something from the space biology mission log instead?"

// failureMessage is the fixed apology returned when generation fails.
const failureMessage = "Loo-loo! I hit a cosmic glitch while generating the answer. " +
	"Please try again in a moment."

// exampleListHeader introduces the canned example questions.
const exampleListHeader = "Loo-loo! Here are some mission-ready questions you can ask me:"

// exampleKeywords signal that the user wants example topics. Matched as
// case-insensitive substrings against the query; the list is closed.
var exampleKeywords = []string{"example", "prompt", "topic"}

// scopeHints is the curated list of sample questions served verbatim.
var scopeHints = []string{
	"How does microgravity affect the human cardiovascular system?",
	"What changes occur in astronaut bone density during long missions?",
	"Explain plant root growth in reduced gravity environments.",
	"How do circadian rhythms shift aboard the International Space Station?",
	"Describe immune system adaptations to spaceflight.",
	"What are the impacts of space radiation on cellular DNA?",
	"How do astronauts maintain muscle mass in orbit?",
	"Explain fluid redistribution in microgravity.",
	"What nutrition strategies support astronaut health?",
	"How is microbiome balance studied during missions?",
	"Describe vestibular system responses to microgravity.",
	"What countermeasures help prevent space anemia?",
	"How does prolonged spaceflight influence vision?",
	"Explain cardiovascular deconditioning in microgravity.",
	"What experiments explore plant photosynthesis in space?",
	"How do stress hormones change during missions?",
	"What rehabilitation is required after returning to Earth?",
	"Describe the effects of partial gravity on bone remodeling.",
	"How are organoids used for space biology research?",
	"What are current NASA priorities in space biology?",
}

// ScopeHints returns the curated sample questions.
func ScopeHints() []string {
	hints := make([]string, len(scopeHints))
	copy(hints, scopeHints)
	return hints
}
