package llm

import (
	"github.com/lunbi/lunbi/internal/assistant"
	"github.com/lunbi/lunbi/internal/translate"
)

// Compile-time checks that the client satisfies the consumer interfaces of
// the packages it is wired into.
var (
	_ assistant.Generator = (*Client)(nil)
	_ translate.Generator = (*Client)(nil)
)
