package core

import "strings"

// ContextSlot is the named placeholder every system prompt template must
// contain. Retrieved context is substituted for it at run time.
const ContextSlot = "{context}"

// PromptTemplate is a system prompt with a statically validated context
// slot. Construction fails when the slot is missing, so an executor can
// never be built around a template that silently drops its context.
//
// The zero value is invalid; always construct via NewPromptTemplate.
type PromptTemplate struct {
	before string
	after  string
}

// NewPromptTemplate parses text into a PromptTemplate. It returns a
// ValidationError when the context slot is absent. If the slot appears more
// than once, the first occurrence is the substitution point.
func NewPromptTemplate(text string) (PromptTemplate, error) {
	before, after, found := strings.Cut(text, ContextSlot)
	if !found {
		return PromptTemplate{}, NewValidationError("system_prompt",
			"template must contain the "+ContextSlot+" placeholder")
	}
	return PromptTemplate{before: before, after: after}, nil
}

// Render substitutes context into the slot and returns the final prompt.
func (t PromptTemplate) Render(context string) string {
	return t.before + context + t.after
}

// String reassembles the original template text.
func (t PromptTemplate) String() string {
	return t.before + ContextSlot + t.after
}
