// Package extraction wraps the external summarization call that turns a
// worthy exchange into a structured knowledge candidate.
//
// The call is the only non-deterministic, externally-dependent step in the
// curation pipeline, so it hides behind the knowledge.Extractor interface
// and the rest of the engine is testable with a stub. Anthropic and OpenAI
// backends are provided; both enforce a fixed JSON response shape at the
// trust boundary and treat any schema mismatch as ErrExtractionFailed.
package extraction
