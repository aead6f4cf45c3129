// Package llm talks to hosted language models. It exposes a minimal chat
// interface (system + user message in, free text out) and an embedding
// interface, with implementations for OpenAI-compatible endpoints (Groq,
// OpenAI) and Google Gemini, plus circuit-breaker wrappers for both.
package llm
