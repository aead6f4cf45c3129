// Package models lists the models available on the configured
// OpenAI-compatible endpoint, so users can pick a value for llm.model and
// embedding.model.
package models
