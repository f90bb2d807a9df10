// Package openai implements ai.Embedder against the OpenAI embeddings
// API. It produces 1536-dimension vectors with text-embedding-3-small,
// batches large inputs in chunks of twenty with a short pause between
// requests, and maps API failures onto the ai error taxonomy.
//
// The embedder starts unconfigured and becomes usable once Configure is
// called with an API key; the key comes from user settings, never the
// environment.
package openai
