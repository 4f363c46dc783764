// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Extractor: Turns a source's bytes into documents
//   - ExtractorRegistry: Selects the extractor for a source
//   - PostProcessorPipeline: Cuts documents into segments
//   - EmbeddingService: Computes embedding vectors
//   - LLMService: Answers from retrieved context
//   - SessionOpener: Opens the VectorStore and SessionStore of a session
//   - UploadStore: Persists uploaded files before extraction
//   - ConfigStore: Application configuration
//   - PromptStore: Prompt templates
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, extractor, or postprocessor package
package driven
