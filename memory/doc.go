// Package memory implements the retrieval-augmented memory engine behind
// the Noir assistant.
//
// Every committed conversation turn becomes a Record: the verbatim text, a
// role tag (user or assistant), and an embedding computed once at write
// time. Records are durable and cross-session; the rolling history owned by
// package engine is transient and session-scoped.
//
// Architecture:
//   - Store: vector storage backend (chromem-go locally, pgvector in production)
//   - Embedder: text-to-vector conversion (ONNX all-MiniLM-L6-v2, or a mock)
//   - Manager: the engine itself - add, similarity query, role-split recall
//
// Recall is role-partitioned on purpose: past user questions and past
// assistant answers are retrieved with separate budgets so the orchestrator
// can weight them differently when building context.
package memory
