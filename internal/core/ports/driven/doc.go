// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): PDF text extraction, embedding,
// answer generation and persistence.
package driven
