// Package domain contains the core entities and business rules for the
// Ragdex engine: documents, chunks, upload outcomes, and the error
// taxonomy shared across all adapters.
package domain
