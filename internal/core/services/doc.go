// Package services implements the application core: the RAG engine
// orchestrator and its startup lifecycle.
package services
