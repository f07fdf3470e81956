// Package core contains the shared data model of Archon: agent
// configurations, chat messages, retrieved context chunks, execution
// responses, prompt templates and the error taxonomy used across the
// manager, executor, model and tool packages.
//
// The package is intentionally dependency-free so that every other package
// can import it without cycles.
package core
