// Package preflight provides readiness checks for the study backend, the
// LLM provider, and the local paths studyhall depends on.
//
// These checks run in two contexts:
//   - The CLI "studyhall doctor" command calls RunAll and renders every result.
//   - The daemon calls RunServer before binding so a misconfigured data
//     directory fails fast instead of on the first upload.
//
// Each check is gated by its config toggle; disabled features report as
// skipped rather than failed.
package preflight
