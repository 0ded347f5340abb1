// Package enrich implements the optional enrichment pass over song descriptors.
//
// A [Gateway] asks a text generation service (any [Completer]; [OpenAIClient] in production)
// to run up to three independent phases:
//   - [PhaseCorrect] : fix names, attribute a likely artist
//   - [PhaseAnalyze] : attach tempo, genre, energy and mood
//   - [PhaseOrder] : reorder the list for listening flow
//
// # Cardinality
//
// Every phase returns exactly one descriptor per input descriptor. The prompt carries each
// song's input index as "id"; [Reconcile] matches reply entries by that id first, then by
// case-insensitive name, then pairs leftovers with unmatched inputs, and finally appends any
// input that is still unmatched verbatim. This is enforced locally regardless of what the
// service returns.
//
// # Parsing
//
// [ParseSongs] tries a fenced code block holding an array, then the first bracketed array in
// the text, then one "name - artist" entry per line.
//
// # Failure
//
// Errors from the service and unparseable replies are logged and absorbed: the phase returns
// its input unchanged. Nothing is retried.
package enrich
