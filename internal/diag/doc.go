// Package diag defines the diagnostic model shared by the whole engine:
// the Severity ordering, the Diagnostic value, and the per-document Store.
//
// The Store is the only shared mutable state between a running lint task and
// the editor's main path. Its contract, in short:
//
//   - one diagnostic per line, keyed by 1-based line number;
//   - merge by severity: a line keeps the first diagnostic seen at the
//     highest severity observed so far in the current run;
//   - every key lies in [1, LineCount()], where LineCount mirrors the
//     owning buffer's line count at the last reconciliation;
//   - ApplyInsert/ApplyRemove rewrite keys as the buffer is edited, so a
//     diagnostic stays anchored to the text it was reported against;
//   - BeginRun hands out generation stamps so a superseded run's leftover
//     writes cannot corrupt the results of the run that replaced it.
package diag
