// Package summary turns a finished practice conversation into a prose
// feedback report and a list of new persona-scoped memory candidates.
//
// The generation service is asked for a fixed-section report followed by a
// fenced JSON block. The block is parsed leniently: when it is missing or
// malformed the full response becomes the report and no memories are
// proposed. Only a failed request is an error.
package summary
