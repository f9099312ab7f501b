// Package querydsl models the boolean search query produced by the compiler.
//
// A query is a tree of two clause kinds:
//   - *Bool: {"bool": {"must"|"should"|"must_not": [clauses...]}}
//   - *Criterion: {"<primitive>": parameters}
//
// Clauses marshal to the search engine's JSON shape with encoding/json.
// MarshalCanonical and Hash give a byte-stable rendering used for golden
// files, the query store and response hashes.
//
// This package imports nothing internal.
package querydsl
