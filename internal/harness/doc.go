// Package harness runs compile scenarios: a rule tree, an optional CUE
// configuration and the query the tree must compile to.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	config: ../config/catalog      # optional, relative to the scenario file
//	tree:
//	  type: group
//	  properties: { conjunction: AND }
//	  children1:
//	    r1:
//	      type: rule
//	      properties: { field: sku, operator: equal, value: [AB-1] }
//	expect:
//	  absent: false
//	  query: { term: { sku.raw: AB-1 } }   # subset match
//	  warnings: []                          # exact codes, in order
//	assertions:
//	  - type: query_contains
//	    primitive: term
//	    field: sku.raw
//
// # Assertion Types
//
//   - query_contains: a criterion with the primitive (and field, body subset) exists
//   - criterion_count: exactly count criteria use the primitive
//   - warning: a warning with the code (and field) was reported
//   - hash: the query's content hash equals hash
//
// # Golden Files
//
// RunWithGolden compares the canonical {"query", "warnings"} document
// against testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
