// Package harness runs editing scripts against a filter editing session.
//
// A script replays what a user does in the console: adding and removing
// conditions, switching between the structured and textual views, typing
// raw JSON. The harness records one trace event per step and then checks
// assertions against the final session.
//
// # Script Format
//
// Scripts are YAML files with the following structure:
//
//	name: script_name
//	description: "What this script exercises"
//	catalog: catalog.yaml        # optional, relative to the script
//	initial: ""                  # optional persisted payload
//	clear_on_arity_change: false # optional builder option
//	steps:
//	  - action: add_condition
//	    parent: root
//	    as: user
//	  - action: set_value
//	    node: user
//	    text: alice
//	  - action: switch
//	    mode: textual
//	assertions:
//	  - type: mode
//	    mode: textual
//	  - type: submit_contains
//	    text: '"filter": "alice"'
//
// # Step Actions
//
//   - add_condition, add_group: append to parent (default root); "as" names the new node
//   - delete: remove node; delete_at: remove parent's child at index
//   - set_connector, set_field, set_operator, set_value: edit a node in place
//   - switch: change to mode textual or structured; expect_ok checks the sync result
//   - set_text: replace the textual buffer
//
// Nodes are named by alias. "root" always names the current root. A
// successful switch to structured mode adopts a new tree, so every other
// alias is forgotten at that point.
//
// # Assertion Types
//
//   - mode: the final mode
//   - node_count: groups and conditions in the final tree, root included
//   - submit_contains: a substring of the submitted payload
//   - check: whether the submitted payload decodes (ok: true|false)
//   - round_trip: the tree survives serialize-then-parse
//   - sql_where: the compiled WHERE clause of the submitted payload
//
// # Deterministic Testing
//
// Node IDs come from a sequential generator (n-1 is the initial root), so
// traces are reproducible. RunWithGolden compares the submitted payload
// against testdata/golden/<name>.golden.
package harness
