// Package filter defines the condition tree edited by the filter builder.
//
// A tree is a root Group whose children are either nested Groups or
// Condition leaves. Groups combine their children with a Connector (and/or);
// a Condition is a single field/operator/value predicate.
//
// This package contains the data model and the operator arity policy only.
// Every other internal package imports filter; filter imports nothing
// internal.
//
// Key constraints:
//   - The root is always a Group. Empty Groups are valid while editing.
//   - Unknown connectors normalize to And.
//   - A Condition stores the raw text the user typed. The text is
//     reinterpreted through Classify only when a Value is requested, so
//     switching operators never rewrites it.
//   - Ownership is exclusive: a node belongs to exactly one parent Group.
package filter
