// Package builder applies structural edits to a condition tree.
//
// Every node is addressed by a stable filter.NodeID assigned when the node
// is created or when a parsed tree is adopted. An index from ID to node and
// parent keeps addresses valid while siblings are added and removed, so a
// UI can hold on to an ID across any number of edits.
//
// Operations:
//   - AddCondition / AddGroup append to a group
//   - Delete / DeleteAt remove a node (deleting the root is a no-op)
//   - SetConnector, SetField, SetOperator, SetValueText overwrite attributes
//
// Edits never cascade, are not undoable and are not checked against the
// metadata catalog beyond picking defaults for new conditions. A field or
// operator that later disappears from the catalog is kept as-is.
//
// A Builder belongs to a single editing session and is not safe for
// concurrent use.
package builder
