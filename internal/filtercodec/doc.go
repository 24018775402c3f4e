// Package filtercodec converts condition trees to and from the JSON text the
// backend query engine consumes.
//
// Wire shapes:
//
//	group: {"connector": "and"|"or", "conditions": [<entry>, ...]}
//	entry: {"condition": <leaf>} | <group>
//	leaf:  {"field": {"table", "raw_name", "display_name", "field_type"},
//	        "operator": <id>, "filter"?: <string>, "filters"?: [<string>, ...]}
//
// At most one of filter/filters is written, chosen by filter.Classify.
//
// Decode is strict and reports a ParseError with a JSON path. Parse is the
// lenient entry point used by editing sessions: anything it cannot decode
// becomes an empty root group.
//
// For every tree t built through the builder, filter.Equal(t,
// Parse(Serialize(t))) holds. Serialize(Parse(text)) reproducing text byte
// for byte is not a goal; Parse normalizes formatting and repairs input.
package filtercodec
