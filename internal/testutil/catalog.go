package testutil

import (
	"github.com/TencentBlueKing/bk-audit-sub000/internal/filter"
	"github.com/TencentBlueKing/bk-audit-sub000/internal/metadata"
)

// Catalog returns a small audit-event catalog. username is the first field
// and eq the first operator, so new conditions default to "username eq".
func Catalog() *metadata.Catalog {
	return &metadata.Catalog{
		FieldList: []metadata.Field{
			{Table: "audit_event", RawName: "username", DisplayName: "Username", FieldType: "string"},
			{Table: "audit_event", RawName: "action_id", DisplayName: "Action", FieldType: "string"},
			{Table: "audit_event", RawName: "access_source_ip", DisplayName: "Source IP", FieldType: "string"},
			{Table: "audit_event", RawName: "result_code", DisplayName: "Result code", FieldType: "int"},
		},
		OperatorList: metadata.DefaultOperators(),
	}
}

// Field returns the catalog field with the given raw name as a FieldRef.
// Panics if the name is unknown, which is a test bug.
func Field(rawName string) filter.FieldRef {
	f, ok := metadata.LookupField(Catalog(), "", rawName)
	if !ok {
		panic("testutil: unknown field " + rawName)
	}
	return f.Ref()
}
