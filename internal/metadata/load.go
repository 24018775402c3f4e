package metadata

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/TencentBlueKing/bk-audit-sub000/internal/filter"
)

// LoadFile reads a catalog from path.
//
// .yaml and .yml files are decoded with strict field checking. .cue and
// .json files are evaluated as CUE, so a catalog may use CUE definitions
// and defaults. A catalog without operators gets DefaultOperators.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var cat *Catalog
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		cat, err = DecodeYAML(data)
	case ".cue", ".json":
		cat, err = DecodeCUE(data, path)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}

	if len(cat.OperatorList) == 0 {
		cat.OperatorList = DefaultOperators()
	}
	return cat, nil
}

// DecodeYAML decodes a YAML catalog, rejecting unknown keys.
func DecodeYAML(data []byte) (*Catalog, error) {
	var cat Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cat); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	return &cat, nil
}

// DecodeCUE evaluates data as CUE and extracts the fields and operators lists.
func DecodeCUE(data []byte, filename string) (*Catalog, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("building CUE value: %w", err)
	}

	cat := &Catalog{}

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if fieldsVal.Exists() {
		iter, err := fieldsVal.List()
		if err != nil {
			return nil, fmt.Errorf("fields: %w", err)
		}
		for i := 0; iter.Next(); i++ {
			fv := iter.Value()
			var f Field
			for _, s := range []struct {
				key string
				dst *string
			}{
				{"table", &f.Table},
				{"raw_name", &f.RawName},
				{"display_name", &f.DisplayName},
				{"field_type", &f.FieldType},
			} {
				if err := cueString(fv, s.key, s.dst); err != nil {
					return nil, fmt.Errorf("fields[%d]: %w", i, err)
				}
			}
			if f.RawName == "" {
				return nil, fmt.Errorf("fields[%d]: raw_name is required", i)
			}
			cat.FieldList = append(cat.FieldList, f)
		}
	}

	opsVal := v.LookupPath(cue.ParsePath("operators"))
	if opsVal.Exists() {
		iter, err := opsVal.List()
		if err != nil {
			return nil, fmt.Errorf("operators: %w", err)
		}
		for i := 0; iter.Next(); i++ {
			ov := iter.Value()
			var id, label string
			if err := cueString(ov, "id", &id); err != nil {
				return nil, fmt.Errorf("operators[%d]: %w", i, err)
			}
			if err := cueString(ov, "label", &label); err != nil {
				return nil, fmt.Errorf("operators[%d]: %w", i, err)
			}
			if id == "" {
				return nil, fmt.Errorf("operators[%d]: id is required", i)
			}
			cat.OperatorList = append(cat.OperatorList, Operator{ID: filter.OperatorID(id), Label: label})
		}
	}

	return cat, nil
}

// cueString reads an optional string field of v into dst.
func cueString(v cue.Value, key string, dst *string) error {
	fv := v.LookupPath(cue.ParsePath(key))
	if !fv.Exists() {
		return nil
	}
	if d, ok := fv.Default(); ok {
		fv = d
	}
	s, err := fv.String()
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = s
	return nil
}
