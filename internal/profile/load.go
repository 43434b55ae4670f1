package profile

// load.go parses profile definition files. Definitions are plain JSON so
// deployments can describe their sheets without recompiling:
//
//	{
//	  "profiles": [
//	    {
//	      "key": "contacts",
//	      "label": "Contacts",
//	      "sheetName": "Contacts",
//	      "columns": [
//	        {"header": "Full Name", "field": "name", "kind": "string"},
//	        {"header": "Age", "field": "age", "kind": "number", "nullable": true},
//	        {"header": "Tier", "field": "tier", "kind": "enum", "enum": ["gold", "silver"]}
//	      ]
//	    }
//	  ]
//	}

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sheetbridge/sheetbridge/internal/tabular"
)

type definitionFile struct {
	Profiles []profileDef `json:"profiles"`
}

type profileDef struct {
	Key       string      `json:"key"`
	Label     string      `json:"label"`
	SheetName string      `json:"sheetName"`
	Columns   []columnDef `json:"columns"`
}

type columnDef struct {
	Header   string   `json:"header"`
	Field    string   `json:"field"`
	Kind     string   `json:"kind"`
	Optional bool     `json:"optional"`
	Nullable bool     `json:"nullable"`
	Enum     []string `json:"enum"`
}

// LoadFile reads a definition file and registers every profile in it.
// Returns the number of profiles registered.
func LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read profile definitions: %w", err)
	}
	return loadBytes(data)
}

func loadBytes(data []byte) (int, error) {
	var file definitionFile
	if err := json.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("parse profile definitions: %w", err)
	}
	if len(file.Profiles) == 0 {
		return 0, fmt.Errorf("profile definitions declare no profiles")
	}

	for _, def := range file.Profiles {
		p, err := buildProfile(def)
		if err != nil {
			return 0, err
		}
		if err := Register(p); err != nil {
			return 0, err
		}
	}
	return len(file.Profiles), nil
}

// buildProfile converts one JSON definition into a Profile, translating kind
// names and collecting the field specs into a schema.
func buildProfile(def profileDef) (*Profile, error) {
	if len(def.Columns) == 0 {
		return nil, fmt.Errorf("profile %q declares no columns", def.Key)
	}

	specs := make([]tabular.FieldSpec, len(def.Columns))
	mappings := make([]tabular.ColumnMapping, len(def.Columns))
	for i, col := range def.Columns {
		kind, err := tabular.ParseKind(col.Kind)
		if err != nil {
			return nil, fmt.Errorf("profile %q, column %q: %w", def.Key, col.Header, err)
		}
		specs[i] = tabular.FieldSpec{
			Name:       col.Field,
			Kind:       kind,
			Optional:   col.Optional,
			Nullable:   col.Nullable,
			EnumValues: col.Enum,
		}
		mappings[i] = tabular.ColumnMapping{Header: col.Header, Field: col.Field}
	}

	schema, err := tabular.NewSchema(specs...)
	if err != nil {
		return nil, fmt.Errorf("profile %q: %w", def.Key, err)
	}

	label := def.Label
	if label == "" {
		label = def.Key
	}

	// Exports rename internal fields back to the external labels, so a
	// parsed sheet round-trips through generate with its original headers.
	headerMapping := make(map[string]string, len(mappings))
	for _, m := range mappings {
		headerMapping[m.Field] = m.Header
	}

	return &Profile{
		Key:      def.Key,
		Label:    label,
		Mappings: mappings,
		Schema:   schema,
		Options: tabular.WriteOptions{
			SheetName:     def.SheetName,
			HeaderMapping: headerMapping,
		},
	}, nil
}
