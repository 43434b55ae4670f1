package profile

import (
	"reflect"
	"strings"
	"testing"

	"github.com/sheetbridge/sheetbridge/internal/tabular"
)

const sampleDefinitions = `{
  "profiles": [
    {
      "key": "contacts",
      "label": "Contacts",
      "sheetName": "Contacts",
      "columns": [
        {"header": "Full Name", "field": "name", "kind": "string"},
        {"header": "Age", "field": "age", "kind": "number", "nullable": true},
        {"header": "Tier", "field": "tier", "kind": "enum", "enum": ["gold", "silver"], "optional": true}
      ]
    },
    {
      "key": "products",
      "columns": [
        {"header": "SKU", "field": "sku", "kind": "text"},
        {"header": "Price", "field": "price", "kind": "numeric"}
      ]
    }
  ]
}`

func TestLoadBytes(t *testing.T) {
	reset()

	n, err := loadBytes([]byte(sampleDefinitions))
	if err != nil {
		t.Fatalf("loadBytes() error = %v", err)
	}
	if n != 2 {
		t.Errorf("loadBytes() = %d profiles, want 2", n)
	}

	p, ok := Get("contacts")
	if !ok {
		t.Fatal("Get(contacts) not found")
	}
	if p.Label != "Contacts" {
		t.Errorf("Label = %q, want %q", p.Label, "Contacts")
	}
	if p.Options.SheetName != "Contacts" {
		t.Errorf("Options.SheetName = %q, want %q", p.Options.SheetName, "Contacts")
	}
	if got, want := p.Headers(), []string{"Full Name", "Age", "Tier"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Headers() = %v, want %v", got, want)
	}

	spec, ok := p.Schema.Spec("tier")
	if !ok {
		t.Fatal("Schema.Spec(tier) not found")
	}
	if spec.Kind != tabular.KindEnum || !spec.Optional {
		t.Errorf("tier spec = %+v, want optional enum", spec)
	}

	// Kind aliases from the second profile.
	p2, _ := Get("products")
	if spec, _ := p2.Schema.Spec("sku"); spec.Kind != tabular.KindString {
		t.Errorf("sku kind = %v, want string", spec.Kind)
	}
	if spec, _ := p2.Schema.Spec("price"); spec.Kind != tabular.KindNumber {
		t.Errorf("price kind = %v, want number", spec.Kind)
	}

	// Label defaults to the key.
	if p2.Label != "products" {
		t.Errorf("Label = %q, want %q", p2.Label, "products")
	}
}

func TestLoadBytes_ExportMappingInvertsColumns(t *testing.T) {
	reset()
	if _, err := loadBytes([]byte(sampleDefinitions)); err != nil {
		t.Fatalf("loadBytes() error = %v", err)
	}

	p, _ := Get("contacts")
	if got := p.Options.HeaderMapping["name"]; got != "Full Name" {
		t.Errorf("HeaderMapping[name] = %q, want %q", got, "Full Name")
	}
}

func TestLoadBytes_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "invalid json",
			input:   `{`,
			wantErr: "parse profile definitions",
		},
		{
			name:    "no profiles",
			input:   `{"profiles": []}`,
			wantErr: "no profiles",
		},
		{
			name:    "unknown kind",
			input:   `{"profiles":[{"key":"x","columns":[{"header":"A","field":"a","kind":"blob"}]}]}`,
			wantErr: "unknown field kind",
		},
		{
			name:    "no columns",
			input:   `{"profiles":[{"key":"x"}]}`,
			wantErr: "declares no columns",
		},
		{
			name: "duplicate key",
			input: `{"profiles":[
				{"key":"x","columns":[{"header":"A","field":"a","kind":"string"}]},
				{"key":"x","columns":[{"header":"A","field":"a","kind":"string"}]}
			]}`,
			wantErr: "already registered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reset()
			_, err := loadBytes([]byte(tt.input))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("loadBytes() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestRegister_RejectsInvalid(t *testing.T) {
	reset()

	err := Register(&Profile{Key: ""})
	if err == nil || !strings.Contains(err.Error(), "no key") {
		t.Errorf("Register(no key) error = %v", err)
	}

	err = Register(&Profile{Key: "x", Schema: tabular.MustSchema(tabular.FieldSpec{Name: "a"})})
	if err == nil || !strings.Contains(err.Error(), "no column mappings") {
		t.Errorf("Register(no mappings) error = %v", err)
	}
}

func TestAll_SortedByKey(t *testing.T) {
	reset()
	if _, err := loadBytes([]byte(sampleDefinitions)); err != nil {
		t.Fatalf("loadBytes() error = %v", err)
	}

	all := All()
	if len(all) != 2 || all[0].Key != "contacts" || all[1].Key != "products" {
		keys := make([]string, len(all))
		for i, p := range all {
			keys[i] = p.Key
		}
		t.Errorf("All() keys = %v, want [contacts products]", keys)
	}
}
