// Package binding maps a media descriptor onto the declarations of the import
// or export statement that referenced it. It works on a neutral statement
// model: hosts translate their own syntax trees in and out.
package binding

import (
	"encoding/json"
	"fmt"

	"github.com/fedragon/go-mediaref/internal/models"
)

type StatementKind string

const (
	Import StatementKind = "import"
	Export StatementKind = "export"
)

type SpecifierKind string

const (
	// Default is `import a from "x"` or, in an export, `export a from "x"`.
	Default SpecifierKind = "default"
	// Named is `{b}` or `{b as c}`, in imports and re-exports alike.
	Named SpecifierKind = "named"
	// Namespace is `* as ns`; it never binds descriptor fields.
	Namespace SpecifierKind = "namespace"
)

const defaultName = "default"

type Specifier struct {
	Kind SpecifierKind `json:"kind"`
	// Imported is the name looked up in the descriptor. It is ignored for
	// Default and Namespace specifiers.
	Imported string `json:"imported,omitempty"`
	// Local is the declared name: the local binding of an import or the
	// exported name of an export.
	Local string `json:"local"`
}

// Name returns the source-side name of a named specifier, defaulting to Local
// when the specifier is not aliased.
func (s Specifier) Name() string {
	if s.Imported != "" {
		return s.Imported
	}
	return s.Local
}

type Statement struct {
	Kind       StatementKind `json:"kind"`
	Source     string        `json:"source"`
	Specifiers []Specifier   `json:"specifiers"`
}

// Binding is one output declaration. Exactly one of Object and Scalar is used:
// Object holds the fields of a whole-descriptor binding.
type Binding struct {
	Name   string
	Export bool
	Object []models.Field
	Scalar interface{}
}

func (b Binding) IsObject() bool {
	return b.Object != nil
}

func (b Binding) MarshalJSON() ([]byte, error) {
	var value json.RawMessage
	var err error
	if b.IsObject() {
		value, err = models.MarshalFields(b.Object)
	} else {
		value, err = json.Marshal(b.Scalar)
	}
	if err != nil {
		return nil, err
	}

	return json.Marshal(struct {
		Name   string          `json:"name"`
		Export bool            `json:"export"`
		Value  json.RawMessage `json:"value"`
	}{b.Name, b.Export, value})
}

func (b Binding) String() string {
	keyword := "const"
	if b.Export {
		keyword = "export const"
	}
	if b.IsObject() {
		return fmt.Sprintf("%s %s = {%d fields}", keyword, b.Name, len(b.Object))
	}
	return fmt.Sprintf("%s %s = %v", keyword, b.Name, b.Scalar)
}

// Object lists the descriptor fields a default binding carries: absent fields
// and falsy values (empty strings, zero) are both left out.
func Object(desc models.Descriptor) []models.Field {
	fields := make([]models.Field, 0, 9)
	for _, f := range desc.Fields() {
		if models.Truthy(f.Value) {
			fields = append(fields, f)
		}
	}
	return fields
}

// Map produces the declarations replacing stmt. An empty result means the
// statement stays as written.
func Map(stmt Statement, desc models.Descriptor) []Binding {
	if stmt.Kind == Export {
		return mapExport(stmt.Specifiers, desc)
	}
	return mapImport(stmt.Specifiers, desc)
}

func mapImport(specifiers []Specifier, desc models.Descriptor) []Binding {
	var bindings []Binding

	for _, s := range specifiers {
		if s.Kind == Default {
			bindings = append(bindings, Binding{Name: s.Local, Object: Object(desc)})
			break
		}
	}

	for _, s := range specifiers {
		if s.Kind != Named {
			continue
		}
		if value, ok := desc.Lookup(s.Name()); ok {
			bindings = append(bindings, Binding{Name: s.Local, Scalar: value})
		}
	}

	return bindings
}

// mapExport gives the default export precedence: when the statement exports
// the default (`export a from` or `export {default as a} from`), that single
// declaration is the whole result and named specifiers are not considered.
func mapExport(specifiers []Specifier, desc models.Descriptor) []Binding {
	if s, ok := defaultExport(specifiers); ok {
		return []Binding{{Name: s.Local, Export: true, Object: Object(desc)}}
	}

	var bindings []Binding
	for _, s := range specifiers {
		if s.Kind != Named {
			continue
		}
		if value, ok := desc.Lookup(s.Name()); ok {
			bindings = append(bindings, Binding{Name: s.Local, Export: true, Scalar: value})
		}
	}

	return bindings
}

func defaultExport(specifiers []Specifier) (Specifier, bool) {
	for _, s := range specifiers {
		if s.Kind == Default {
			return s, true
		}
	}
	for _, s := range specifiers {
		if s.Kind == Named && s.Name() == defaultName {
			return s, true
		}
	}
	return Specifier{}, false
}

// Result is the outcome of rewriting one statement.
type Result struct {
	// Skipped is set when the statement does not reference a configured media
	// extension; no descriptor was computed.
	Skipped    bool               `json:"skipped"`
	Descriptor *models.Descriptor `json:"descriptor,omitempty"`
	Bindings   []Binding          `json:"bindings"`
}

// Replaced reports whether the host must swap the statement for Bindings.
func (r Result) Replaced() bool {
	return !r.Skipped && len(r.Bindings) > 0
}

// Rewrite classifies stmt and, when its source carries a media extension,
// describes the source and maps the descriptor onto the specifiers. Statements
// without a source are skipped.
func Rewrite(stmt Statement, matches func(source string) bool, describe func(source string) (models.Descriptor, error)) (Result, error) {
	if stmt.Source == "" || !matches(stmt.Source) {
		return Result{Skipped: true}, nil
	}

	desc, err := describe(stmt.Source)
	if err != nil {
		return Result{}, err
	}

	return Result{Descriptor: &desc, Bindings: Map(stmt, desc)}, nil
}
