// Package model loads the type descriptions methods are synthesized for.
//
// A model file lists types with their fields and method signatures. It is
// read from TOML or YAML depending on the file extension and linked into
// descriptor types; primitive and well-known library types such as
// java.lang.String are always available by name.
package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/chazu/methodgen/descriptor"
)

// File is the decoded form of a model file.
type File struct {
	Types []TypeSpec `toml:"type" yaml:"types"`
}

// TypeSpec declares a class, interface or enumeration.
type TypeSpec struct {
	Name       string       `toml:"name" yaml:"name"`
	Kind       string       `toml:"kind" yaml:"kind"` // class (default), interface or enum
	Modifiers  []string     `toml:"modifiers" yaml:"modifiers"`
	Super      string       `toml:"super" yaml:"super"`
	Interfaces []string     `toml:"interfaces" yaml:"interfaces"`
	Fields     []FieldSpec  `toml:"field" yaml:"fields"`
	Methods    []MethodSpec `toml:"method" yaml:"methods"`
}

// FieldSpec declares a field.
type FieldSpec struct {
	Name      string   `toml:"name" yaml:"name"`
	Type      string   `toml:"type" yaml:"type"`
	Modifiers []string `toml:"modifiers" yaml:"modifiers"`
}

// MethodSpec declares a method signature.
type MethodSpec struct {
	Name      string   `toml:"name" yaml:"name"`
	Returns   string   `toml:"returns" yaml:"returns"`
	Params    []string `toml:"params" yaml:"params"`
	Modifiers []string `toml:"modifiers" yaml:"modifiers"`
}

// Model is a set of linked types.
type Model struct {
	types map[string]*descriptor.Type
	order []*descriptor.Type
}

// Load reads a model file. Files ending in .yaml or .yml are YAML, all others
// TOML.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	var f *File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f, err = ParseYAML(data)
	default:
		f, err = ParseTOML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m, err := Link(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseTOML decodes a TOML model.
func ParseTOML(data []byte) (*File, error) {
	var f File
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %s", undecoded[0])
	}
	return &f, nil
}

// ParseYAML decodes a YAML model.
func ParseYAML(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return &f, nil
}

// Link resolves the type references of f. Types may refer to each other in
// any order.
func Link(f *File) (*Model, error) {
	m := &Model{types: make(map[string]*descriptor.Type)}

	for _, spec := range f.Types {
		if spec.Name == "" {
			return nil, fmt.Errorf("type without a name")
		}
		if _, ok := m.lookup(spec.Name); ok {
			return nil, fmt.Errorf("type %s declared twice", spec.Name)
		}
		mods, err := modifiers(spec.Modifiers)
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", spec.Name, err)
		}
		var t *descriptor.Type
		switch spec.Kind {
		case "", "class":
			t = descriptor.NewClass(spec.Name, mods, nil)
		case "interface":
			t = descriptor.NewInterface(spec.Name, mods)
		case "enum":
			t = descriptor.NewClass(spec.Name, mods|descriptor.Enum, descriptor.EnumBase)
		default:
			return nil, fmt.Errorf("type %s: unknown kind %q", spec.Name, spec.Kind)
		}
		m.types[spec.Name] = t
		m.order = append(m.order, t)
	}

	for i, spec := range f.Types {
		if err := m.link(m.order[i], spec); err != nil {
			return nil, fmt.Errorf("type %s: %w", spec.Name, err)
		}
	}
	for _, t := range m.order {
		if err := checkHierarchy(t); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Model) link(t *descriptor.Type, spec TypeSpec) error {
	if spec.Super != "" {
		if t.IsInterface() {
			return fmt.Errorf("interface cannot extend class %s", spec.Super)
		}
		super, err := m.Resolve(spec.Super)
		if err != nil {
			return err
		}
		if super.Sort != descriptor.SortReference || super.IsInterface() {
			return fmt.Errorf("superclass %s is not a class", spec.Super)
		}
		if super.Modifiers.IsFinal() {
			return fmt.Errorf("cannot extend final class %s", spec.Super)
		}
		t.Super = super
	}
	for _, name := range spec.Interfaces {
		iface, err := m.Resolve(name)
		if err != nil {
			return err
		}
		if !iface.IsInterface() {
			return fmt.Errorf("%s is not an interface", name)
		}
		t.Interfaces = append(t.Interfaces, iface)
	}

	for _, fs := range spec.Fields {
		typ, err := m.Resolve(fs.Type)
		if err != nil {
			return fmt.Errorf("field %s: %w", fs.Name, err)
		}
		if typ.IsVoid() {
			return fmt.Errorf("field %s: void is not a field type", fs.Name)
		}
		mods, err := modifiers(fs.Modifiers)
		if err != nil {
			return fmt.Errorf("field %s: %w", fs.Name, err)
		}
		if _, dup := t.Field(fs.Name); dup {
			return fmt.Errorf("field %s declared twice", fs.Name)
		}
		t.AddField(fs.Name, typ, mods)
	}

	for _, ms := range spec.Methods {
		ret := descriptor.Void
		if ms.Returns != "" {
			var err error
			if ret, err = m.Resolve(ms.Returns); err != nil {
				return fmt.Errorf("method %s: %w", ms.Name, err)
			}
		}
		params := make([]*descriptor.Type, 0, len(ms.Params))
		for _, p := range ms.Params {
			typ, err := m.Resolve(p)
			if err != nil {
				return fmt.Errorf("method %s: %w", ms.Name, err)
			}
			if typ.IsVoid() {
				return fmt.Errorf("method %s: void parameter", ms.Name)
			}
			params = append(params, typ)
		}
		mods, err := modifiers(ms.Modifiers)
		if err != nil {
			return fmt.Errorf("method %s: %w", ms.Name, err)
		}
		if t.IsInterface() && !mods.Has(descriptor.Static) && !mods.Has(descriptor.Private) && !ms.hasBody() {
			mods |= descriptor.Abstract
		}
		method := t.AddMethod(ms.Name, mods, ret, params...)
		if declaredTwice(t, method) {
			return fmt.Errorf("method %s declared twice", method.Token())
		}
	}
	return nil
}

// hasBody reports whether an interface method was declared default.
func (ms MethodSpec) hasBody() bool {
	for _, w := range ms.Modifiers {
		if strings.EqualFold(strings.TrimSpace(w), "default") {
			return true
		}
	}
	return false
}

// modifiers parses modifier keywords. "default" marks interface methods with
// a body and sets no flag.
func modifiers(words []string) (descriptor.Modifiers, error) {
	mods, unknown := descriptor.ParseModifiers(words)
	for _, w := range unknown {
		if w != "default" {
			return 0, fmt.Errorf("unknown modifier %q", w)
		}
	}
	return mods, nil
}

func declaredTwice(t *descriptor.Type, method *descriptor.Method) bool {
	for _, other := range t.Methods {
		if other != method && other.Token() == method.Token() {
			return true
		}
	}
	return false
}

// checkHierarchy rejects classes that inherit from themselves.
func checkHierarchy(t *descriptor.Type) error {
	seen := map[*descriptor.Type]bool{}
	for c := t; c != nil; c = c.Super {
		if seen[c] {
			return fmt.Errorf("type %s: cyclic superclass chain", t.Name)
		}
		seen[c] = true
	}
	var walk func(i *descriptor.Type, path map[*descriptor.Type]bool) error
	walk = func(i *descriptor.Type, path map[*descriptor.Type]bool) error {
		if path[i] {
			return fmt.Errorf("type %s: cyclic interface hierarchy", t.Name)
		}
		path[i] = true
		defer delete(path, i)
		for _, super := range i.Interfaces {
			if err := walk(super, path); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(t, map[*descriptor.Type]bool{})
}

func (m *Model) lookup(name string) (*descriptor.Type, bool) {
	if t, ok := m.types[name]; ok {
		return t, true
	}
	return descriptor.Lookup(name)
}

// Resolve returns the type with the given name. Names are primitive names,
// fully qualified class names or either followed by one or more "[]".
func (m *Model) Resolve(name string) (*descriptor.Type, error) {
	name = strings.TrimSpace(name)
	if strings.HasSuffix(name, "[]") {
		component, err := m.Resolve(strings.TrimSuffix(name, "[]"))
		if err != nil {
			return nil, err
		}
		if component.IsVoid() {
			return nil, fmt.Errorf("void is not an array component")
		}
		return descriptor.ArrayOf(component), nil
	}
	if t, ok := m.lookup(name); ok {
		return t, nil
	}
	return nil, fmt.Errorf("unknown type %s", name)
}

// Types returns the declared types in file order.
func (m *Model) Types() []*descriptor.Type {
	return m.order
}

// Method returns the method of the named type with the given name, and
// descriptor when one is given. A name matching several overloads without a
// descriptor is an error.
func (m *Model) Method(typeName, name, desc string) (*descriptor.Method, error) {
	t, ok := m.types[typeName]
	if !ok {
		return nil, fmt.Errorf("unknown type %s", typeName)
	}
	var found *descriptor.Method
	for _, method := range t.Methods {
		if method.Name != name || desc != "" && method.Descriptor() != desc {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%s.%s is overloaded; give a descriptor", typeName, name)
		}
		found = method
	}
	if found == nil {
		return nil, fmt.Errorf("%s has no method %s%s", typeName, name, desc)
	}
	return found, nil
}
