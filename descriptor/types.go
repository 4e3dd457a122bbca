// Package descriptor models the types, fields and methods that synthesized
// code refers to. Descriptors are built once and then only read, so they may
// be shared between concurrent synthesis requests.
package descriptor

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Sort
// ---------------------------------------------------------------------------

// Sort is the primitive kind of a type. All non-primitive, non-array types
// share the Reference sort.
type Sort uint8

const (
	SortVoid Sort = iota
	SortBoolean
	SortByte
	SortChar
	SortShort
	SortInt
	SortLong
	SortFloat
	SortDouble
	SortReference
	SortArray
)

var sortDescriptors = [...]string{
	SortVoid:    "V",
	SortBoolean: "Z",
	SortByte:    "B",
	SortChar:    "C",
	SortShort:   "S",
	SortInt:     "I",
	SortLong:    "J",
	SortFloat:   "F",
	SortDouble:  "D",
}

// ---------------------------------------------------------------------------
// Type
// ---------------------------------------------------------------------------

// Type describes a primitive, array, class or interface type. Class and
// interface names use the binary form, e.g. "java.util.Map$Entry".
type Type struct {
	Name       string
	Sort       Sort
	Modifiers  Modifiers
	Super      *Type
	Interfaces []*Type
	Component  *Type // element type of an array
	Fields     []*Field
	Methods    []*Method
}

// NewClass creates a class type. A nil super defaults to java.lang.Object
// except for Object itself.
func NewClass(name string, mods Modifiers, super *Type, interfaces ...*Type) *Type {
	if super == nil && name != "java.lang.Object" {
		super = Object
	}
	return &Type{
		Name:       name,
		Sort:       SortReference,
		Modifiers:  mods &^ Interface,
		Super:      super,
		Interfaces: interfaces,
	}
}

// NewInterface creates an interface type extending the given interfaces.
func NewInterface(name string, mods Modifiers, interfaces ...*Type) *Type {
	return &Type{
		Name:       name,
		Sort:       SortReference,
		Modifiers:  mods | Interface | Abstract,
		Interfaces: interfaces,
	}
}

// ArrayOf returns the array type with the given component.
func ArrayOf(component *Type) *Type {
	return &Type{
		Name:       component.Name + "[]",
		Sort:       SortArray,
		Modifiers:  Public | Final | Abstract,
		Super:      Object,
		Interfaces: []*Type{Cloneable, Serializable},
		Component:  component,
	}
}

func (t *Type) String() string {
	return t.Name
}

// IsPrimitive reports whether t is a primitive type, including void.
func (t *Type) IsPrimitive() bool {
	return t.Sort < SortReference
}

// IsVoid reports whether t is void.
func (t *Type) IsVoid() bool {
	return t.Sort == SortVoid
}

// IsArray reports whether t is an array type.
func (t *Type) IsArray() bool {
	return t.Sort == SortArray
}

// IsInterface reports whether t is an interface.
func (t *Type) IsInterface() bool {
	return t.Sort == SortReference && t.Modifiers.Has(Interface)
}

// IsEnum reports whether t is an enumeration type.
func (t *Type) IsEnum() bool {
	return t.Sort == SortReference && (t.Modifiers.Has(Enum) || t.Super != nil && t.Super.Name == "java.lang.Enum")
}

// IsPrimitiveWrapper reports whether t boxes a primitive.
func (t *Type) IsPrimitiveWrapper() bool {
	_, ok := unboxed[t.Name]
	return ok
}

// Width returns the number of stack slots a value of t occupies: 0 for void,
// 2 for long and double, 1 otherwise.
func (t *Type) Width() int {
	switch t.Sort {
	case SortVoid:
		return 0
	case SortLong, SortDouble:
		return 2
	default:
		return 1
	}
}

// Descriptor returns the JVM descriptor, e.g. "I" or "Ljava/lang/String;".
func (t *Type) Descriptor() string {
	switch t.Sort {
	case SortArray:
		return "[" + t.Component.Descriptor()
	case SortReference:
		return "L" + t.InternalName() + ";"
	default:
		return sortDescriptors[t.Sort]
	}
}

// InternalName returns the slash-separated name used by type instructions.
// Arrays use their descriptor.
func (t *Type) InternalName() string {
	switch t.Sort {
	case SortArray:
		return t.Descriptor()
	case SortReference:
		return strings.ReplaceAll(t.Name, ".", "/")
	default:
		return t.Name
	}
}

// PackageName returns the package of a class type or "".
func (t *Type) PackageName() string {
	if t.Sort != SortReference {
		return ""
	}
	if i := strings.LastIndexByte(t.Name, '.'); i >= 0 {
		return t.Name[:i]
	}
	return ""
}

// SimpleName returns the name without package and enclosing types.
func (t *Type) SimpleName() string {
	if t.IsArray() {
		return t.Component.SimpleName() + "[]"
	}
	name := t.Name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '$'); i >= 0 && i < len(name)-1 {
		name = name[i+1:]
	}
	return name
}

// CanonicalName returns the source-level name, with nested type separators
// replaced by dots.
func (t *Type) CanonicalName() string {
	if t.IsArray() {
		return t.Component.CanonicalName() + "[]"
	}
	return strings.ReplaceAll(t.Name, "$", ".")
}

// Same reports whether t and other denote the same type.
func (t *Type) Same(other *Type) bool {
	if t == other {
		return true
	}
	if t == nil || other == nil {
		return false
	}
	return t.Descriptor() == other.Descriptor()
}

// IsAssignableTo reports whether a value of t can be stored in target
// without conversion.
func (t *Type) IsAssignableTo(target *Type) bool {
	if t.Same(target) {
		return true
	}
	if t.IsPrimitive() || target.IsPrimitive() {
		return false
	}
	if target.Same(Object) {
		return true
	}
	if t.IsArray() {
		if target.IsArray() {
			if t.Component.IsPrimitive() || target.Component.IsPrimitive() {
				return false
			}
			return t.Component.IsAssignableTo(target.Component)
		}
		return target.Same(Cloneable) || target.Same(Serializable)
	}
	if target.IsArray() {
		return false
	}
	return t.inherits(target)
}

func (t *Type) inherits(target *Type) bool {
	for _, iface := range t.Interfaces {
		if iface.Same(target) || iface.inherits(target) {
			return true
		}
	}
	if t.Super != nil {
		return t.Super.Same(target) || t.Super.inherits(target)
	}
	return false
}

// IsVisibleTo reports whether t can be accessed from code in viewer.
func (t *Type) IsVisibleTo(viewer *Type) bool {
	if t.IsArray() {
		return t.Component.IsVisibleTo(viewer)
	}
	if t.IsPrimitive() || t.Modifiers.IsPublic() || t.Same(viewer) {
		return true
	}
	if t.Modifiers.IsPrivate() {
		return false
	}
	return t.PackageName() == viewer.PackageName()
}

// ---------------------------------------------------------------------------
// Members
// ---------------------------------------------------------------------------

// AddField declares a field on t and returns it.
func (t *Type) AddField(name string, typ *Type, mods Modifiers) *Field {
	f := &Field{Name: name, Type: typ, Modifiers: mods, Declaring: t}
	t.Fields = append(t.Fields, f)
	return f
}

// AddMethod declares a method on t and returns it. Methods declared on an
// interface without a body should carry Abstract.
func (t *Type) AddMethod(name string, mods Modifiers, ret *Type, params ...*Type) *Method {
	m := &Method{Name: name, Modifiers: mods, Return: ret, Params: params, Declaring: t}
	t.Methods = append(t.Methods, m)
	return m
}

// Field returns the field declared on t with the given name.
func (t *Type) Field(name string) (*Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// DeclaredMethod returns the method declared on t that matches token.
func (t *Type) DeclaredMethod(token SignatureToken) (*Method, bool) {
	for _, m := range t.Methods {
		if m.Token() == token {
			return m, true
		}
	}
	return nil, false
}

// FindMethod looks up a method by name and descriptor on t and its
// superclasses.
func (t *Type) FindMethod(name, descriptor string) (*Method, bool) {
	token := SignatureToken{Name: name, Descriptor: descriptor}
	for c := t; c != nil; c = c.Super {
		if m, ok := c.DeclaredMethod(token); ok {
			return m, true
		}
	}
	return nil, false
}

// MustMethod is like FindMethod but panics when the method is missing. It is
// meant for well-known methods of built-in types.
func (t *Type) MustMethod(name, descriptor string) *Method {
	m, ok := t.FindMethod(name, descriptor)
	if !ok {
		panic(fmt.Sprintf("descriptor: %s has no method %s%s", t.Name, name, descriptor))
	}
	return m
}

// Field describes a field.
type Field struct {
	Name      string
	Type      *Type
	Modifiers Modifiers
	Declaring *Type
}

func (f *Field) String() string {
	return f.Declaring.Name + "." + f.Name
}

// IsStatic reports whether the field belongs to the type rather than an
// instance.
func (f *Field) IsStatic() bool {
	return f.Modifiers.IsStatic()
}

// IsVisibleTo reports whether code in viewer may access f.
func (f *Field) IsVisibleTo(viewer *Type) bool {
	return memberVisible(f.Modifiers, f.Declaring, viewer)
}

// Method describes a method or constructor.
type Method struct {
	Name      string
	Modifiers Modifiers
	Return    *Type
	Params    []*Type
	Declaring *Type
}

// SignatureToken identifies a method by name and erased parameter and
// return types, independent of its declaring type.
type SignatureToken struct {
	Name       string
	Descriptor string
}

func (s SignatureToken) String() string {
	return s.Name + s.Descriptor
}

// Descriptor returns the JVM method descriptor, e.g. "(ILjava/lang/Object;)Z".
func (m *Method) Descriptor() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, p := range m.Params {
		sb.WriteString(p.Descriptor())
	}
	sb.WriteByte(')')
	sb.WriteString(m.Return.Descriptor())
	return sb.String()
}

// Token returns the method's signature token.
func (m *Method) Token() SignatureToken {
	return SignatureToken{Name: m.Name, Descriptor: m.Descriptor()}
}

func (m *Method) String() string {
	return m.Declaring.Name + "." + m.Name + m.Descriptor()
}

func (m *Method) IsStatic() bool   { return m.Modifiers.IsStatic() }
func (m *Method) IsAbstract() bool { return m.Modifiers.IsAbstract() }
func (m *Method) IsPrivate() bool  { return m.Modifiers.IsPrivate() }

// IsConstructor reports whether m is an instance initializer.
func (m *Method) IsConstructor() bool {
	return m.Name == "<init>"
}

// IsDefault reports whether m is an invocable instance method declared on an
// interface.
func (m *Method) IsDefault() bool {
	return m.Declaring.IsInterface() && !m.IsAbstract() && !m.IsStatic() && !m.IsPrivate()
}

// IsSpecializable reports whether m can be the target of a super or default
// invocation.
func (m *Method) IsSpecializable() bool {
	return !m.IsAbstract() && !m.IsStatic() && !m.IsPrivate() && !m.IsConstructor()
}

// ParameterSize returns the stack slots taken by the parameters.
func (m *Method) ParameterSize() int {
	n := 0
	for _, p := range m.Params {
		n += p.Width()
	}
	return n
}

// StackSize returns the slots taken by the receiver (if any) and the
// parameters. It is the first local slot free for scratch use.
func (m *Method) StackSize() int {
	n := m.ParameterSize()
	if !m.IsStatic() {
		n++
	}
	return n
}

// ParameterOffset returns the local slot of parameter i.
func (m *Method) ParameterOffset(i int) int {
	n := 0
	if !m.IsStatic() {
		n++
	}
	for _, p := range m.Params[:i] {
		n += p.Width()
	}
	return n
}

// IsVisibleTo reports whether code in viewer may invoke m.
func (m *Method) IsVisibleTo(viewer *Type) bool {
	return memberVisible(m.Modifiers, m.Declaring, viewer)
}

func memberVisible(mods Modifiers, declaring, viewer *Type) bool {
	switch {
	case mods.IsPublic():
		return true
	case mods.IsPrivate():
		return declaring.Same(viewer)
	case mods.IsProtected():
		return viewer.IsAssignableTo(declaring) || declaring.PackageName() == viewer.PackageName()
	default:
		return declaring.PackageName() == viewer.PackageName()
	}
}
