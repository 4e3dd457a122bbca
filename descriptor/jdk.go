package descriptor

// ---------------------------------------------------------------------------
// Primitive types
// ---------------------------------------------------------------------------

var (
	Void    = &Type{Name: "void", Sort: SortVoid, Modifiers: Public | Final | Abstract}
	Boolean = &Type{Name: "boolean", Sort: SortBoolean, Modifiers: Public | Final | Abstract}
	Byte    = &Type{Name: "byte", Sort: SortByte, Modifiers: Public | Final | Abstract}
	Char    = &Type{Name: "char", Sort: SortChar, Modifiers: Public | Final | Abstract}
	Short   = &Type{Name: "short", Sort: SortShort, Modifiers: Public | Final | Abstract}
	Int     = &Type{Name: "int", Sort: SortInt, Modifiers: Public | Final | Abstract}
	Long    = &Type{Name: "long", Sort: SortLong, Modifiers: Public | Final | Abstract}
	Float   = &Type{Name: "float", Sort: SortFloat, Modifiers: Public | Final | Abstract}
	Double  = &Type{Name: "double", Sort: SortDouble, Modifiers: Public | Final | Abstract}
)

// ---------------------------------------------------------------------------
// Well-known library types
// ---------------------------------------------------------------------------

var (
	Object        = &Type{Name: "java.lang.Object", Sort: SortReference, Modifiers: Public}
	Cloneable     = NewInterface("java.lang.Cloneable", Public)
	Serializable  = NewInterface("java.io.Serializable", Public)
	Comparable    = NewInterface("java.lang.Comparable", Public)
	CharSequence  = NewInterface("java.lang.CharSequence", Public)
	String        = NewClass("java.lang.String", Public|Final, Object, Serializable, Comparable, CharSequence)
	StringBuilder = NewClass("java.lang.StringBuilder", Public|Final, Object, Serializable, CharSequence)
	Class         = NewClass("java.lang.Class", Public|Final, Object, Serializable)
	EnumBase      = NewClass("java.lang.Enum", Public|Abstract, Object, Comparable, Serializable)
	Number        = NewClass("java.lang.Number", Public|Abstract, Object, Serializable)
	System        = NewClass("java.lang.System", Public|Final, Object)
	Arrays        = NewClass("java.util.Arrays", Public, Object)

	BooleanWrapper   = NewClass("java.lang.Boolean", Public|Final, Object, Serializable, Comparable)
	CharacterWrapper = NewClass("java.lang.Character", Public|Final, Object, Serializable, Comparable)
	ByteWrapper      = NewClass("java.lang.Byte", Public|Final, Number, Comparable)
	ShortWrapper     = NewClass("java.lang.Short", Public|Final, Number, Comparable)
	IntegerWrapper   = NewClass("java.lang.Integer", Public|Final, Number, Comparable)
	LongWrapper      = NewClass("java.lang.Long", Public|Final, Number, Comparable)
	FloatWrapper     = NewClass("java.lang.Float", Public|Final, Number, Comparable)
	DoubleWrapper    = NewClass("java.lang.Double", Public|Final, Number, Comparable)
)

// ObjectArray is java.lang.Object[].
var ObjectArray = ArrayOf(Object)

// wrapper names to primitive types
var unboxed = map[string]*Type{
	"java.lang.Boolean":   Boolean,
	"java.lang.Character": Char,
	"java.lang.Byte":      Byte,
	"java.lang.Short":     Short,
	"java.lang.Integer":   Int,
	"java.lang.Long":      Long,
	"java.lang.Float":     Float,
	"java.lang.Double":    Double,
}

var boxed = map[Sort]*Type{
	SortBoolean: BooleanWrapper,
	SortChar:    CharacterWrapper,
	SortByte:    ByteWrapper,
	SortShort:   ShortWrapper,
	SortInt:     IntegerWrapper,
	SortLong:    LongWrapper,
	SortFloat:   FloatWrapper,
	SortDouble:  DoubleWrapper,
}

// Box returns the wrapper type of a primitive.
func Box(t *Type) (*Type, bool) {
	if !t.IsPrimitive() || t.IsVoid() {
		return nil, false
	}
	return boxed[t.Sort], true
}

// Unbox returns the primitive type of a wrapper.
func Unbox(t *Type) (*Type, bool) {
	p, ok := unboxed[t.Name]
	return p, ok
}

var builtins map[string]*Type

// Lookup returns a primitive or well-known library type by name.
func Lookup(name string) (*Type, bool) {
	t, ok := builtins[name]
	return t, ok
}

// Builtins returns all primitive and well-known library types.
func Builtins() []*Type {
	return []*Type{
		Void, Boolean, Byte, Char, Short, Int, Long, Float, Double,
		Object, Cloneable, Serializable, Comparable, CharSequence, String, StringBuilder,
		Class, EnumBase, Number, System, Arrays,
		BooleanWrapper, CharacterWrapper, ByteWrapper, ShortWrapper,
		IntegerWrapper, LongWrapper, FloatWrapper, DoubleWrapper,
	}
}

func init() {
	const (
		pub       = Public
		pubStatic = Public | Static
		pubFinal  = Public | Final
		pubNative = Public | Native
	)

	Object.AddMethod("<init>", pub, Void)
	Object.AddMethod("hashCode", pubNative, Int)
	Object.AddMethod("equals", pub, Boolean, Object)
	Object.AddMethod("toString", pub, String)
	Object.AddMethod("getClass", pubFinal|Native, Class)
	Object.AddMethod("clone", Protected|Native, Object)

	CharSequence.AddMethod("length", pub|Abstract, Int)
	CharSequence.AddMethod("charAt", pub|Abstract, Char, Int)
	CharSequence.AddMethod("toString", pub|Abstract, String)

	Comparable.AddMethod("compareTo", pub|Abstract, Int, Object)

	String.AddMethod("<init>", pub, Void)
	String.AddMethod("hashCode", pub, Int)
	String.AddMethod("equals", pub, Boolean, Object)
	String.AddMethod("toString", pub, String)
	String.AddMethod("length", pub, Int)
	String.AddMethod("charAt", pub, Char, Int)
	String.AddMethod("compareTo", pub, Int, Object)

	StringBuilder.AddMethod("<init>", pub, Void)
	StringBuilder.AddMethod("<init>", pub, Void, String)
	for _, p := range []*Type{Boolean, Char, Int, Long, Float, Double, String, CharSequence, Object} {
		StringBuilder.AddMethod("append", pub, StringBuilder, p)
	}
	StringBuilder.AddMethod("toString", pub, String)
	StringBuilder.AddMethod("length", pub, Int)
	StringBuilder.AddMethod("charAt", pub, Char, Int)

	Class.AddMethod("getName", pub, String)
	Class.AddMethod("getCanonicalName", pub, String)
	Class.AddMethod("getSimpleName", pub, String)

	EnumBase.AddMethod("<init>", Protected, Void, String, Int)
	EnumBase.AddMethod("name", pubFinal, String)
	EnumBase.AddMethod("ordinal", pubFinal, Int)
	EnumBase.AddMethod("compareTo", pubFinal, Int, Object)

	Number.AddMethod("<init>", pub, Void)

	System.AddMethod("identityHashCode", pubStatic|Native, Int, Object)

	FloatWrapper.AddMethod("floatToIntBits", pubStatic, Int, Float)
	FloatWrapper.AddMethod("compare", pubStatic, Int, Float, Float)
	DoubleWrapper.AddMethod("doubleToLongBits", pubStatic, Long, Double)
	DoubleWrapper.AddMethod("compare", pubStatic, Int, Double, Double)

	for _, p := range []*Type{Boolean, Char, Byte, Short, Int, Long, Float, Double} {
		w := boxed[p.Sort]
		w.AddMethod("valueOf", pubStatic, w, p)
		w.AddMethod(p.Name+"Value", pub, p)
		w.AddMethod("hashCode", pub, Int)
		w.AddMethod("equals", pub, Boolean, Object)
		w.AddMethod("toString", pub, String)
		w.AddMethod("compareTo", pub, Int, Object)
	}

	for _, p := range []*Type{Boolean, Byte, Short, Char, Int, Long, Float, Double, Object} {
		arr := ArrayOf(p)
		Arrays.AddMethod("hashCode", pubStatic, Int, arr)
		Arrays.AddMethod("equals", pubStatic, Boolean, arr, arr)
		Arrays.AddMethod("toString", pubStatic, String, arr)
	}
	Arrays.AddMethod("deepHashCode", pubStatic, Int, ObjectArray)
	Arrays.AddMethod("deepEquals", pubStatic, Boolean, ObjectArray, ObjectArray)
	Arrays.AddMethod("deepToString", pubStatic, String, ObjectArray)

	builtins = make(map[string]*Type)
	for _, t := range Builtins() {
		builtins[t.Name] = t
	}
}
