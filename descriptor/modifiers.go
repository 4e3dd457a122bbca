package descriptor

import "strings"

// Modifiers holds access flags using the class-file bit values.
type Modifiers uint16

const (
	Public       Modifiers = 0x0001
	Private      Modifiers = 0x0002
	Protected    Modifiers = 0x0004
	Static       Modifiers = 0x0008
	Final        Modifiers = 0x0010
	Synchronized Modifiers = 0x0020
	Volatile     Modifiers = 0x0040
	Transient    Modifiers = 0x0080
	Native       Modifiers = 0x0100
	Interface    Modifiers = 0x0200
	Abstract     Modifiers = 0x0400
	Synthetic    Modifiers = 0x1000
	Annotation   Modifiers = 0x2000
	Enum         Modifiers = 0x4000
)

// PackagePrivate is the absence of any visibility modifier.
const PackagePrivate Modifiers = 0

var modifierNames = []struct {
	bit  Modifiers
	name string
}{
	{Public, "public"},
	{Private, "private"},
	{Protected, "protected"},
	{Abstract, "abstract"},
	{Static, "static"},
	{Final, "final"},
	{Transient, "transient"},
	{Volatile, "volatile"},
	{Synchronized, "synchronized"},
	{Native, "native"},
	{Interface, "interface"},
	{Annotation, "annotation"},
	{Enum, "enum"},
	{Synthetic, "synthetic"},
}

// Has reports whether all bits of m are set.
func (mods Modifiers) Has(m Modifiers) bool {
	return mods&m == m
}

func (mods Modifiers) IsPublic() bool    { return mods.Has(Public) }
func (mods Modifiers) IsPrivate() bool   { return mods.Has(Private) }
func (mods Modifiers) IsProtected() bool { return mods.Has(Protected) }
func (mods Modifiers) IsStatic() bool    { return mods.Has(Static) }
func (mods Modifiers) IsFinal() bool     { return mods.Has(Final) }
func (mods Modifiers) IsAbstract() bool  { return mods.Has(Abstract) }

// IsPackagePrivate reports whether no visibility modifier is set.
func (mods Modifiers) IsPackagePrivate() bool {
	return mods&(Public|Private|Protected) == 0
}

// String renders the modifiers in source order, e.g. "public static final".
func (mods Modifiers) String() string {
	var parts []string
	for _, m := range modifierNames {
		if mods.Has(m.bit) {
			parts = append(parts, m.name)
		}
	}
	return strings.Join(parts, " ")
}

// ParseModifiers parses modifier keywords. Unknown keywords are returned as
// the second result.
func ParseModifiers(words []string) (Modifiers, []string) {
	var mods Modifiers
	var unknown []string
outer:
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		for _, m := range modifierNames {
			if m.name == w {
				mods |= m.bit
				continue outer
			}
		}
		unknown = append(unknown, w)
	}
	return mods, unknown
}
