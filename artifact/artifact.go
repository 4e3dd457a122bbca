// Package artifact defines the serialized output of a synthesis run.
package artifact

import (
	"crypto/sha256"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/methodgen/bytecode"
)

// FormatVersion is written into every artifact and checked on decode.
const FormatVersion = 1

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("artifact: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Class holds the synthesized methods of one type.
type Class struct {
	Format    int              `cbor:"1,keyasint"`
	Name      string           `cbor:"2,keyasint"`
	Version   bytecode.Version `cbor:"3,keyasint"`
	RequestID string           `cbor:"4,keyasint,omitempty"`
	Methods   []Method         `cbor:"5,keyasint,omitempty"`
	Failures  []Failure        `cbor:"6,keyasint,omitempty"`
}

// Method is one synthesized method body.
type Method struct {
	Name       string                `cbor:"1,keyasint"`
	Descriptor string                `cbor:"2,keyasint"`
	Code       []byte                `cbor:"3,keyasint"`
	Constants  []bytecode.Constant   `cbor:"4,keyasint,omitempty"`
	Frames     []bytecode.FrameEntry `cbor:"5,keyasint,omitempty"`
	MaxStack   int                   `cbor:"6,keyasint"`
	MaxLocals  int                   `cbor:"7,keyasint"`
	Hash       [32]byte              `cbor:"8,keyasint"`
}

// Failure records a binding that could not be synthesized.
type Failure struct {
	Method     string `cbor:"1,keyasint"`
	Descriptor string `cbor:"2,keyasint"`
	Kind       string `cbor:"3,keyasint"`
	Detail     string `cbor:"4,keyasint"`
}

// NewMethod packages finished code with its size.
func NewMethod(name, descriptor string, code *bytecode.Code, maxStack, maxLocals int) Method {
	return Method{
		Name:       name,
		Descriptor: descriptor,
		Code:       code.Bytes,
		Constants:  code.Constants,
		Frames:     code.Frames,
		MaxStack:   maxStack,
		MaxLocals:  maxLocals,
		Hash:       HashCode(code),
	}
}

// HashCode returns the content hash of code. Instructions and the constants
// they refer to take part; frames do not.
func HashCode(code *bytecode.Code) [32]byte {
	h := sha256.New()
	h.Write(code.Bytes)
	for _, c := range code.Constants {
		fmt.Fprintf(h, "\x00%s", c)
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// Body returns the method body in the form the bytecode package reads.
func (m *Method) Body() *bytecode.Code {
	return &bytecode.Code{Bytes: m.Code, Constants: m.Constants, Frames: m.Frames}
}

// Verify checks that the stored hash matches the method body.
func (m *Method) Verify() error {
	if computed := HashCode(m.Body()); computed != m.Hash {
		return fmt.Errorf("artifact: hash mismatch for %s%s: declared %x, computed %x", m.Name, m.Descriptor, m.Hash, computed)
	}
	return nil
}

// Marshal serializes a Class to CBOR bytes.
func Marshal(c *Class) ([]byte, error) {
	if c.Format == 0 {
		cc := *c
		cc.Format = FormatVersion
		c = &cc
	}
	return cborEncMode.Marshal(c)
}

// Unmarshal deserializes a Class from CBOR bytes and verifies its methods.
func Unmarshal(data []byte) (*Class, error) {
	var c Class
	if err := cbor.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("artifact: unmarshal class: %w", err)
	}
	if c.Format != FormatVersion {
		return nil, fmt.Errorf("artifact: unsupported format %d", c.Format)
	}
	for i := range c.Methods {
		if err := c.Methods[i].Verify(); err != nil {
			return nil, err
		}
	}
	return &c, nil
}
