// Package config handles methodgen.toml synthesis configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/chazu/methodgen/bytecode"
)

// FileName is the configuration file looked up by Load and FindAndLoad.
const FileName = "methodgen.toml"

// Config represents a methodgen.toml file.
type Config struct {
	Output   Output    `toml:"output"`
	Hash     Hash      `toml:"hash"`
	Equals   Equals    `toml:"equals"`
	ToString ToString  `toml:"tostring"`
	Dispatch Dispatch  `toml:"dispatch"`
	Bindings []Binding `toml:"bind"`

	// Dir is the directory containing the methodgen.toml file (set at load time).
	Dir string `toml:"-"`
	// Version is the parsed Output.Version (set at load time).
	Version bytecode.Version `toml:"-"`
}

// Output configures what is generated and where it goes.
type Output struct {
	Version  string `toml:"version"`
	Model    string `toml:"model"`
	Artifact string `toml:"artifact"`
}

// Hash configures generated hashCode methods.
type Hash struct {
	// Offset is "fixed", "super", "type" or "runtime-type".
	Offset      string   `toml:"offset"`
	Value       int32    `toml:"value"`
	Multiplier  int32    `toml:"multiplier"`
	Ignore      []string `toml:"ignore"`
	NonNullable []string `toml:"non-nullable"`
	Identity    []string `toml:"identity"`
}

// Equals configures generated equals methods.
type Equals struct {
	Super       bool     `toml:"super"`
	Subclass    bool     `toml:"subclass"`
	Ignore      []string `toml:"ignore"`
	NonNullable []string `toml:"non-nullable"`
	// Order lists field groups compared first: "primitives", "enums",
	// "strings" or "wrappers".
	Order []string `toml:"order"`
}

// ToString configures generated toString methods.
type ToString struct {
	// Prefix is "qualified", "canonical", "simple" or "fixed".
	Prefix    string   `toml:"prefix"`
	Fixed     string   `toml:"fixed"`
	Start     string   `toml:"start"`
	End       string   `toml:"end"`
	Separator string   `toml:"separator"`
	Definer   string   `toml:"definer"`
	Ignore    []string `toml:"ignore"`
}

// Dispatch configures default method resolution.
type Dispatch struct {
	Prioritize []string `toml:"prioritize"`
}

// Binding assigns an implementation to a method of a type in the model.
type Binding struct {
	// Type restricts the binding to one type; empty matches every type.
	Type       string `toml:"type"`
	Method     string `toml:"method"`
	Descriptor string `toml:"descriptor"`
	// Impl is one of the Impl* constants.
	Impl string `toml:"impl"`

	Field    string      `toml:"field"`
	Value    interface{} `toml:"value"`
	Argument int         `toml:"argument"`
	Typing   string      `toml:"typing"`
	Then     *Binding    `toml:"then"`
}

// Implementation names accepted by Binding.Impl.
const (
	ImplHashCode = "hashcode"
	ImplEquals   = "equals"
	ImplToString = "tostring"
	ImplAccessor = "accessor"
	ImplFixed    = "fixed"
	ImplSelf     = "self"
	ImplArgument = "argument"
	ImplSuper    = "super"
	ImplDefault  = "default"
	ImplForward  = "forward"
)

var (
	impls       = []string{ImplHashCode, ImplEquals, ImplToString, ImplAccessor, ImplFixed, ImplSelf, ImplArgument, ImplSuper, ImplDefault, ImplForward}
	hashOffsets = []string{"fixed", "super", "type", "runtime-type"}
	prefixes    = []string{"qualified", "canonical", "simple", "fixed"}
	fieldOrders = []string{"primitives", "enums", "strings", "wrappers"}
	typings     = []string{"", "static", "dynamic"}
)

// Default returns the configuration used when no file is present.
func Default() *Config {
	c := &Config{Version: bytecode.DefaultVersion}
	c.applyDefaults(toml.MetaData{})
	return c
}

// Load parses a methodgen.toml file from the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return c, nil
}

// Parse decodes and validates configuration text. Unknown keys are errors.
func Parse(text string) (*Config, error) {
	var c Config
	md, err := toml.Decode(text, &c)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %s", undecoded[0])
	}
	c.applyDefaults(md)
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// FindAndLoad walks up from startDir to find a methodgen.toml file,
// then loads and returns the configuration. Returns nil if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

func (c *Config) applyDefaults(md toml.MetaData) {
	if c.Output.Version == "" {
		c.Output.Version = fmt.Sprint(bytecode.DefaultVersion.Release())
	}
	if c.Hash.Offset == "" {
		c.Hash.Offset = "fixed"
	}
	if !md.IsDefined("hash", "value") {
		c.Hash.Value = 17
	}
	if !md.IsDefined("hash", "multiplier") {
		c.Hash.Multiplier = 31
	}
	if c.ToString.Prefix == "" {
		c.ToString.Prefix = "simple"
	}
	// empty tokens are legal, so only absent keys get defaults
	tokens := []struct {
		key   string
		value *string
		def   string
	}{
		{"start", &c.ToString.Start, "{"},
		{"end", &c.ToString.End, "}"},
		{"separator", &c.ToString.Separator, ", "},
		{"definer", &c.ToString.Definer, "="},
	}
	for _, tok := range tokens {
		if !md.IsDefined("tostring", tok.key) {
			*tok.value = tok.def
		}
	}
}

func (c *Config) validate() error {
	v, err := bytecode.ParseVersion(c.Output.Version)
	if err != nil {
		return fmt.Errorf("output.version: %w", err)
	}
	c.Version = v
	if err := oneOf("hash.offset", c.Hash.Offset, hashOffsets); err != nil {
		return err
	}
	if c.Hash.Multiplier == 0 {
		return fmt.Errorf("hash.multiplier must not be zero")
	}
	if err := oneOf("tostring.prefix", c.ToString.Prefix, prefixes); err != nil {
		return err
	}
	for _, o := range c.Equals.Order {
		if err := oneOf("equals.order", o, fieldOrders); err != nil {
			return err
		}
	}
	for i := range c.Bindings {
		if err := c.Bindings[i].validate(fmt.Sprintf("bind[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

func (b *Binding) validate(where string) error {
	if b.Method == "" {
		return fmt.Errorf("%s: missing method", where)
	}
	if err := oneOf(where+".impl", b.Impl, impls); err != nil {
		return err
	}
	if err := oneOf(where+".typing", b.Typing, typings); err != nil {
		return err
	}
	if b.Impl == ImplForward && b.Field == "" {
		return fmt.Errorf("%s: forward binding needs a field", where)
	}
	if b.Then == nil {
		return nil
	}
	if b.Impl != ImplSuper && b.Impl != ImplDefault && b.Impl != ImplForward {
		return fmt.Errorf("%s: %s cannot be followed by another implementation", where, b.Impl)
	}
	// the continuation shares the method of its parent
	b.Then.Type, b.Then.Method, b.Then.Descriptor = b.Type, b.Method, b.Descriptor
	return b.Then.validate(where + ".then")
}

func oneOf(key, value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s: unknown value %q (want one of %s)", key, value, strings.Join(allowed, ", "))
}

// Matches reports whether the binding applies to the method name and
// descriptor of the named type.
func (b *Binding) Matches(typeName, method, descriptor string) bool {
	if b.Type != "" && b.Type != typeName {
		return false
	}
	if b.Method != method {
		return false
	}
	return b.Descriptor == "" || b.Descriptor == descriptor
}

// ModelPath returns the absolute path of the configured type model, or "".
func (c *Config) ModelPath() string {
	if c.Output.Model == "" {
		return ""
	}
	if filepath.IsAbs(c.Output.Model) {
		return c.Output.Model
	}
	return filepath.Join(c.Dir, c.Output.Model)
}

// ArtifactPath returns the absolute path of the artifact output, or "".
func (c *Config) ArtifactPath() string {
	if c.Output.Artifact == "" {
		return ""
	}
	if filepath.IsAbs(c.Output.Artifact) {
		return c.Output.Artifact
	}
	return filepath.Join(c.Dir, c.Output.Artifact)
}

// Write encodes c as TOML to path.
func (c *Config) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", path, err)
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return fmt.Errorf("cannot encode %s: %w", path, err)
	}
	return f.Close()
}
