// Package dispatch resolves the targets of super and default method calls
// made from a synthesized method.
//
// A Target is created per synthesis request for the type being
// instrumented. It answers which method a non-virtual call for a signature
// reaches when made through the superclass or through one of the type's
// directly implemented interfaces. Answers are cached for the lifetime of
// the Target.
package dispatch

import (
	"github.com/tliron/commonlog"

	"github.com/chazu/methodgen/bytecode"
	"github.com/chazu/methodgen/descriptor"
	"github.com/chazu/methodgen/failure"
	"github.com/chazu/methodgen/stack"
)

var log = commonlog.GetLogger("methodgen.dispatch")

// Candidate is a resolved special invocation: Method called through Target,
// which is the instrumented type's direct superclass or one of its direct
// interfaces. A Candidate is itself an operation. The zero Candidate is
// invalid.
type Candidate struct {
	Target *descriptor.Type
	Method *descriptor.Method
}

func (c Candidate) invocation() stack.Operation {
	if c.Method == nil || c.Target == nil {
		return stack.Illegal{}
	}
	return stack.InvokeSpecial(c.Method, c.Target)
}

// IsValid reports whether the candidate can be invoked.
func (c Candidate) IsValid() bool {
	return c.invocation().IsValid()
}

// Apply emits the special invocation.
func (c Candidate) Apply(sink bytecode.Sink, ctx *stack.Context) stack.Size {
	return c.invocation().Apply(sink, ctx)
}

func (c Candidate) String() string {
	if c.Method == nil {
		return "<none>"
	}
	return c.Target.Name + "." + c.Method.Token().String()
}

// Prioritization lists interfaces whose default methods win over those of
// other interfaces, in decreasing priority.
type Prioritization []*descriptor.Type

type cacheKey struct {
	token descriptor.SignatureToken
	owner string // empty for super lookups
}

type resolution struct {
	candidate Candidate
	err       error
}

// Target resolves special invocations on behalf of one instrumented type.
// It is not safe for concurrent use.
type Target struct {
	Instrumented *descriptor.Type
	Version      bytecode.Version

	cache map[cacheKey]resolution
}

// NewTarget creates a resolution context for instrumented, emitting code for
// the given class-file version.
func NewTarget(instrumented *descriptor.Type, version bytecode.Version) *Target {
	return &Target{
		Instrumented: instrumented,
		Version:      version,
		cache:        make(map[cacheKey]resolution),
	}
}

func (t *Target) cached(key cacheKey, resolve func() (Candidate, error)) (Candidate, error) {
	if r, ok := t.cache[key]; ok {
		return r.candidate, r.err
	}
	c, err := resolve()
	t.cache[key] = resolution{c, err}
	return c, err
}

// ---------------------------------------------------------------------------
// Super methods
// ---------------------------------------------------------------------------

// ResolveSuper finds the method a super call for sig reaches: the nearest
// non-private, non-static declaration up the superclass chain. Constructors
// are only looked up on the direct superclass. An abstract nearest
// declaration has no candidate.
func (t *Target) ResolveSuper(sig descriptor.SignatureToken) (Candidate, error) {
	return t.cached(cacheKey{token: sig}, func() (Candidate, error) {
		c, err := t.resolveSuper(sig)
		if err != nil {
			log.Debugf("super %s on %s: %s", sig, t.Instrumented.Name, err)
		} else {
			log.Debugf("super %s on %s: %s", sig, t.Instrumented.Name, c)
		}
		return c, err
	})
}

func (t *Target) resolveSuper(sig descriptor.SignatureToken) (Candidate, error) {
	super := t.Instrumented.Super
	if t.Instrumented.IsInterface() || super == nil {
		return Candidate{}, failure.NoCandidate(nil, "%s has no superclass to invoke %s on", t.Instrumented.Name, sig)
	}
	for c := super; c != nil; c = c.Super {
		m, ok := c.DeclaredMethod(sig)
		if !ok || m.IsPrivate() || m.IsStatic() {
			if sig.Name == "<init>" {
				break
			}
			continue
		}
		switch {
		case m.IsAbstract():
			return Candidate{}, failure.NoCandidate(nil, "super method %s is abstract", m)
		case !m.IsVisibleTo(t.Instrumented):
			return Candidate{}, failure.NoCandidate(nil, "super method %s is not visible to %s", m, t.Instrumented.Name)
		}
		return Candidate{Target: super, Method: m}, nil
	}
	return Candidate{}, failure.NoCandidate(nil, "no super method %s above %s", sig, t.Instrumented.Name)
}

// ---------------------------------------------------------------------------
// Default methods
// ---------------------------------------------------------------------------

func (t *Target) requireDefaults(sig descriptor.SignatureToken) error {
	if t.Version.SupportsDefaultMethods() {
		return nil
	}
	return failure.NoCandidate(nil, "default method %s requires class-file version %s, have %s",
		sig, bytecode.V8, t.Version)
}

func (t *Target) isDirectInterface(iface *descriptor.Type) bool {
	for _, i := range t.Instrumented.Interfaces {
		if i.Same(iface) {
			return true
		}
	}
	return false
}

// ResolveDefaultOn finds the default method a call for sig reaches through
// iface, which must be directly implemented by the instrumented type. The
// candidate is the unique most specific non-abstract declaration among
// iface and the interfaces it extends.
func (t *Target) ResolveDefaultOn(sig descriptor.SignatureToken, iface *descriptor.Type) (Candidate, error) {
	if err := t.requireDefaults(sig); err != nil {
		return Candidate{}, err
	}
	return t.cached(cacheKey{token: sig, owner: iface.Descriptor()}, func() (Candidate, error) {
		if !t.isDirectInterface(iface) {
			return Candidate{}, failure.NoCandidate(nil, "%s is not a direct interface of %s", iface.Name, t.Instrumented.Name)
		}
		specific := mostSpecific(declarations(iface, sig))
		if len(specific) == 0 {
			return Candidate{}, failure.NoCandidate(nil, "%s declares no method %s", iface.Name, sig)
		}
		var invocable []*descriptor.Method
		for _, m := range specific {
			if m.IsDefault() {
				invocable = append(invocable, m)
			}
		}
		switch {
		case len(invocable) == 0:
			return Candidate{}, failure.NoCandidate(nil, "%s is not a default method", specific[0])
		case len(invocable) > 1:
			conflicts := make([]*descriptor.Type, len(invocable))
			for i, m := range invocable {
				conflicts[i] = m.Declaring
			}
			return Candidate{}, failure.Ambiguous(nil, conflicts...)
		}
		return Candidate{Target: iface, Method: invocable[0]}, nil
	})
}

// declarations collects the declarations of sig on iface and the interfaces
// it extends, each declaring type visited once.
func declarations(iface *descriptor.Type, sig descriptor.SignatureToken) []*descriptor.Method {
	var found []*descriptor.Method
	seen := make(map[string]bool)
	var visit func(*descriptor.Type)
	visit = func(t *descriptor.Type) {
		if seen[t.Name] {
			return
		}
		seen[t.Name] = true
		if m, ok := t.DeclaredMethod(sig); ok && !m.IsStatic() && !m.IsPrivate() {
			found = append(found, m)
		}
		for _, super := range t.Interfaces {
			visit(super)
		}
	}
	visit(iface)
	return found
}

// mostSpecific drops every declaration overridden by a declaration on a
// subinterface.
func mostSpecific(methods []*descriptor.Method) []*descriptor.Method {
	var kept []*descriptor.Method
	for _, m := range methods {
		overridden := false
		for _, other := range methods {
			if other != m && !other.Declaring.Same(m.Declaring) && other.Declaring.IsAssignableTo(m.Declaring) {
				overridden = true
				break
			}
		}
		if !overridden {
			kept = append(kept, m)
		}
	}
	return kept
}

// ResolveDefault finds the default method a call for sig reaches through
// the instrumented type's interfaces. Interfaces in prioritization that the
// type implements directly are tried first in order and the first valid
// candidate wins. Otherwise the remaining direct interfaces must offer
// exactly one candidate.
func (t *Target) ResolveDefault(sig descriptor.SignatureToken, prioritization Prioritization) (Candidate, error) {
	if err := t.requireDefaults(sig); err != nil {
		return Candidate{}, err
	}
	prioritized := t.filter(prioritization)
	var ambiguous error
	for _, iface := range prioritized {
		c, err := t.ResolveDefaultOn(sig, iface)
		if err == nil {
			log.Debugf("default %s on %s: prioritized %s", sig, t.Instrumented.Name, c)
			return c, nil
		}
		if failure.KindOf(err) == failure.AmbiguousDispatchCandidate {
			ambiguous = err
		}
	}

	var best Candidate
	for _, iface := range t.Instrumented.Interfaces {
		if contains(prioritized, iface) {
			continue
		}
		c, err := t.ResolveDefaultOn(sig, iface)
		if err != nil {
			if failure.KindOf(err) == failure.AmbiguousDispatchCandidate {
				ambiguous = err
			}
			continue
		}
		if best.Method != nil {
			log.Debugf("default %s on %s: ambiguous between %s and %s", sig, t.Instrumented.Name, best, c)
			return Candidate{}, failure.Ambiguous(nil, best.Method.Declaring, c.Method.Declaring)
		}
		best = c
	}
	if best.Method != nil {
		log.Debugf("default %s on %s: %s", sig, t.Instrumented.Name, best)
		return best, nil
	}
	if ambiguous != nil {
		return Candidate{}, ambiguous
	}
	return Candidate{}, failure.NoCandidate(nil, "no interface of %s offers a default method %s", t.Instrumented.Name, sig)
}

// filter keeps the prioritized interfaces the instrumented type implements
// directly, in caller order and without repetition.
func (t *Target) filter(prioritization Prioritization) []*descriptor.Type {
	var kept []*descriptor.Type
	for _, iface := range prioritization {
		if iface == nil || contains(kept, iface) {
			continue
		}
		if !t.isDirectInterface(iface) {
			log.Debugf("ignoring prioritized %s: not implemented directly by %s", iface.Name, t.Instrumented.Name)
			continue
		}
		kept = append(kept, iface)
	}
	return kept
}

func contains(types []*descriptor.Type, t *descriptor.Type) bool {
	for _, c := range types {
		if c.Same(t) {
			return true
		}
	}
	return false
}

// ResolveDominant returns the super candidate for sig if there is one and
// otherwise the unique default candidate across all direct interfaces.
func (t *Target) ResolveDominant(sig descriptor.SignatureToken) (Candidate, error) {
	c, err := t.ResolveSuper(sig)
	if err == nil {
		return c, nil
	}
	d, derr := t.ResolveDefault(sig, nil)
	switch {
	case derr == nil:
		return d, nil
	case failure.KindOf(derr) == failure.AmbiguousDispatchCandidate:
		return Candidate{}, derr
	}
	return Candidate{}, err
}
