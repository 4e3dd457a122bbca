// Package synth turns configuration bindings into synthesized methods.
//
// A Synthesizer pairs the methods a type declares with the bindings of a
// methodgen.toml file and produces one artifact per type. Every method is
// synthesized independently with its own dispatch target, so one failing
// binding does not keep its siblings from being generated.
package synth

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/chazu/methodgen/artifact"
	"github.com/chazu/methodgen/bytecode"
	"github.com/chazu/methodgen/config"
	"github.com/chazu/methodgen/descriptor"
	"github.com/chazu/methodgen/failure"
	"github.com/chazu/methodgen/implementation"
	"github.com/chazu/methodgen/model"
)

var log = commonlog.GetLogger("methodgen.synth")

// Synthesizer generates method bodies for the types of a model.
type Synthesizer struct {
	config         *config.Config
	model          *model.Model
	prioritization []*descriptor.Type
}

// New creates a Synthesizer. A nil configuration means config.Default().
func New(cfg *config.Config, m *model.Model) (*Synthesizer, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if m == nil {
		return nil, fmt.Errorf("synth: no type model")
	}
	s := &Synthesizer{config: cfg, model: m}
	for _, name := range cfg.Dispatch.Prioritize {
		t, err := m.Resolve(name)
		if err != nil {
			return nil, fmt.Errorf("synth: dispatch.prioritize: %w", err)
		}
		if !t.IsInterface() {
			return nil, fmt.Errorf("synth: dispatch.prioritize: %s is not an interface", name)
		}
		s.prioritization = append(s.prioritization, t)
	}
	return s, nil
}

// job is one bound method.
type job struct {
	method  *descriptor.Method
	binding *config.Binding
}

// outcome is the result of a job.
type outcome struct {
	method  artifact.Method
	failure *artifact.Failure
	err     error
}

// Synthesize generates every bound method of the named type. The returned
// class holds the methods that succeeded; the error joins the failures of
// the others and is nil when all succeeded.
func (s *Synthesizer) Synthesize(typeName string) (*artifact.Class, error) {
	typ, err := s.model.Resolve(typeName)
	if err != nil {
		return nil, fmt.Errorf("synth: %w", err)
	}
	if typ.Sort != descriptor.SortReference {
		return nil, fmt.Errorf("synth: %s is not a class or interface", typeName)
	}

	requestID := uuid.NewString()
	log.Infof("[%s] synthesizing %s for version %s", requestID, typ.Name, s.config.Version)

	jobs, errs := s.jobs(typ)
	outcomes := make([]outcome, len(jobs))
	var wg sync.WaitGroup
	for i, j := range jobs {
		wg.Add(1)
		go func(i int, j job) {
			defer wg.Done()
			outcomes[i] = s.run(requestID, typ, j)
		}(i, j)
	}
	wg.Wait()

	class := &artifact.Class{
		Format:    artifact.FormatVersion,
		Name:      typ.Name,
		Version:   s.config.Version,
		RequestID: requestID,
	}
	for _, o := range outcomes {
		if o.err != nil {
			errs = append(errs, o.err)
			class.Failures = append(class.Failures, *o.failure)
			continue
		}
		class.Methods = append(class.Methods, o.method)
	}
	log.Infof("[%s] %s: %d methods, %d failures", requestID, typ.Name, len(class.Methods), len(errs))
	return class, errors.Join(errs...)
}

// jobs pairs the declared methods of typ with their bindings. The first
// matching binding wins. Bindings naming typ that match none of its methods
// are reported as errors.
func (s *Synthesizer) jobs(typ *descriptor.Type) ([]job, []error) {
	var jobs []job
	used := make([]bool, len(s.config.Bindings))
	for _, m := range typ.Methods {
		for i := range s.config.Bindings {
			b := &s.config.Bindings[i]
			if b.Matches(typ.Name, m.Name, m.Descriptor()) {
				jobs = append(jobs, job{method: m, binding: b})
				used[i] = true
				break
			}
		}
	}
	var errs []error
	for i, b := range s.config.Bindings {
		if b.Type == typ.Name && !used[i] {
			errs = append(errs, fmt.Errorf("synth: %s has no method %s%s", typ.Name, b.Method, b.Descriptor))
		}
	}
	return jobs, errs
}

// run synthesizes one method against a fresh target.
func (s *Synthesizer) run(requestID string, typ *descriptor.Type, j job) outcome {
	m := j.method
	fail := func(err error) outcome {
		log.Errorf("[%s] %s: %s", requestID, m, err)
		kind := "error"
		if k := failure.KindOf(err); k != 0 {
			kind = k.String()
		}
		return outcome{
			err: fmt.Errorf("synth: %s: %w", m, err),
			failure: &artifact.Failure{
				Method:     m.Name,
				Descriptor: m.Descriptor(),
				Kind:       kind,
				Detail:     err.Error(),
			},
		}
	}

	impl, err := s.implementation(j.binding, m)
	if err != nil {
		return fail(err)
	}
	target := implementation.NewTarget(typ, s.config.Version)
	appender, err := impl.Appender(target, m)
	if err != nil {
		return fail(err)
	}

	b := bytecode.NewBuilder()
	size := appender.Apply(b, target.Context)
	code, err := b.Finish()
	if err != nil {
		return fail(err)
	}
	log.Infof("[%s] %s: %d bytes, stack %d, locals %d", requestID, m, len(code.Bytes), size.Stack, size.Locals)
	return outcome{method: artifact.NewMethod(m.Name, m.Descriptor(), code, size.Stack, size.Locals)}
}
