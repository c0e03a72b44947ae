package manifest

import (
	"github.com/Shredder121/byte-buddy/agent"
	"github.com/Shredder121/byte-buddy/describe"
	"github.com/Shredder121/byte-buddy/dynamic"
	"github.com/Shredder121/byte-buddy/matcher"
	"github.com/Shredder121/byte-buddy/pkg/classfile"
	"github.com/Shredder121/byte-buddy/pool"
)

// Builder materializes an agent builder from the manifest's agent
// settings and rules. Extra class file sources, such as an opened
// store, are consulted when resolving type hierarchies.
func (m *Manifest) Builder(extra ...pool.Source) *agent.Builder {
	b := agent.Default().
		WithBinaryLocator(agent.DefaultLocator{Extra: extra})

	if !m.Agent.SelfInitializes() {
		b = b.DisableSelfInitialization()
	}
	if m.Agent.Retransformation {
		b = b.AllowRetransformation()
	}
	if m.Agent.NativePrefix != "" {
		b = b.WithNativeMethodPrefix(m.Agent.NativePrefix)
	}
	for _, pattern := range m.Agent.Ignore {
		b = b.Ignore(agent.NameGlob(pattern))
	}

	for _, r := range m.Rules {
		b = b.Type(agent.NameGlob(r.Match)).Transform(ruleTransformer(r))
	}
	return b
}

// OpenStore opens the configured class file store. Returns nil without
// error when the manifest configures none.
func (m *Manifest) OpenStore() (*pool.Store, error) {
	p := m.StorePath()
	if p == "" {
		return nil, nil
	}
	return pool.OpenStore(p)
}

func ruleTransformer(r Rule) agent.Transformer {
	method := r.Method
	if method == "" {
		method = "*"
	}
	impl := ruleImplementation(r)
	return agent.TransformerFn(func(b *dynamic.Builder, _ describe.TypeDescription) *dynamic.Builder {
		return b.Method(matcher.NameGlob[describe.MethodDescription](method)).Intercept(impl)
	})
}

func ruleImplementation(r Rule) dynamic.Implementation {
	switch r.Kind {
	case "super":
		return dynamic.SuperMethodCall()
	case "value":
		return dynamic.FixedValue(classfile.StringValue(r.Value))
	default:
		return dynamic.Stub()
	}
}
