package ownership

// CapabilityKind names what resource a capability binding guards.
type CapabilityKind int

const (
	CapSocket CapabilityKind = iota
	CapTensor
	CapRegion
	CapConcurrent
)

func (k CapabilityKind) String() string {
	switch k {
	case CapSocket:
		return "socket"
	case CapTensor:
		return "tensor"
	case CapRegion:
		return "region"
	case CapConcurrent:
		return "concurrent"
	default:
		return "unknown"
	}
}

// CapabilityState is a point in the capability lifecycle: Fresh -> InUse ->
// Consumed is the canonical forward path, InUse <-> Suspended is a
// reversible hold, Consumed is absorbing except for a transition to Error,
// and Error -> Fresh is the one recovery edge.
type CapabilityState int

const (
	CapFresh CapabilityState = iota
	CapInUse
	CapSuspended
	CapConsumed
	CapError
)

func (s CapabilityState) String() string {
	switch s {
	case CapFresh:
		return "fresh"
	case CapInUse:
		return "in-use"
	case CapSuspended:
		return "suspended"
	case CapConsumed:
		return "consumed"
	case CapError:
		return "error"
	default:
		return "unknown"
	}
}

func (s CapabilityState) CanUse() bool {
	return s == CapFresh || s == CapInUse
}

func (s CapabilityState) CanShare() bool {
	return s == CapFresh || s == CapInUse
}

// CapViolationKind classifies a capability-machine breach.
type CapViolationKind int

const (
	CapUseAfterConsumption CapViolationKind = iota
	CapInvalidTransition
	CapConcurrentUseWithoutSync
	CapResourceLeak
	CapImproperSharing
)

// CapViolation is a single capability violation, carrying enough of the
// offending transition to build a diagnostic message from it.
type CapViolation struct {
	Kind          CapViolationKind
	VarName       string
	From, To      CapabilityState
	ConsumedLine  uint32
	ConsumedCol   uint32
	FirstLine     uint32
	FirstCol      uint32
	SecondLine    uint32
	SecondCol     uint32
}

func (v CapViolation) Error() string {
	switch v.Kind {
	case CapUseAfterConsumption:
		return "capability '" + v.VarName + "' used after consumption"
	case CapInvalidTransition:
		return "invalid state transition for capability '" + v.VarName + "': " + v.From.String() + " -> " + v.To.String()
	case CapConcurrentUseWithoutSync:
		return "capability '" + v.VarName + "' used concurrently without synchronization"
	case CapResourceLeak:
		return "resource leak: capability '" + v.VarName + "' not consumed before scope end"
	case CapImproperSharing:
		return "capability '" + v.VarName + "' shared without proper synchronization annotation"
	default:
		return "capability violation on '" + v.VarName + "'"
	}
}

// CapabilityBinding is one tracked capability and its transition history.
type CapabilityBinding struct {
	Name             string
	Kind             CapabilityKind
	State            CapabilityState
	DefinedLine      uint32
	DefinedCol       uint32
	LastChangeLine   uint32
	LastChangeCol    uint32
	History          []CapabilityState
	Shareable        bool
	AccessingThreads map[uint32]bool
}

func newCapabilityBinding(name string, kind CapabilityKind, line, col uint32) *CapabilityBinding {
	return &CapabilityBinding{
		Name:             name,
		Kind:             kind,
		State:            CapFresh,
		DefinedLine:      line,
		DefinedCol:       col,
		LastChangeLine:   line,
		LastChangeCol:    col,
		History:          []CapabilityState{CapFresh},
		AccessingThreads: map[uint32]bool{},
	}
}

func (b *CapabilityBinding) transition(to CapabilityState, line, col uint32) *CapViolation {
	legal := false
	switch {
	case b.State == CapFresh && to == CapInUse:
		legal = true
	case b.State == CapFresh && to == CapConsumed:
		legal = true
	case b.State == CapInUse && to == CapSuspended:
		legal = true
	case b.State == CapSuspended && to == CapInUse:
		legal = true
	case b.State == CapInUse && to == CapConsumed:
		legal = true
	case to == CapError:
		legal = true
	case b.State == CapError && to == CapFresh:
		legal = true
	}
	if !legal {
		return &CapViolation{Kind: CapInvalidTransition, VarName: b.Name, From: b.State, To: to}
	}
	b.State = to
	b.LastChangeLine, b.LastChangeCol = line, col
	b.History = append(b.History, to)
	return nil
}

// CapabilityContext tracks capability bindings for one cell, including a
// scope stack so define/consume tracking can be restored on block exit and a
// notion of the currently executing abstract thread for concurrency checks.
type CapabilityContext struct {
	currentLine, currentCol uint32
	bindings                map[string]*CapabilityBinding
	scopeStack              []map[string]*CapabilityBinding
	currentThread           uint32
}

// NewCapabilityContext returns an empty CapabilityContext.
func NewCapabilityContext() *CapabilityContext {
	return &CapabilityContext{bindings: map[string]*CapabilityBinding{}}
}

func (c *CapabilityContext) SetLocation(line, col uint32) {
	c.currentLine, c.currentCol = line, col
}

func (c *CapabilityContext) SetThread(id uint32) {
	c.currentThread = id
}

// Define registers a new capability; redefining an existing name is treated
// as improper sharing rather than silently shadowing it, since a capability
// name collision almost always means the same resource handle reused.
func (c *CapabilityContext) Define(name string, kind CapabilityKind) *CapViolation {
	if _, exists := c.bindings[name]; exists {
		return &CapViolation{Kind: CapImproperSharing, VarName: name, FirstLine: c.currentLine, FirstCol: c.currentCol}
	}
	c.bindings[name] = newCapabilityBinding(name, kind, c.currentLine, c.currentCol)
	return nil
}

// Use transitions a capability to InUse and records the accessing thread.
func (c *CapabilityContext) Use(name string) *CapViolation {
	b, ok := c.bindings[name]
	if !ok {
		return &CapViolation{Kind: CapUseAfterConsumption, VarName: name, ConsumedLine: c.currentLine, ConsumedCol: c.currentCol}
	}
	if !b.State.CanUse() {
		if b.State == CapConsumed {
			return &CapViolation{Kind: CapUseAfterConsumption, VarName: name, ConsumedLine: b.LastChangeLine, ConsumedCol: b.LastChangeCol}
		}
		return &CapViolation{Kind: CapInvalidTransition, VarName: name, From: b.State, To: CapInUse}
	}
	b.AccessingThreads[c.currentThread] = true
	if b.State != CapInUse {
		if v := b.transition(CapInUse, c.currentLine, c.currentCol); v != nil {
			return v
		}
	}
	return nil
}

// Consume transitions a capability to Consumed.
func (c *CapabilityContext) Consume(name string) *CapViolation {
	b, ok := c.bindings[name]
	if !ok {
		return &CapViolation{Kind: CapUseAfterConsumption, VarName: name, ConsumedLine: c.currentLine, ConsumedCol: c.currentCol}
	}
	b.AccessingThreads[c.currentThread] = true
	return b.transition(CapConsumed, c.currentLine, c.currentCol)
}

// Share marks a capability as explicitly shareable across threads.
func (c *CapabilityContext) Share(name string) *CapViolation {
	b, ok := c.bindings[name]
	if !ok {
		return &CapViolation{Kind: CapImproperSharing, VarName: name, FirstLine: c.currentLine, FirstCol: c.currentCol}
	}
	if !b.State.CanShare() {
		return &CapViolation{Kind: CapImproperSharing, VarName: name, FirstLine: c.currentLine, FirstCol: c.currentCol}
	}
	b.Shareable = true
	b.AccessingThreads[c.currentThread] = true
	return nil
}

// EnterScope pushes a copy of the current bindings for restoration on exit.
func (c *CapabilityContext) EnterScope() {
	snap := make(map[string]*CapabilityBinding, len(c.bindings))
	for k, v := range c.bindings {
		cp := *v
		snap[k] = &cp
	}
	c.scopeStack = append(c.scopeStack, snap)
}

// ExitScope restores the prior scope's bindings and reports a ResourceLeak
// violation for every binding that scope leaves un-Consumed.
func (c *CapabilityContext) ExitScope() []CapViolation {
	var violations []CapViolation
	for name, b := range c.bindings {
		if b.State != CapConsumed {
			violations = append(violations, CapViolation{Kind: CapResourceLeak, VarName: name, From: b.State})
		}
	}
	if n := len(c.scopeStack); n > 0 {
		c.bindings = c.scopeStack[n-1]
		c.scopeStack = c.scopeStack[:n-1]
	}
	return violations
}

// ValidateAll scans every live binding for concurrent access without the
// shareable flag; resource-leak checking is deferred to ExitScope.
func (c *CapabilityContext) ValidateAll() []CapViolation {
	var out []CapViolation
	for name, b := range c.bindings {
		if len(b.AccessingThreads) > 1 && !b.Shareable {
			out = append(out, CapViolation{Kind: CapConcurrentUseWithoutSync, VarName: name, FirstLine: b.DefinedLine, FirstCol: b.DefinedCol, SecondLine: b.LastChangeLine, SecondCol: b.LastChangeCol})
		}
	}
	return out
}

func (c *CapabilityContext) State(name string) (CapabilityState, bool) {
	b, ok := c.bindings[name]
	if !ok {
		return 0, false
	}
	return b.State, true
}
