package pipeline

import (
	"github.com/aura-lang/aurac/internal/ir"
	"github.com/aura-lang/aurac/internal/race"
)

// collectRaceAccesses bridges the SSA IR's concurrency hints into the
// teacher's thread/lock-shaped race.Detector. A ComputeKernel instruction is
// the only place a function body forks concurrent execution (the `~>` flow
// operator), so each one is treated as spawning a fresh thread id; every
// strand it closes over becomes a cross-thread access on that strand's bound
// name, the same granularity race.MemoryAccess already models.
func collectRaceAccesses(m *ir.Module) []race.MemoryAccess {
	var accesses []race.MemoryAccess
	for _, fn := range m.FuncOrder {
		f := m.Functions[fn]
		accesses = append(accesses, collectFnRaceAccesses(f)...)
	}
	return accesses
}

func collectFnRaceAccesses(f *ir.Function) []race.MemoryAccess {
	var accesses []race.MemoryAccess
	names := map[ir.ValueId]string{}
	nextThread := uint32(1)

	for _, b := range f.Blocks {
		for _, inst := range b.Instructions {
			switch k := inst.Kind.(type) {
			case ir.BindStrand:
				if inst.Dest != nil {
					names[*inst.Dest] = k.Name
				}
				if local, ok := k.Value.(ir.Local); ok {
					if name, ok := names[ir.ValueId(local)]; ok {
						accesses = append(accesses, race.MemoryAccess{
							VarName:  name,
							Access:   race.Read,
							ThreadID: 0,
							Line:     uint32(inst.Span.StartLine),
							Col:      uint32(inst.Span.StartCol),
						})
					}
				}
				accesses = append(accesses, race.MemoryAccess{
					VarName:  k.Name,
					Access:   race.Write,
					ThreadID: 0,
					Line:     uint32(inst.Span.StartLine),
					Col:      uint32(inst.Span.StartCol),
				})
			case ir.ComputeKernel:
				threadID := nextThread
				nextThread++
				for _, arg := range k.Args {
					name, ok := names[arg]
					if !ok {
						continue
					}
					accesses = append(accesses, race.MemoryAccess{
						VarName:  name,
						Access:   race.Read,
						ThreadID: threadID,
						Line:     uint32(inst.Span.StartLine),
						Col:      uint32(inst.Span.StartCol),
					})
				}
			}
		}
	}
	return accesses
}
