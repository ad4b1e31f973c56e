package llvmgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	airir "github.com/aura-lang/aurac/internal/ir"
)

// straightLineModule builds `fn main() -> u32 { x = 1; y = 2; z = x + y; ret z }`.
func straightLineModule() *airir.Module {
	m := airir.NewModule()
	fn := &airir.Function{Name: "main", Return: airir.U32, Entry: 0}
	x, y, z := airir.ValueId(0), airir.ValueId(1), airir.ValueId(2)
	entry := &airir.BasicBlock{
		ID: 0,
		Instructions: []*airir.Instruction{
			{Dest: &x, Kind: airir.BindStrand{Name: "x", Value: airir.ConstU32(1)}},
			{Dest: &y, Kind: airir.BindStrand{Name: "y", Value: airir.ConstU32(2)}},
			{Dest: &z, Kind: airir.Binary{Op: airir.OpAdd, Left: x, Right: y}},
		},
		Term: airir.Return{Value: &z},
	}
	fn.Blocks = []*airir.BasicBlock{entry}
	fn.SkipValues(2)
	m.AddFunction(fn)
	return m
}

func TestEmitProducesDefineAndReturn(t *testing.T) {
	mod, err := Emit(straightLineModule())
	require.NoError(t, err)
	text := mod.String()
	assert.Contains(t, text, "define")
	assert.Contains(t, text, "ret i32")
}

func TestEmitSynthesizesCMain(t *testing.T) {
	mod, err := Emit(straightLineModule())
	require.NoError(t, err)
	text := mod.String()
	assert.True(t, strings.Contains(text, "@main") && strings.Contains(text, "aura_main"))
}

func TestEmitDeclaresExterns(t *testing.T) {
	m := airir.NewModule()
	m.AddExtern(&airir.ExternSig{Name: "aura_io_println", Params: []airir.Type{airir.String}, Return: airir.Unit})
	fn := &airir.Function{Name: "main", Return: airir.Unit, Entry: 0}
	fn.Blocks = []*airir.BasicBlock{{ID: 0, Term: airir.Return{}}}
	m.AddFunction(fn)

	mod, err := Emit(m)
	require.NoError(t, err)
	assert.Contains(t, mod.String(), "declare")
}
