package lower

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/aura-lang/aurac/internal/ast"
	"github.com/aura-lang/aurac/internal/ir"
)

// TestLoweringIsDeterministic bundles several full ast.Program fixtures into
// one txtar archive and checks that lowering the same program twice produces
// byte-identical dumps, diffed with go-cmp the way sunholo-data-ailang's
// parser golden tests compare strings.
func TestLoweringIsDeterministic(t *testing.T) {
	data, err := os.ReadFile("testdata/golden.txtar")
	require.NoError(t, err)

	archive := txtar.Parse(data)
	require.NotEmpty(t, archive.Files)

	for _, f := range archive.Files {
		f := f
		t.Run(f.Name, func(t *testing.T) {
			var prog ast.Program
			require.NoError(t, json.Unmarshal(f.Data, &prog))

			first, err := Program(&prog)
			require.NoError(t, err)
			second, err := Program(&prog)
			require.NoError(t, err)

			if diff := cmp.Diff(ir.Dump(first), ir.Dump(second)); diff != "" {
				t.Errorf("lowering %s is not deterministic (-first +second):\n%s", f.Name, diff)
			}
		})
	}
}

func TestLoweringStraightLineProducesAddition(t *testing.T) {
	data, err := os.ReadFile("testdata/golden.txtar")
	require.NoError(t, err)
	archive := txtar.Parse(data)

	var straightLine []byte
	for _, f := range archive.Files {
		if f.Name == "straight_line.json" {
			straightLine = f.Data
		}
	}
	require.NotNil(t, straightLine)

	var prog ast.Program
	require.NoError(t, json.Unmarshal(straightLine, &prog))

	m, err := Program(&prog)
	require.NoError(t, err)
	require.Contains(t, m.Functions, "main")

	dump := ir.Dump(m)
	require.Contains(t, dump, "fn main(")
	require.Contains(t, dump, "%2 = %0 + %1")
	require.Contains(t, dump, "ret")
}
