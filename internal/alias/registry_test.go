package alias

import (
	"path/filepath"
	"testing"

	"github.com/agentese/logos/internal/agenteseerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_RejectsReservedRoot(t *testing.T) {
	r := NewRegistry()
	err := r.Register("self", "world.garden")
	require.Error(t, err)
	var shadowErr *agenteseerr.AliasShadowError
	require.ErrorAs(t, err, &shadowErr)
}

func TestRegister_RejectsCycle(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("a", "b.foo"))
	err := r.Register("b", "a.bar")
	require.Error(t, err)
	var cycleErr *agenteseerr.AliasRecursionError
	require.ErrorAs(t, err, &cycleErr)
}

func TestExpand_LongestPrefix(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("me", "self"))
	assert.Equal(t, "self.memory.engram", r.Expand("me.memory.engram"))
	assert.Equal(t, "untouched.path", r.Expand("untouched.path"))
}

func TestExpand_Idempotent(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("me", "self"))
	once := r.Expand("me.memory.engram")
	twice := r.Expand(once)
	assert.Equal(t, once, twice)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "aliases.yaml")

	r := NewRegistry()
	require.NoError(t, r.Register("me", "self"))
	require.NoError(t, r.Register("garden", "world.garden"))
	require.NoError(t, r.Save(file))

	r2 := NewRegistry()
	require.NoError(t, r2.Load(file))
	require.NoError(t, r2.Load(file)) // idempotent
	assert.Equal(t, r.List(), r2.List())
}

func TestLoad_MissingFileIsNotError(t *testing.T) {
	r := NewRegistry()
	err := r.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
}

func TestUnregister_NotFound(t *testing.T) {
	r := NewRegistry()
	err := r.Unregister("nope")
	require.Error(t, err)
	var nf *agenteseerr.AliasNotFoundError
	require.ErrorAs(t, err, &nf)
}
