package specgraph

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const orchardSpec = `---
path: world.orchard
polynomial:
  positions: [tree]
  directions: [branch]
operad:
  operations: [graft]
  laws: [identity, associativity]
aspects:
  - name: manifest
    category: perception
    effects: []
service:
  dependencies: []
---

The orchard node surfaces its current tree layout.
`

func TestParseSpec_LayerCount(t *testing.T) {
	parsed, err := ParseSpec(orchardSpec)
	require.NoError(t, err)
	assert.Equal(t, "world.orchard", parsed.Path)
	assert.Equal(t, 5, parsed.LayerCount)
	assert.Len(t, parsed.Aspects, 1)
	assert.Equal(t, "manifest", parsed.Aspects[0].Name)
}

func TestParseSpec_MissingSectionsAreFine(t *testing.T) {
	parsed, err := ParseSpec("---\npath: world.bare\n---\nbody text\n")
	require.NoError(t, err)
	assert.Equal(t, "world.bare", parsed.Path)
	assert.Equal(t, 1, parsed.LayerCount)
	assert.Nil(t, parsed.Polynomial)
}

func TestCompile_ProducesHandlerPerAspect(t *testing.T) {
	parsed, err := ParseSpec(orchardSpec)
	require.NoError(t, err)

	node, err := Compile(parsed)
	require.NoError(t, err)
	assert.Equal(t, []string{"manifest"}, node.Affordances())

	handler, ok := node.Lens("manifest")
	require.True(t, ok)
	out, err := handler(context.Background(), "architect", map[string]any{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, "manifest", out.(map[string]any)["aspect"])
}

func TestCompile_RejectsPathlessSpec(t *testing.T) {
	_, err := Compile(&ParsedSpec{})
	assert.Error(t, err)
}

// TestJIT_PromoteThenRollback compiles a frontmatter spec defining
// world.orchard.manifest, invokes it enough times at or above the success
// threshold, promotes it, and verifies rollback restores the prior file
// set bit-for-bit.
func TestJIT_PromoteThenRollback(t *testing.T) {
	dir := t.TempDir()
	specRoot := filepath.Join(dir, "spec")
	implRoot := filepath.Join(dir, "impl")

	parsed, err := ParseSpec(orchardSpec)
	require.NoError(t, err)
	node, err := Compile(parsed)
	require.NoError(t, err)

	promoter := NewPromoter(specRoot, implRoot, 3, 0.8)

	for i := 0; i < 3; i++ {
		_, ok := node.Lens("manifest")
		require.True(t, ok)
		promoter.RecordInvocation(node.Path, true)
	}
	require.True(t, promoter.Eligible(node.Path))

	token, err := promoter.Promote(node.Path, orchardSpec, "// path: world.orchard\npackage orchard\n")
	require.NoError(t, err)
	require.NotNil(t, token)

	specPath := filepath.Join(specRoot, "world", "orchard.md")
	implPath := filepath.Join(implRoot, "world", "orchard.go")
	_, err = os.Stat(specPath)
	require.NoError(t, err)
	_, err = os.Stat(implPath)
	require.NoError(t, err)

	require.NoError(t, Rollback(token))
	_, err = os.Stat(specPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(implPath)
	assert.True(t, os.IsNotExist(err))
}

func TestPromote_RefusesBeforeThreshold(t *testing.T) {
	dir := t.TempDir()
	promoter := NewPromoter(filepath.Join(dir, "spec"), filepath.Join(dir, "impl"), 5, 0.9)
	_, err := promoter.Promote("world.orchard", "spec", "impl")
	assert.Error(t, err)
}

func TestRollback_RestoresPriorContentsNotJustDeletes(t *testing.T) {
	dir := t.TempDir()
	specRoot := filepath.Join(dir, "spec")
	implRoot := filepath.Join(dir, "impl")
	require.NoError(t, os.MkdirAll(filepath.Join(specRoot, "world"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(specRoot, "world", "orchard.md"), []byte("old spec"), 0o644))

	promoter := NewPromoter(specRoot, implRoot, 1, 0.5)
	promoter.RecordInvocation("world.orchard", true)

	token, err := promoter.Promote("world.orchard", "new spec", "new impl")
	require.NoError(t, err)

	require.NoError(t, Rollback(token))
	data, err := os.ReadFile(filepath.Join(specRoot, "world", "orchard.md"))
	require.NoError(t, err)
	assert.Equal(t, "old spec", string(data))
}

func TestReflect_RecoversPathFromComment(t *testing.T) {
	src := "// path: world.orchard\npackage orchard\n\nfunc (n *Node) manifest(ctx context.Context) {}\n"
	reflected := Reflect(src)
	assert.Equal(t, "world.orchard", reflected.Path)
	require.Len(t, reflected.Aspects, 1)
	assert.Equal(t, "manifest", reflected.Aspects[0].Name)
}

func TestFullAudit_ReportsAllFourStatuses(t *testing.T) {
	dir := t.TempDir()
	specRoot := filepath.Join(dir, "spec", "world")
	implRoot := filepath.Join(dir, "impl", "world")
	require.NoError(t, os.MkdirAll(specRoot, 0o755))
	require.NoError(t, os.MkdirAll(implRoot, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(specRoot, "orchard.md"), []byte(orchardSpec), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(implRoot, "orchard.go"), []byte("// path: world.orchard\npackage orchard\n\nfunc (n *Node) manifest(ctx context.Context) {}\n"), 0o644))

	require.NoError(t, os.WriteFile(filepath.Join(specRoot, "garden.md"), []byte("---\npath: world.garden\naspects:\n  - name: manifest\n---\n"), 0o644))

	require.NoError(t, os.WriteFile(filepath.Join(implRoot, "greenhouse.go"), []byte("// path: world.greenhouse\npackage greenhouse\n\nfunc (n *Node) manifest(ctx context.Context) {}\n"), 0o644))

	require.NoError(t, os.WriteFile(filepath.Join(specRoot, "bog.md"), []byte("---\npath: world.bog\naspects:\n  - name: manifest\n---\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(implRoot, "bog.go"), []byte("// path: world.bog\npackage bog\n\nfunc (n *Node) refine(ctx context.Context) {}\n"), 0o644))

	_, report, err := FullAudit(filepath.Join(dir, "spec"), filepath.Join(dir, "impl"))
	require.NoError(t, err)

	byPath := map[string]DriftStatus{}
	for _, e := range report.Entries {
		byPath[e.Path] = e.Status
	}
	assert.Equal(t, Aligned, byPath["world.orchard"])
	assert.Equal(t, SpecOnly, byPath["world.garden"])
	assert.Equal(t, ImplOnly, byPath["world.greenhouse"])
	assert.Equal(t, Mismatch, byPath["world.bog"])
}
