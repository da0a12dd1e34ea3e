package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefineTypeOwnership(t *testing.T) {
	s := NewStore()

	require.NoError(t, s.DefineType(TypeDef{
		Name:   "MarkdownPage",
		Owner:  "markdown",
		Fields: map[string]FieldDef{"title": {Kind: KindString}},
	}))

	// Same owner refines its own type.
	require.NoError(t, s.DefineType(TypeDef{
		Name:   "MarkdownPage",
		Owner:  "markdown",
		Fields: map[string]FieldDef{"excerpt": {Kind: KindString}},
	}))

	// Another owner cannot redefine it.
	err := s.DefineType(TypeDef{Name: "MarkdownPage", Owner: "other"})
	assert.Error(t, err)

	snap := s.Snapshot()
	require.Len(t, snap.Types, 1)
	assert.Len(t, snap.Types[0].Fields, 2)
}

func TestAddInferredFieldsMerges(t *testing.T) {
	s := NewStore()

	require.NoError(t, s.AddInferredFields("File", map[string]FieldDef{
		"path": {Kind: KindString},
	}))
	require.NoError(t, s.AddInferredFields("File", map[string]FieldDef{
		"size": {Kind: KindInt},
	}))

	snap := s.Snapshot()
	assert.Len(t, snap.Inferred["File"], 2)
	assert.Equal(t, []string{"File"}, s.InferredTypes())
}

func TestBindResolverConflicts(t *testing.T) {
	s := NewStore()

	resolve := func(map[string]any) (any, error) { return "html", nil }

	require.NoError(t, s.BindResolver(ResolverBinding{Type: "MarkdownPage", Field: "html", Owner: "markdown", Resolve: resolve}))

	err := s.BindResolver(ResolverBinding{Type: "MarkdownPage", Field: "html", Owner: "other", Resolve: resolve})
	assert.Error(t, err, "double binding the same field must fail")

	assert.Error(t, s.BindResolver(ResolverBinding{Type: "X", Field: "y", Owner: "p"}), "nil resolve func rejected")

	b, ok := s.Resolver("MarkdownPage", "html")
	require.True(t, ok)
	v, err := b.Resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, "html", v)

	_, ok = s.Resolver("MarkdownPage", "missing")
	assert.False(t, ok)
}

func TestRegisterFieldExtension(t *testing.T) {
	s := NewStore()

	upper := func(v any, _ map[string]any) (any, error) { return v, nil }

	require.NoError(t, s.RegisterFieldExtension(FieldExtension{Name: "dateformat", Owner: "markdown", Apply: upper}))
	assert.Error(t, s.RegisterFieldExtension(FieldExtension{Name: "dateformat", Owner: "other", Apply: upper}),
		"extension names are unique across plugins")
	assert.Error(t, s.RegisterFieldExtension(FieldExtension{Name: "x", Owner: "p"}), "nil apply rejected")

	ext, ok := s.FieldExtensionByName("dateformat")
	require.True(t, ok)
	assert.Equal(t, "markdown", ext.Owner)

	_, ok = s.FieldExtensionByName("missing")
	assert.False(t, ok)
}

func TestSealFreezesStore(t *testing.T) {
	s := NewStore()
	s.Seal()

	assert.Error(t, s.DefineType(TypeDef{Name: "T", Owner: "p"}))
	assert.Error(t, s.AddInferredFields("T", nil))
	assert.Error(t, s.BindResolver(ResolverBinding{Type: "T", Field: "f", Resolve: func(map[string]any) (any, error) { return nil, nil }}))

	s.Reset()
	assert.NoError(t, s.DefineType(TypeDef{Name: "T", Owner: "p"}))
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.DefineType(TypeDef{Name: "T", Owner: "p", Fields: map[string]FieldDef{"a": {Kind: KindString}}}))

	snap := s.Snapshot()
	snap.Types[0].Fields["a"] = FieldDef{Kind: KindInt}

	fresh := s.Snapshot()
	assert.Equal(t, KindString, fresh.Types[0].Fields["a"].Kind)
}

func TestInferValueKind(t *testing.T) {
	cases := []struct {
		value any
		want  FieldKind
	}{
		{"s", KindString},
		{1, KindInt},
		{int64(1), KindInt},
		{1.5, KindFloat},
		{true, KindBoolean},
		{time.Now(), KindDate},
		{[]any{1}, KindList},
		{[]string{"a"}, KindList},
		{map[string]any{}, KindObject},
		{struct{}{}, KindUnknown},
		{nil, KindUnknown},
	}

	for _, tc := range cases {
		if got := InferValueKind(tc.value); got != tc.want {
			t.Errorf("InferValueKind(%v) = %s, want %s", tc.value, got, tc.want)
		}
	}
}
