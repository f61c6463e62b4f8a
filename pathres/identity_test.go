package pathres

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePlainDirectory(t *testing.T) {
	r, err := Resolve("/base", "classes")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/base", "classes"), r.Identity.Path)
	assert.Empty(t, r.Identity.InArchiveBaseDir)
	assert.Equal(t, []string{"classes"}, r.NestedChain)
}

func TestResolveAbsoluteToken(t *testing.T) {
	r, err := Resolve("/base", "/abs/foo.jar")
	require.NoError(t, err)
	assert.Equal(t, "/abs/foo.jar", r.Identity.Path)
}

func TestResolveNormalizesDotSegments(t *testing.T) {
	r, err := Resolve("/base", "a/../b/./c")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/base", "b", "c"), r.Identity.Path)
}

func TestResolveSingleNestedArchive(t *testing.T) {
	r, err := Resolve("/base", "outer.jar!/BOOT-INF/classes")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/base", "outer.jar"), r.Identity.Path)
	assert.Equal(t, "BOOT-INF/classes", r.Identity.InArchiveBaseDir)
	assert.False(t, r.Identity.IsNested())
}

func TestResolveDeeplyNestedArchive(t *testing.T) {
	r, err := Resolve("/base", "outer.jar!/inner.jar!/root")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/base", "outer.jar"), r.Identity.Path)
	assert.Equal(t, "inner.jar!/root", r.Identity.InArchiveBaseDir)
	assert.True(t, r.Identity.IsNested())
	assert.Equal(t, []string{"outer.jar", "inner.jar", "root"}, r.NestedChain)
}

func TestDistinctInArchiveBaseDirsAreDistinctIdentities(t *testing.T) {
	a, err := Resolve("/base", "foo.jar")
	require.NoError(t, err)
	b, err := Resolve("/base", "foo.jar!/BOOT-INF/classes")
	require.NoError(t, err)
	assert.NotEqual(t, a.Identity, b.Identity)
}

func TestResolveEmptyToken(t *testing.T) {
	_, err := Resolve("/base", "")
	assert.Error(t, err)
}

func TestIdentityStringFormat(t *testing.T) {
	id := Identity{Path: "/x/foo.jar", InArchiveBaseDir: "BOOT-INF/classes"}
	assert.Equal(t, "/x/foo.jar!/BOOT-INF/classes", id.String())

	plain := Identity{Path: "/x/classes"}
	assert.Equal(t, "/x/classes", plain.String())
}
