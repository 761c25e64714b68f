package ignore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultPatterns(t *testing.T) {
	m := NewMatcher(nil)

	require.True(t, m.ShouldIgnore("__pycache__/mod.cpython-312.py", false))
	require.True(t, m.ShouldIgnore("sub/__pycache__/mod.py", false))
	require.True(t, m.ShouldIgnore("tests/test_core.py", false))
	require.True(t, m.ShouldIgnore("pkg/test_helpers.py", false))
	require.True(t, m.ShouldIgnore("pkg/conftest.py", false))

	require.False(t, m.ShouldIgnore("pkg/core.py", false))
	require.False(t, m.ShouldIgnore("pkg/testing.py", false))
}

func TestDirectoryPruning(t *testing.T) {
	m := NewMatcher(nil)
	require.True(t, m.ShouldIgnore(".git", true))
	require.True(t, m.ShouldIgnore("build", true))
	require.False(t, m.ShouldIgnore("src", true))
}

func TestUserPatterns(t *testing.T) {
	m := NewMatcher([]string{"vendored/**", "**/*_pb2.py"})
	require.True(t, m.ShouldIgnore("vendored/lib.py", false))
	require.True(t, m.ShouldIgnore("vendored", true))
	require.True(t, m.ShouldIgnore("pkg/api_pb2.py", false))
	require.False(t, m.ShouldIgnore("pkg/api.py", false))
}

func TestInvalidPatternIsDropped(t *testing.T) {
	m := NewMatcher([]string{"[unclosed"})
	require.False(t, m.ShouldIgnore("pkg/core.py", false))
}
