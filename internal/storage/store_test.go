package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "/", want: ""},
		{in: "main.py", want: "main.py"},
		{in: "/examples//boxes.py", want: "examples/boxes.py"},
		{in: `examples\spheres.py`, want: "examples/spheres.py"},
		{in: "./a/./b.py", want: "a/b.py"},
	}
	for _, tc := range tests {
		got, err := CleanPath(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{"..", "../etc/passwd", "a/../../b", `..\x`} {
		_, err := CleanPath(bad)
		assert.ErrorIs(t, err, ErrInvalidPath, bad)
	}
}

func TestJoinAndParent(t *testing.T) {
	assert.Equal(t, "main.py", JoinPath("", "main.py"))
	assert.Equal(t, "examples/boxes.py", JoinPath("examples/", "boxes.py"))
	assert.Equal(t, "examples", JoinPath("examples", ""))
	assert.Equal(t, "", ParentPath("main.py"))
	assert.Equal(t, "a/b", ParentPath("a/b/c.py"))
}

func TestBreadcrumbs(t *testing.T) {
	assert.Equal(t, []Crumb{{Name: "~", Path: ""}}, Breadcrumbs(""))
	assert.Equal(t, []Crumb{
		{Name: "~", Path: ""},
		{Name: "examples", Path: "examples"},
		{Name: "nested", Path: "examples/nested"},
	}, Breadcrumbs("examples//nested/"))
	assert.Equal(t, "~ /", FormatBreadcrumbs(Breadcrumbs("")))
	assert.Equal(t, "~ / examples", FormatBreadcrumbs(Breadcrumbs("examples")))
}

func TestSanitizeFolderName(t *testing.T) {
	assert.Equal(t, "a_b", SanitizeFolderName("a/b"))
	assert.Equal(t, "a_b", SanitizeFolderName(`a\b`))
	assert.Empty(t, SanitizeFolderName(" .. "))
	assert.True(t, IsScript("x.py"))
	assert.False(t, IsScript("x.txt"))
}
