package manifest

import (
	"errors"
	"testing"

	"github.com/jamesainslie/vcxsync/pkg/vcxsync/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupRef(t *testing.T) {
	t.Parallel()

	none := Ungrouped()
	src := InGroup("src")

	path, ok := none.Get()
	assert.False(t, ok)
	assert.Empty(t, path)
	assert.False(t, none.IsSet())

	path, ok = src.Get()
	assert.True(t, ok)
	assert.Equal(t, "src", path)
	assert.Equal(t, "src", src.String())

	tests := []struct {
		name string
		a, b GroupRef
		want bool
	}{
		{name: "both absent", a: none, b: Ungrouped(), want: true},
		{name: "absent vs present", a: none, b: src, want: false},
		{name: "present vs absent", a: src, b: none, want: false},
		{name: "same group", a: src, b: InGroup("src"), want: true},
		{name: "different group", a: src, b: InGroup("lib"), want: false},
		{name: "empty path is still a group", a: InGroup(""), b: none, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
		})
	}
}

func TestModel_SortedPaths(t *testing.T) {
	t.Parallel()

	m := New()
	m.AddGroup(GroupEntry{Path: "src", ID: "{2}"})
	m.AddGroup(GroupEntry{Path: "inc", ID: "{1}"})
	m.AddFile(FileEntry{Path: `src\b.cpp`, Group: InGroup("src")})
	m.AddFile(FileEntry{Path: `inc\a.h`, Group: InGroup("inc"), Category: filter.CategoryInclude})

	assert.Equal(t, []string{"inc", "src"}, m.GroupPaths())
	assert.Equal(t, []string{`inc\a.h`, `src\b.cpp`}, m.FilePaths())
	assert.Equal(t, map[string]struct{}{"{1}": {}, "{2}": {}}, m.IDs())
}

func TestModel_Validate(t *testing.T) {
	t.Parallel()

	t.Run("consistent model", func(t *testing.T) {
		m := New()
		m.AddGroup(GroupEntry{Path: "src", ID: "{1}"})
		m.AddFile(FileEntry{Path: `src\a.cpp`, Group: InGroup("src")})
		m.AddFile(FileEntry{Path: "README.md"})
		require.NoError(t, m.Validate())
	})

	t.Run("unknown group", func(t *testing.T) {
		m := New()
		m.AddFile(FileEntry{Path: `old\x.cpp`, Group: InGroup("old")})
		err := m.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnknownGroup))
	})

	t.Run("duplicate identifier", func(t *testing.T) {
		m := New()
		m.AddGroup(GroupEntry{Path: "a", ID: "{1}"})
		m.AddGroup(GroupEntry{Path: "b", ID: "{1}"})
		err := m.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDuplicateID))
	})

	t.Run("missing identifier", func(t *testing.T) {
		m := New()
		m.AddGroup(GroupEntry{Path: "src"})
		err := m.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingID))
		assert.Contains(t, err.Error(), `"src"`)
	})
}
