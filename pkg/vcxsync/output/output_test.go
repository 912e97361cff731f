package output

import (
	"bytes"
	"testing"
	"time"

	"github.com/jamesainslie/vcxsync/pkg/vcxsync/filter"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/manifest"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/reconcile"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/syncer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *syncer.Result {
	return &syncer.Result{
		Root:        "/work/App",
		ProjectPath: "/work/App/App.vcxproj",
		FiltersPath: "/work/App/App.vcxproj.filters",
		Plan: &reconcile.Plan{
			AddedGroups:   []manifest.GroupEntry{{Path: `src\net`, ID: "{00000000-0000-0000-0000-000000000001}"}},
			RemovedGroups: []string{"legacy"},
			AddedFiles: []manifest.FileEntry{
				{Path: `src\net\socket.cpp`, Group: manifest.InGroup(`src\net`), Category: filter.CategoryCompile},
				{Path: `main.cpp`, Category: filter.CategoryCompile},
			},
			RemovedFiles: []string{`legacy\old.cpp`},
			Regrouped: []reconcile.GroupChange{{
				Path: `util.h`,
				From: manifest.InGroup("src"),
				To:   manifest.Ungrouped(),
				Kind: reconcile.GroupRemoved,
			}},
			Reclassified: []reconcile.CategoryChange{{
				Path: `module.ixx`,
				From: filter.CategoryOther,
				To:   filter.CategoryCompile,
			}},
			Items: []manifest.FileEntry{
				{Path: `main.cpp`, Category: filter.CategoryCompile},
				{Path: `module.ixx`, Category: filter.CategoryCompile},
				{Path: `src\net\socket.cpp`, Category: filter.CategoryCompile},
				{Path: `util.h`, Category: filter.CategoryInclude},
				{Path: `README.md`, Category: filter.CategoryOther},
			},
		},
		OutOfDate: []string{"/work/App/App.vcxproj.filters", "/work/App/App.vcxproj"},
		Written: []syncer.WrittenFile{
			{Path: "/work/App/App.vcxproj.filters", Size: 2048},
			{Path: "/work/App/App.vcxproj", Size: 1024},
		},
		Elapsed: 12 * time.Millisecond,
	}
}

func TestFromResult(t *testing.T) {
	r := FromResult(sampleResult())

	assert.Equal(t, "/work/App/App.vcxproj", r.Project)
	assert.Equal(t, []GroupInfo{{Path: `src\net`, ID: "{00000000-0000-0000-0000-000000000001}"}}, r.GroupsAdded)
	assert.Equal(t, []string{"legacy"}, r.GroupsRemoved)
	assert.Equal(t, []FileInfo{
		{Path: `src\net\socket.cpp`, Group: `src\net`, Category: "compile"},
		{Path: `main.cpp`, Category: "compile"},
	}, r.FilesAdded)
	assert.Equal(t, []ChangeInfo{{Path: "util.h", From: "src", To: "", Kind: "removed"}}, r.Regrouped)
	assert.Equal(t, []ChangeInfo{{Path: "module.ixx", From: "other", To: "compile"}}, r.Reclassified)
	assert.Equal(t, BucketCounts{Compile: 3, Include: 1, Other: 1}, r.Buckets)
	assert.Equal(t, 5, r.Buckets.Total())
	assert.Equal(t, int64(3072), r.TotalWritten())
	assert.Equal(t, "12ms", r.Elapsed)
	assert.True(t, r.Changed())
}

func TestFromResult_NoPlan(t *testing.T) {
	r := FromResult(&syncer.Result{Root: "/work", DryRun: true})

	assert.False(t, r.Changed())
	assert.NotNil(t, r.GroupsAdded)
	assert.NotNil(t, r.FilesRemoved)
	assert.NotNil(t, r.Written)
	assert.Zero(t, r.Buckets.Total())
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Microsecond, "500µs"},
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.d))
	}
}

// mockFormatter is a test implementation of Formatter.
type mockFormatter struct{}

func (m *mockFormatter) Format(w *bytes.Buffer, r *Report) error {
	w.WriteString("mock output")
	return nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	reg.Register("mock", func() Formatter { return &mockFormatter{} })

	formatter, err := reg.Get("mock")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, formatter.Format(&buf, &Report{}))
	assert.Equal(t, "mock output", buf.String())
}

func TestRegistry_GetUnknown(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Get("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown formatter")
}

func TestRegistry_Available_Sorted(t *testing.T) {
	reg := NewRegistry()
	mockFactory := func() Formatter { return &mockFormatter{} }

	reg.Register("zeta", mockFactory)
	reg.Register("alpha", mockFactory)
	reg.Register("beta", mockFactory)

	assert.Equal(t, []string{"alpha", "beta", "zeta"}, reg.Available())
}

func TestGlobalRegistry(t *testing.T) {
	assert.Equal(t, []string{"json", "paths", "plain", "pretty", "template", "yaml"}, Available())

	for _, name := range Available() {
		f, err := Get(name)
		require.NoError(t, err, name)

		var buf bytes.Buffer
		require.NoError(t, f.Format(&buf, FromResult(&syncer.Result{})), name)
	}
}
