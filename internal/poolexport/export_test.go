package poolexport

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/turntablepool/internal/diag"
	"github.com/specialistvlad/turntablepool/internal/linereader"
	"github.com/specialistvlad/turntablepool/internal/pooldef"
	"github.com/specialistvlad/turntablepool/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	f := linereader.FromFields("shed.turntable", [][]string{
		{"header"},
		{"#name", "Roundhouse1"},
		{"#worldfile", "w-005573+014893.w"},
		{"#uid", "42"},
		{"track", "A", "0"},
		{"track", "B", "-90"},
		{"#name", "Bare"},
	})
	pooldef.ProcessLines(context.Background(), f, reg, diag.Discard)
	require.Equal(t, 2, reg.Len())
	return reg
}

func TestBuild(t *testing.T) {
	uid := 42
	want := Catalogue{Pools: []Pool{
		{Name: "Bare", Source: "shed.turntable:7", Tracks: []Track{}},
		{
			Name:      "Roundhouse1",
			Source:    "shed.turntable:2",
			WorldFile: "w-005573+014893.w",
			UID:       &uid,
			Tracks:    []Track{{ID: "A", Degrees: 0}, {ID: "B", Degrees: 270}},
		},
	}}

	got := Build(newRegistry(t))

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}
}

func TestWrite_IsReadable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, newRegistry(t)))

	assert.Contains(t, buf.String(), "name: Roundhouse1")
	assert.Contains(t, buf.String(), "uid: 42")

	c, err := Read(&buf)
	require.NoError(t, err)
	require.Len(t, c.Pools, 2)
	assert.Nil(t, c.Pools[0].UID)
	assert.Equal(t, "w-005573+014893.w", c.Pools[1].WorldFile)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pools.yaml")
	require.NoError(t, WriteFile(path, newRegistry(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "pools:")

	require.Error(t, WriteFile(filepath.Join(t.TempDir(), "missing", "pools.yaml"), registry.New()))
}
