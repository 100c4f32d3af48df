package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emenda-labs/semguard/core/cli"
	"github.com/emenda-labs/semguard/core/topology"
	"github.com/emenda-labs/semguard/core/version"
	golangdriver "github.com/emenda-labs/semguard/drivers/golang"
	"github.com/emenda-labs/semguard/pkg/errors"
	"github.com/emenda-labs/semguard/pkg/serializer"
)

const dummyModule = "example.com/dummy"

const dummySource = `package dummy

type SemVerTest struct{}

func (SemVerTest) Name() string { return "" }

func (SemVerTest) Hello() string { return "" }
`

const dummyNuspec = `<?xml version="1.0"?>
<package>
  <metadata>
    <id>Dummy</id>
    <version>1.0.0</version>
  </metadata>
</package>
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// newSolution lays out a workspace with a versioned module and one that
// declares no version.
func newSolution(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "go.work"), "go 1.22\n\nuse (\n\t./dummy\n\t./bare\n)\n")
	writeFile(t, filepath.Join(root, "dummy", "go.mod"), "module example.com/dummy\n\ngo 1.22\n")
	writeFile(t, filepath.Join(root, "dummy", "dummy.go"), dummySource)
	writeFile(t, filepath.Join(root, "dummy", "version.go"), "package dummy\n\nconst Version = \"1.0.0\"\n")
	writeFile(t, filepath.Join(root, "bare", "go.mod"), "module example.com/bare\n\ngo 1.22\n")
	writeFile(t, filepath.Join(root, "bare", "bare.go"), "package bare\n\nfunc Do() {}\n")
	writeFile(t, filepath.Join(root, "Dummy.nuspec"), dummyNuspec)
	return root
}

func globals(root string, format serializer.Format, components ...string) cli.GlobalOptions {
	return cli.GlobalOptions{Solution: root, Components: components, Format: format}
}

func newOrchestrator(out *bytes.Buffer) *Orchestrator {
	return New(golangdriver.NewDriver(), out)
}

func initSnapshot(t *testing.T, root string, components ...string) {
	t.Helper()
	var out bytes.Buffer
	err := newOrchestrator(&out).Init(context.Background(), cli.InitOptions{
		GlobalOptions: globals(root, serializer.FormatTable, components...),
	})
	require.NoError(t, err)
}

func TestInit(t *testing.T) {
	root := newSolution(t)
	var out bytes.Buffer
	o := newOrchestrator(&out)
	opts := cli.InitOptions{GlobalOptions: globals(root, serializer.FormatTable, dummyModule)}

	require.NoError(t, o.Init(context.Background(), opts))
	snapshot := filepath.Join(root, "dummy", "go.mod"+topology.SnapshotSuffix)
	assert.True(t, topology.SnapshotExists(snapshot))
	assert.Contains(t, out.String(), dummyModule)
	assert.Contains(t, out.String(), "1.0.0")

	saved, err := topology.Load(snapshot)
	require.NoError(t, err)
	assert.Equal(t, dummyModule, saved.ComponentName())
	assert.Contains(t, saved.PublicAPI(), "method example.com/dummy.SemVerTest.Hello() string")

	err = o.Init(context.Background(), opts)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidArgument), "got %v", err)

	opts.Force = true
	assert.NoError(t, o.Init(context.Background(), opts))
}

func TestDiff_NoSnapshot(t *testing.T) {
	root := newSolution(t)
	var out bytes.Buffer
	err := newOrchestrator(&out).Diff(context.Background(), cli.DiffOptions{
		GlobalOptions: globals(root, serializer.FormatTable, dummyModule),
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeIO))
	assert.Contains(t, err.Error(), "semguard init")
}

func TestDiff_UnknownComponent(t *testing.T) {
	root := newSolution(t)
	var out bytes.Buffer
	err := newOrchestrator(&out).Diff(context.Background(), cli.DiffOptions{
		GlobalOptions: globals(root, serializer.FormatTable, "example.com/missing"),
	})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidArgument), "got %v", err)
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		change  string
		next    string
		added   int
		removed int
	}{
		{"unchanged", dummySource, "patch", "1.0.1.0", 0, 0},
		{"added", dummySource + "\nfunc (SemVerTest) Extra() {}\n", "minor", "1.1.0.0", 1, 0},
		{"removed", "package dummy\n\ntype SemVerTest struct{}\n\nfunc (SemVerTest) Name() string { return \"\" }\n", "major", "2.0.0.0", 0, 1},
		{"changed_signature", "package dummy\n\ntype SemVerTest struct{}\n\nfunc (SemVerTest) Name() string { return \"\" }\n\nfunc (SemVerTest) Hello(s string) string { return s }\n", "major", "2.0.0.0", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newSolution(t)
			initSnapshot(t, root, dummyModule)
			writeFile(t, filepath.Join(root, "dummy", "dummy.go"), tt.source)

			var out bytes.Buffer
			err := newOrchestrator(&out).Diff(context.Background(), cli.DiffOptions{
				GlobalOptions: globals(root, serializer.FormatJSON, dummyModule),
			})
			require.NoError(t, err)

			var report struct {
				Components []struct {
					Component      string   `json:"component"`
					Change         string   `json:"change"`
					CurrentVersion string   `json:"currentVersion"`
					NextVersion    string   `json:"nextVersion"`
					Added          []string `json:"added"`
					Removed        []string `json:"removed"`
				} `json:"components"`
			}
			require.NoError(t, json.Unmarshal(out.Bytes(), &report))
			require.Len(t, report.Components, 1)
			d := report.Components[0]
			assert.Equal(t, dummyModule, d.Component)
			assert.Equal(t, tt.change, d.Change)
			assert.Equal(t, "1.0.0", d.CurrentVersion)
			assert.Equal(t, tt.next, d.NextVersion)
			assert.Len(t, d.Added, tt.added)
			assert.Len(t, d.Removed, tt.removed)
		})
	}
}

func TestDiff_Table(t *testing.T) {
	root := newSolution(t)
	initSnapshot(t, root, dummyModule)
	writeFile(t, filepath.Join(root, "dummy", "dummy.go"), dummySource+"\nfunc (SemVerTest) Extra() {}\n")

	var out bytes.Buffer
	err := newOrchestrator(&out).Diff(context.Background(), cli.DiffOptions{
		GlobalOptions: globals(root, serializer.FormatTable, dummyModule),
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "COMPONENT")
	assert.Contains(t, out.String(), "minor")
	assert.Contains(t, out.String(), "+ method example.com/dummy.SemVerTest.Extra()")
}

func TestBump_Auto(t *testing.T) {
	root := newSolution(t)
	initSnapshot(t, root, dummyModule)
	writeFile(t, filepath.Join(root, "dummy", "dummy.go"), dummySource+"\nfunc (SemVerTest) Extra() {}\n")
	nuspec := filepath.Join(root, "Dummy.nuspec")

	var out bytes.Buffer
	err := newOrchestrator(&out).Bump(context.Background(), cli.BumpOptions{
		GlobalOptions: globals(root, serializer.FormatTable, dummyModule),
		Descriptors:   []string{nuspec},
	})
	require.NoError(t, err)

	assert.Contains(t, readFile(t, filepath.Join(root, "dummy", "version.go")), `const Version = "1.1.0"`)
	assert.Contains(t, readFile(t, nuspec), "<version>1.1.0</version>")

	saved, err := topology.Load(filepath.Join(root, "dummy", "go.mod"+topology.SnapshotSuffix))
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", saved.Version().String())
	assert.Contains(t, saved.PublicAPI(), "method example.com/dummy.SemVerTest.Extra()")
	assert.Contains(t, out.String(), "updated")

	// Nothing changed since the refreshed snapshot, so the next diff is a patch.
	out.Reset()
	err = newOrchestrator(&out).Diff(context.Background(), cli.DiffOptions{
		GlobalOptions: globals(root, serializer.FormatJSON, dummyModule),
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"change": "patch"`)
	assert.Contains(t, out.String(), `"nextVersion": "1.1.1.0"`)
}

func TestBump_AutoNeedsSnapshot(t *testing.T) {
	root := newSolution(t)
	versionFile := filepath.Join(root, "dummy", "version.go")
	before := readFile(t, versionFile)

	var out bytes.Buffer
	err := newOrchestrator(&out).Bump(context.Background(), cli.BumpOptions{
		GlobalOptions: globals(root, serializer.FormatTable, dummyModule),
	})
	assert.True(t, errors.IsCode(err, errors.ErrCodeIO), "got %v", err)
	assert.Equal(t, before, readFile(t, versionFile))
}

func TestBump_ExplicitDryRun(t *testing.T) {
	root := newSolution(t)
	versionFile := filepath.Join(root, "dummy", "version.go")
	nuspec := filepath.Join(root, "Dummy.nuspec")
	op := version.Major

	var out bytes.Buffer
	err := newOrchestrator(&out).Bump(context.Background(), cli.BumpOptions{
		GlobalOptions: globals(root, serializer.FormatTable, dummyModule),
		Operation:     &op,
		Descriptors:   []string{nuspec},
		DryRun:        true,
	})
	require.NoError(t, err)

	assert.Contains(t, readFile(t, versionFile), `"1.0.0"`)
	assert.Equal(t, dummyNuspec, readFile(t, nuspec))
	assert.Contains(t, out.String(), `+const Version = "2.0.0"`)
	assert.Contains(t, out.String(), "+    <version>2.0.0</version>")
	assert.Contains(t, out.String(), "would update")
	assert.False(t, topology.SnapshotExists(filepath.Join(root, "dummy", "go.mod"+topology.SnapshotSuffix)))
}

func TestBump_ExplicitJSON(t *testing.T) {
	root := newSolution(t)
	versionFile := filepath.Join(root, "dummy", "version.go")
	op := version.Patch

	var out bytes.Buffer
	err := newOrchestrator(&out).Bump(context.Background(), cli.BumpOptions{
		GlobalOptions: globals(root, serializer.FormatJSON, dummyModule),
		Operation:     &op,
	})
	require.NoError(t, err)
	assert.Contains(t, readFile(t, versionFile), `const Version = "1.0.1"`)

	var report BumpReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, "patch", report.Operation)
	require.Len(t, report.Components, 1)
	assert.Equal(t, "1.0.1", report.Components[0].To.String())
	require.Len(t, report.Files, 1)
	assert.Equal(t, filepath.Join("dummy", "version.go"), report.Files[0].Path)
	assert.True(t, report.Files[0].Changed)
	assert.Empty(t, report.Files[0].Diff)
}

func TestBump_UndeclaredComponent(t *testing.T) {
	root := newSolution(t)
	op := version.Minor

	var out bytes.Buffer
	o := newOrchestrator(&out)
	err := o.Bump(context.Background(), cli.BumpOptions{
		GlobalOptions: globals(root, serializer.FormatTable, "example.com/bare"),
		Operation:     &op,
	})
	assert.True(t, errors.IsCode(err, errors.ErrCodeStructuralNotFound), "got %v", err)

	nuspec := filepath.Join(root, "Dummy.nuspec")
	out.Reset()
	err = o.Bump(context.Background(), cli.BumpOptions{
		GlobalOptions: globals(root, serializer.FormatTable, "example.com/bare"),
		Operation:     &op,
		Descriptors:   []string{nuspec},
	})
	require.NoError(t, err)
	assert.Contains(t, readFile(t, nuspec), "<version>1.1.0</version>")
	assert.Contains(t, out.String(), "skipped")
}

func TestBump_StrictDescriptor(t *testing.T) {
	root := newSolution(t)
	broken := filepath.Join(root, "Broken.nuspec")
	writeFile(t, broken, "<package><metadata><id>x</id></metadata></package>\n")
	versionFile := filepath.Join(root, "dummy", "version.go")
	op := version.Minor

	var out bytes.Buffer
	o := newOrchestrator(&out)
	err := o.Bump(context.Background(), cli.BumpOptions{
		GlobalOptions: globals(root, serializer.FormatTable, dummyModule),
		Operation:     &op,
		Descriptors:   []string{broken},
		Strict:        true,
	})
	assert.True(t, errors.IsCode(err, errors.ErrCodeStructuralNotFound), "got %v", err)
	assert.Contains(t, readFile(t, versionFile), `"1.0.0"`, "no file may be written when a rewrite fails")

	err = o.Bump(context.Background(), cli.BumpOptions{
		GlobalOptions: globals(root, serializer.FormatTable, dummyModule),
		Operation:     &op,
		Descriptors:   []string{broken},
	})
	require.NoError(t, err)
	assert.Contains(t, readFile(t, versionFile), `"1.1.0"`)
}

func TestOperationFor(t *testing.T) {
	assert.Equal(t, version.Patch, operationFor(0))
	assert.Equal(t, version.Minor, operationFor(1))
	assert.Equal(t, version.Major, operationFor(2))
}

func TestRelPath(t *testing.T) {
	base := filepath.Join(string(filepath.Separator), "work")
	assert.Equal(t, filepath.Join("a", "b.go"), relPath(base, filepath.Join(base, "a", "b.go")))
	outside := filepath.Join(string(filepath.Separator), "elsewhere", "c.go")
	assert.Equal(t, outside, relPath(base, outside))
}
