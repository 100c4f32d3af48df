package rewrite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emenda-labs/semguard/core/version"
	"github.com/emenda-labs/semguard/pkg/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestIsDescriptor(t *testing.T) {
	assert.True(t, IsDescriptor("SemGuard.Lib.nuspec"))
	assert.True(t, IsDescriptor("Dummy.CSPROJ"))
	assert.True(t, IsDescriptor("Directory.Build.props"))
	assert.False(t, IsDescriptor("AssemblyInfo.cs"))
	assert.False(t, IsDescriptor("version.go"))
}

func TestBumpFile_Descriptor(t *testing.T) {
	path := writeFile(t, "SemGuard.Lib.nuspec", nuspecWithSchema)

	res, err := BumpFile(path, "minor")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, nuspecWithSchema, res.Before)
	assert.Equal(t, res.After, readFile(t, path))
	assert.Contains(t, res.After, "<version>3.1.0</version>")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestBumpFile_Declarations(t *testing.T) {
	path := writeFile(t, "version.go", goVersionFile)

	res, err := BumpFile(path, "major")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Contains(t, readFile(t, path), `const Version = "2.0.0"`)
}

func TestBumpFile_DryRun(t *testing.T) {
	path := writeFile(t, "AssemblyInfo.cs", assemblyInfo)

	res, err := BumpFile(path, "patch", WithDryRun())
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Contains(t, res.After, `AssemblyVersion("1.0.1.0")`)
	assert.Equal(t, assemblyInfo, readFile(t, path))
}

func TestBumpFile_Unchanged(t *testing.T) {
	path := writeFile(t, "AssemblyInfo.cs", assemblyInfo)

	res, err := BumpFile(path, "notvalid")
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, assemblyInfo, readFile(t, path))
}

func TestBumpFile_StrictKeepsOriginal(t *testing.T) {
	doc := `<package><metadata><version>1.0.*</version></metadata></package>`
	path := writeFile(t, "x.nuspec", doc)

	_, err := BumpFile(path, "patch", WithStrict())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeParseFailure))
	assert.Equal(t, doc, readFile(t, path))
}

func TestBumpFile_Missing(t *testing.T) {
	_, err := BumpFile(filepath.Join(t.TempDir(), "nope.nuspec"), "patch")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeIO))
}

func TestSetFile(t *testing.T) {
	path := writeFile(t, "AssemblyInfo.cs", assemblyInfo)

	res, err := SetFile(path, version.MustParse("1.0.1.0"))
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Contains(t, readFile(t, path), `AssemblyVersion("1.0.1.0")`)

	bare := writeFile(t, "empty.go", "package x\n")
	_, err = SetFile(bare, version.MustParse("1.0.1.0"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeStructuralNotFound))
}
