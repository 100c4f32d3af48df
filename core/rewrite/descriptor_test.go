package rewrite

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emenda-labs/semguard/pkg/errors"
)

const nuspecWithSchema = `<?xml version="1.0" encoding="utf-8"?>
<package xmlns="http://schemas.microsoft.com/packaging/2011/08/nuspec.xsd">
  <metadata>
    <!-- bumped by the release job -->
    <id>SemGuard.Lib</id>
    <version>3.0.0</version>
    <authors>SemGuard</authors>
    <dependencies>
      <dependency id="SemVer" version="1.2.0" />
    </dependencies>
  </metadata>
  <files>
    <file src="bin\Release\SemGuard.Lib.dll" target="lib\net45" />
  </files>
</package>
`

const nuspecPlain = `<?xml version="1.0"?>
<package>
	<metadata>
		<id>Dummy</id>
		<version>
			1.3.3.7
		</version>
	</metadata>
</package>
`

func TestBumpDescriptorContents_Minor(t *testing.T) {
	got, err := BumpDescriptorContents(nuspecWithSchema, "minor")
	require.NoError(t, err)

	assert.Contains(t, got, "<version>3.1.0</version>")
	assert.NotContains(t, got, "3.1.0.0")
	assert.Equal(t, strings.Replace(nuspecWithSchema, "3.0.0", "3.1.0", 1), got)
}

func TestBumpDescriptorContents_MajorFourSegments(t *testing.T) {
	got, err := BumpDescriptorContents(nuspecPlain, "major")
	require.NoError(t, err)

	assert.Contains(t, got, "2.0.0.0")
	assert.Equal(t, strings.Replace(nuspecPlain, "1.3.3.7", "2.0.0.0", 1), got)
}

func TestBumpDescriptorContents_LeavesAttributesAlone(t *testing.T) {
	got, err := BumpDescriptorContents(nuspecWithSchema, "major")
	require.NoError(t, err)
	assert.Contains(t, got, `version="1.0"`)
	assert.Contains(t, got, `version="1.2.0"`)
	assert.Contains(t, got, "<!-- bumped by the release job -->")
	assert.Contains(t, got, "<version>4.0.0</version>")
}

func TestBumpDescriptorContents_PrefersMetadataVersion(t *testing.T) {
	doc := `<package>
  <extra><version>9.9.9</version></extra>
  <metadata><version>1.0.0</version></metadata>
</package>`

	got, err := BumpDescriptorContents(doc, "patch")
	require.NoError(t, err)
	assert.Contains(t, got, "<extra><version>9.9.9</version></extra>")
	assert.Contains(t, got, "<metadata><version>1.0.1</version></metadata>")
}

func TestBumpDescriptorContents_FallsBackToFirstVersion(t *testing.T) {
	doc := `<Project><PropertyGroup><version>0.1.0</version></PropertyGroup><version>5.0.0</version></Project>`

	got, err := BumpDescriptorContents(doc, "minor")
	require.NoError(t, err)
	assert.Equal(t, `<Project><PropertyGroup><version>0.2.0</version></PropertyGroup><version>5.0.0</version></Project>`, got)
}

func TestBumpDescriptorContents_Prefixed(t *testing.T) {
	doc := `<n:package xmlns:n="urn:x"><n:metadata><n:version>1.0.0</n:version></n:metadata></n:package>`

	got, err := BumpDescriptorContents(doc, "major")
	require.NoError(t, err)
	assert.Contains(t, got, "<n:version>2.0.0</n:version>")
}

func TestBumpDescriptorContents_Lenient(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no version element", `<package><metadata><id>x</id></metadata></package>`},
		{"wildcard version", `<package><metadata><version>1.0.*</version></metadata></package>`},
		{"empty version", `<package><metadata><version/></metadata></package>`},
		{"nested markup", `<package><metadata><version><b>1.0.0</b></version></metadata></package>`},
		{"malformed", `<package><metadata><version>1.0.0</version></package>`},
		{"segment at maximum", `<package><metadata><version>1.0.4294967295</version></metadata></package>`},
		{"unknown encoding", `<?xml version="1.0" encoding="x-no-such-charset"?><package><metadata><version>1.0.0</version></metadata></package>`},
		{"utf-16 declared", `<?xml version="1.0" encoding="utf-16"?><package><metadata><version>1.0.0</version></metadata></package>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BumpDescriptorContents(tt.doc, "patch")
			require.NoError(t, err)
			assert.Equal(t, tt.doc, got)
		})
	}
}

func TestBumpDescriptorContents_Strict(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code errors.ErrorCode
	}{
		{"no version element", `<package><metadata><id>x</id></metadata></package>`, errors.ErrCodeStructuralNotFound},
		{"wildcard version", `<package><metadata><version>1.0.*</version></metadata></package>`, errors.ErrCodeParseFailure},
		{"malformed", `<package><metadata>`, errors.ErrCodeParseFailure},
		{"segment at maximum", `<package><metadata><version>1.0.4294967295</version></metadata></package>`, errors.ErrCodeParseFailure},
		{"unknown encoding", `<?xml version="1.0" encoding="x-no-such-charset"?><package/>`, errors.ErrCodeParseFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BumpDescriptorContents(tt.doc, "patch", WithStrict())
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.code), "got %v", err)
			assert.Equal(t, tt.doc, got)
		})
	}
}

func TestBumpDescriptorContents_InvalidOperator(t *testing.T) {
	got, err := BumpDescriptorContents(nuspecWithSchema, "notvalid", WithStrict())
	require.NoError(t, err)
	assert.Equal(t, nuspecWithSchema, got)
}

func TestBumpDescriptorContents_DeclaredEncoding(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"windows-1252", "<?xml version=\"1.0\" encoding=\"windows-1252\"?>\n<package>\n  <metadata>\n    <description>Caf\xe9 \xabcr\xe8me\xbb</description>\n    <version>1.2.3</version>\n  </metadata>\n</package>\n"},
		{"iso-8859-1", "<?xml version='1.0' encoding='ISO-8859-1'?><package><metadata><title>\xc5ngstr\xf6m</title><version>1.2.3</version></metadata></package>"},
		{"us-ascii", `<?xml version="1.0" encoding="us-ascii"?><package><metadata><version>1.2.3</version></metadata></package>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BumpDescriptorContents(tt.doc, "minor", WithStrict())
			require.NoError(t, err)
			assert.Equal(t, strings.Replace(tt.doc, "1.2.3", "1.3.0", 1), got)
		})
	}
}
