package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vectorSource = `package geometry

//structarray:derive
type Vector struct {
	X, Y, Z float64
}
`

const mixedSource = `package bad

//structarray:derive
type Mixed struct {
	A int
	B string
}
`

func TestGenerate_WritesFile(t *testing.T) {
	dir := writePackage(t, t.TempDir(), map[string]string{"vector.go": vectorSource})

	stdout, stderr, err := execute(t, "generate", dir)
	require.NoError(t, err, stderr)
	assert.Contains(t, stdout, "✓ Generated 1 file")

	content, err := os.ReadFile(filepath.Join(dir, "geometry_structarray.go"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "func (v *Vector) AsArray() [3]*float64")
	assert.Contains(t, string(content), "func (v Vector) ToArray() [3]float64")

	stdout, _, err = execute(t, "generate", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Generated 0 files, 1 unchanged")
}

func TestGenerate_Recursive(t *testing.T) {
	root := t.TempDir()
	writePackage(t, filepath.Join(root, "a"), map[string]string{"vector.go": vectorSource})
	writePackage(t, filepath.Join(root, "b"), map[string]string{"vector.go": vectorSource})

	stdout, _, err := execute(t, "generate", root+"/...")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Generated 2 files")
	assert.FileExists(t, filepath.Join(root, "a", "geometry_structarray.go"))
	assert.FileExists(t, filepath.Join(root, "b", "geometry_structarray.go"))
}

func TestGenerate_Failure(t *testing.T) {
	dir := writePackage(t, t.TempDir(), map[string]string{"bad.go": mixedSource})

	_, stderr, err := execute(t, "generate", dir)
	require.Error(t, err)

	var rep *reportedError
	assert.ErrorAs(t, err, &rep)
	assert.Contains(t, stderr, "error[E003]: fields in struct Mixed do not all have the same type")
	assert.Contains(t, stderr, "GENERATION FAILED")
	assert.NoFileExists(t, filepath.Join(dir, "bad_structarray.go"))
}

func TestGenerate_JSON(t *testing.T) {
	dir := writePackage(t, t.TempDir(), map[string]string{"bad.go": mixedSource})

	stdout, stderr, err := execute(t, "generate", "--json", dir)
	require.Error(t, err)
	assert.Empty(t, stderr)

	var doc struct {
		Status string `json:"status"`
		Errors []struct {
			Code   string `json:"code"`
			Record string `json:"record"`
		} `json:"errors"`
		Summary struct {
			ErrorCount int `json:"error_count"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	assert.Equal(t, "error", doc.Status)
	require.Len(t, doc.Errors, 1)
	assert.Equal(t, "E003", doc.Errors[0].Code)
	assert.Equal(t, "Mixed", doc.Errors[0].Record)
	assert.Equal(t, 1, doc.Summary.ErrorCount)
}

func TestGenerate_Flags(t *testing.T) {
	dir := writePackage(t, t.TempDir(), map[string]string{
		"plain.go": "package plain\n\ntype P struct{ A, B int }\n",
	})

	_, stderr, err := execute(t, "generate", "--type", "P", "--no-to-array", "-o", "arrays_gen.go", "--build-tags", "!purego", dir)
	require.NoError(t, err, stderr)

	content, err := os.ReadFile(filepath.Join(dir, "arrays_gen.go"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "//go:build !purego")
	assert.Contains(t, string(content), "func (p *P) AsArray() [2]*int")
	assert.NotContains(t, string(content), "ToArray")
}

func TestGenerate_Verbose(t *testing.T) {
	dir := writePackage(t, t.TempDir(), map[string]string{"vector.go": vectorSource})

	stdout, _, err := execute(t, "generate", "-v", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Package")
	assert.Contains(t, stdout, "written")
	assert.Contains(t, stdout, "Vector")
}

func TestGenerate_ConfigFile(t *testing.T) {
	dir := writePackage(t, t.TempDir(), map[string]string{"vector.go": vectorSource})
	cfgPath := filepath.Join(t.TempDir(), "structarray.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("as_array_method: Refs\nto_array: false\n"), 0644))

	_, stderr, err := execute(t, "generate", "--config", cfgPath, dir)
	require.NoError(t, err, stderr)

	content, err := os.ReadFile(filepath.Join(dir, "geometry_structarray.go"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "func (v *Vector) Refs() [3]*float64")
	assert.NotContains(t, string(content), "ToArray")
}

func TestGenerate_InvalidConfig(t *testing.T) {
	dir := writePackage(t, t.TempDir(), map[string]string{"vector.go": vectorSource})
	cfgPath := filepath.Join(t.TempDir(), "structarray.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("max_jobs: 0\n"), 0644))

	_, stderr, err := execute(t, "generate", "--config", cfgPath, dir)
	require.Error(t, err)
	assert.Contains(t, stderr, "CONFIGURATION ERROR")
	assert.Contains(t, stderr, "max_jobs")
}

func TestGenerate_InvalidBuildTags(t *testing.T) {
	dir := writePackage(t, t.TempDir(), map[string]string{"vector.go": vectorSource})

	_, stderr, err := execute(t, "generate", "--build-tags", "linux darwin", dir)
	require.Error(t, err)
	assert.Contains(t, stderr, "CONFIGURATION ERROR")
	assert.Contains(t, stderr, "not a valid //go:build expression")
	assert.NoFileExists(t, filepath.Join(dir, "geometry_structarray.go"))
}

func TestGenerate_RemovesOutputWithoutRecords(t *testing.T) {
	dir := writePackage(t, t.TempDir(), map[string]string{"vector.go": vectorSource})
	_, _, err := execute(t, "generate", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "vector.go"), []byte("package geometry\n\ntype Vector struct{ X, Y float64 }\n"), 0644))

	_, stderr, err := execute(t, "check", dir)
	require.Error(t, err)
	assert.Contains(t, stderr, "E022")
	assert.Contains(t, stderr, "is left over")

	stdout, stderr, err := execute(t, "generate", dir)
	require.NoError(t, err, stderr)
	assert.Contains(t, stdout, "Generated 0 files, 1 removed")
	assert.Contains(t, stderr, "no types marked //structarray:derive in 1 package")
	assert.NoFileExists(t, filepath.Join(dir, "geometry_structarray.go"))
}

func TestGenerate_FlagOverridesConfig(t *testing.T) {
	dir := writePackage(t, t.TempDir(), map[string]string{"vector.go": vectorSource})
	cfgPath := filepath.Join(t.TempDir(), "structarray.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("to_array: true\noutput: from_config.go\n"), 0644))

	_, _, err := execute(t, "generate", "--config", cfgPath, "-o", "from_flag.go", dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "from_flag.go"))
	assert.NoFileExists(t, filepath.Join(dir, "from_config.go"))
}

func TestCheck(t *testing.T) {
	dir := writePackage(t, t.TempDir(), map[string]string{"vector.go": vectorSource})

	_, stderr, err := execute(t, "check", dir)
	require.Error(t, err)
	assert.Contains(t, stderr, "error[E022]")
	assert.Contains(t, stderr, "CHECK FAILED")
	assert.NoFileExists(t, filepath.Join(dir, "geometry_structarray.go"))

	_, _, err = execute(t, "generate", dir)
	require.NoError(t, err)

	stdout, _, err := execute(t, "check", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 generated file up to date")
}

func TestCheck_InvalidStruct(t *testing.T) {
	dir := writePackage(t, t.TempDir(), map[string]string{"bad.go": mixedSource})

	_, stderr, err := execute(t, "check", dir)
	require.Error(t, err)
	assert.Contains(t, stderr, "error[E003]")
	assert.Contains(t, stderr, "GENERATION FAILED")
}

func TestIgnoredPatterns(t *testing.T) {
	assert.Equal(t, []string{"*_structarray.go", "*.swp", "*~"}, ignoredPatterns(""))
	assert.Contains(t, ignoredPatterns("arrays_gen.go"), "arrays_gen.go")
}
