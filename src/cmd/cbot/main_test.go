package main

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestLoadCLIConfigCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "cbot-cli.toml")

	cfg := loadCLIConfig(path)
	require.Equal(t, defaultCLIConfig(), cfg)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `term_background = "auto"`)

	// The written defaults load back unchanged
	require.Equal(t, defaultCLIConfig(), loadCLIConfig(path))
}

func TestLoadCLIConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cbot-cli.toml")
	text := `term_background = "LIGHT"
timer = 0
encoding = "Latin1"
debug_categories = ["run", "save"]
`
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))

	cfg := loadCLIConfig(path)
	require.Equal(t, "light", cfg.TermBackground)
	require.Equal(t, 0, cfg.Timer)
	require.Equal(t, "latin1", cfg.Encoding)
	require.Equal(t, []string{"run", "save"}, cfg.DebugCategories)
}

func TestLoadCLIConfigIgnoresBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cbot-cli.toml")
	require.NoError(t, os.WriteFile(path, []byte("term_background = \"purple\"\ntimer = -5\n"), 0644))

	cfg := loadCLIConfig(path)
	require.Equal(t, "auto", cfg.TermBackground)
	require.Equal(t, 100, cfg.Timer)
}

func TestDecodeSource(t *testing.T) {
	s, err := decodeSource([]byte("\xef\xbb\xbfint x;"), "utf-8")
	require.NoError(t, err)
	require.Equal(t, "int x;", s)

	latin, err := charmap.ISO8859_1.NewEncoder().String(`string s = "café";`)
	require.NoError(t, err)
	s, err = decodeSource([]byte(latin), "latin1")
	require.NoError(t, err)
	require.Equal(t, `string s = "café";`, s)

	s, err = decodeSource([]byte{'a', 0, 'b', 0}, "utf-16le")
	require.NoError(t, err)
	require.Equal(t, "ab", s)

	_, err = decodeSource([]byte{0xff, 0xfe, 0xfd}, "utf-8")
	require.Error(t, err)

	_, err = decodeSource(nil, "ebcdic")
	require.Error(t, err)
}

func TestChooseEntry(t *testing.T) {
	name, err := chooseEntry("", []string{"setup", "main"})
	require.NoError(t, err)
	require.Equal(t, "main", name)

	name, err = chooseEntry("", []string{"setup", "loop"})
	require.NoError(t, err)
	require.Equal(t, "setup", name)

	name, err = chooseEntry("loop", nil)
	require.NoError(t, err)
	require.Equal(t, "loop", name)

	_, err = chooseEntry("", nil)
	require.Error(t, err)
}

func TestSaveHeader(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	require.NoError(t, writeSaveHeader(w, saveHeader{Script: "/tmp/a.txt", Encoding: "latin1"}))
	require.NoError(t, w.Flush())

	hdr, err := readSaveHeader(bufio.NewReader(&buf))
	require.NoError(t, err)
	require.Equal(t, saveHeader{Script: "/tmp/a.txt", Encoding: "latin1"}, hdr)

	_, err = readSaveHeader(bufio.NewReader(bytes.NewReader([]byte("garbage"))))
	require.Error(t, err)
}

func TestParseCategories(t *testing.T) {
	cats := parseCategories(" Run, save ,,")
	require.Len(t, cats, 2)
	require.Equal(t, "run", string(cats[0]))
	require.Equal(t, "save", string(cats[1]))
	require.Empty(t, parseCategories(""))
}

func TestRunAndResume(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "count.txt")
	src := `extern int main() {
	int total = 0;
	for (int i = 0; i < 50; i++) {
		total += i;
	}
	return total;
}
`
	require.NoError(t, os.WriteFile(script, []byte(src), 0644))
	state := filepath.Join(dir, "state.bin")

	opts := &runOptions{timer: 0, ticks: 5, save: state, encoding: "utf-8"}
	require.Equal(t, 0, runScript(t.Context(), script, opts))
	_, err := os.Stat(state)
	require.NoError(t, err)

	require.Equal(t, 0, resumeCommand(t.Context(), []string{"-timer", "1000", state}))
}
