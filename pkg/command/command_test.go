package command

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_Command(t *testing.T) {
	tbl := Table{Dir: "/srv/bench"}
	cases := []struct {
		bench  string
		lang   Language
		params string
		want   string
	}{
		{"binary-trees", C, "21", "cd /srv/bench/binary-trees && gcc -O3 -o binary_trees binary_trees.c && ./binary_trees 21"},
		{"n-body", Python, "50000000", "cd /srv/bench/n-body && python3 n_body.py 50000000"},
		{"mandelbrot", JavaScript, "", "cd /srv/bench/mandelbrot && node mandelbrot.js"},
		{"spectral-norm", Java, "5500", "cd /srv/bench/spectral-norm && javac SpectralNorm.java && java SpectralNorm 5500"},
		{"regex-redux", Rust, "  ", "cd /srv/bench/regex-redux && rustc -O regex_redux.rs && ./regex_redux"},
	}
	for _, tc := range cases {
		t.Run(tc.bench+"_"+string(tc.lang), func(t *testing.T) {
			got, err := tbl.Command(tc.bench, tc.lang, tc.params)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTable_CommandErrors(t *testing.T) {
	tbl := Table{}
	_, err := tbl.Command("fannkuch", C, "")
	assert.ErrorIs(t, err, ErrUnknownBenchmark)

	_, err = tbl.Command("n-body", Language("cobol"), "")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestTable_DefaultAndQuotedDir(t *testing.T) {
	got, err := Table{}.Command("n-body", Python, "")
	require.NoError(t, err)
	assert.Equal(t, "cd /home/ubuntu/benchmarks/n-body && python3 n_body.py", got)

	got, err = Table{Dir: "/data/my bench's"}.Command("n-body", Python, "")
	require.NoError(t, err)
	assert.Equal(t, `cd '/data/my bench'\''s/n-body' && python3 n_body.py`, got)
}

func TestClassName(t *testing.T) {
	assert.Equal(t, "NBody", ClassName("n-body"))
	assert.Equal(t, "BinaryTrees", ClassName("binary-trees"))
	assert.Equal(t, "RegexRedux", ClassName("regex-redux"))
	assert.Equal(t, "Mandelbrot", ClassName("mandelbrot"))
}

func TestTable_Exists(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "n-body"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "n-body", "NBody.java"), nil, 0o644))

	tbl := Table{Dir: dir}
	assert.True(t, tbl.Exists("n-body", Java))
	assert.False(t, tbl.Exists("n-body", C))
	assert.False(t, tbl.Exists("nope", Java))
}

func TestParseLanguage(t *testing.T) {
	l, err := ParseLanguage(" Rust ")
	require.NoError(t, err)
	assert.Equal(t, Rust, l)

	_, err = ParseLanguage("go")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}
