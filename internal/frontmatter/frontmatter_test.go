package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: My Paper\n---\n# Intro\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: My Paper\n"), fm)
	require.Equal(t, []byte("# Intro\n"), body)
}

func TestSplit_EmptyFrontmatter(t *testing.T) {
	input := []byte("---\n---\nbody\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, fm)
	require.Equal(t, []byte("body\n"), body)
}

func TestSplit_MissingClose(t *testing.T) {
	_, _, _, err := Split([]byte("---\ntitle: x\nno close"))
	require.ErrorIs(t, err, ErrMissingClosingDelimiter)
}

func TestSplit_CloseAtEndOfInput(t *testing.T) {
	fm, body, had, err := Split([]byte("---\ntitle: My Paper\n---"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: My Paper\n"), fm)
	require.Empty(t, body)
}

func TestSplit_EmptyFrontmatterAtEndOfInput(t *testing.T) {
	fm, body, had, err := Split([]byte("---\n---"))
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, fm)
	require.Empty(t, body)
}

func TestParse(t *testing.T) {
	var meta struct {
		Title  string `yaml:"title"`
		Author string `yaml:"author"`
	}
	require.NoError(t, Parse([]byte("title: T\nauthor: A\n"), &meta))
	require.Equal(t, "T", meta.Title)
	require.Equal(t, "A", meta.Author)

	require.NoError(t, Parse(nil, &meta))
}
