package marginalia

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const commentsYAML = `
comments:
  - id: c1
    author: alice
    status: approved
    anchor:
      start: 10
      end: 19
      text: brown fox
      prefix: "The quick "
      suffix: " jumps"
  - id: c2
    author: bob
`

func TestParseComments(t *testing.T) {
	comments, err := ParseComments([]byte(commentsYAML))
	require.NoError(t, err)
	require.Len(t, comments, 2)

	assert.Equal(t, Comment{
		ID:       "c1",
		AuthorID: "alice",
		Status:   StatusApproved,
		Anchor: &AnchorRecord{
			Start:         10,
			End:           19,
			Text:          "brown fox",
			PrefixContext: "The quick ",
			SuffixContext: " jumps",
		},
	}, comments[0])

	assert.Nil(t, comments[1].Anchor)
	assert.Equal(t, StatusPending, comments[1].Status)
}

func TestParseCommentsRejectsUnknownStatus(t *testing.T) {
	_, err := ParseComments([]byte("comments:\n  - id: c1\n    status: maybe\n"))
	assert.Error(t, err)
}

func TestSaveAndLoadComments(t *testing.T) {
	comments, err := ParseComments([]byte(commentsYAML))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "comments.yaml")
	require.NoError(t, SaveComments(path, comments))

	loaded, err := LoadComments(path)
	require.NoError(t, err)
	assert.Equal(t, comments, loaded)
}
