package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPagesBasic(t *testing.T) {
	pages := SplitPages("Hello world\r\nGoodbye", 80, 1000)
	assert.Len(t, pages, 2)
	assert.Equal(t, "Hello world...", pages[0].Text)
	assert.Equal(t, 1000, pages[0].DurationMillis) // 11 chars * 80ms = 880, clamped to min 1000
	assert.Equal(t, "..Goodbye", pages[1].Text)
	assert.Negative(t, pages[1].DurationMillis) // final page: negative sentinel
}

func TestSplitPagesMidWordContinuation(t *testing.T) {
	pages := SplitPages("a longer line without\r\nend punctuation", 80, 1000)
	assert.Len(t, pages, 2)
	assert.Contains(t, pages[0].Text, "...")
}

func TestSplitPagesEmptyTextUsesMinimum(t *testing.T) {
	pages := SplitPages("", 80, 1000)
	require.Len(t, pages, 1)
	assert.Equal(t, "", pages[0].Text)
	assert.Equal(t, -1000, pages[0].DurationMillis)
}

func TestParseTimestampsSkipsZerosAndSeparators(t *testing.T) {
	got := ParseTimestamps("100,0\n200\r300,,0")
	assert.Equal(t, []int{100, 200, 300}, got)
}
