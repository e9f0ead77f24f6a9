package translator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSimplePhrase(t *testing.T) {
	testCases := []struct {
		text     string
		expected bool
	}{
		{"Connection", true},
		{"Start Index", true},
		{"Random Stream", true},
		{"Max Value", true},
		{"This is a long sentence that should not be learned.", false},
		{"Value with {0} placeholder", false},
		{`Text with\nnewline`, false},
		{"Question: What is this?", false},
		{"Description of the distance", false},
		{"Max Distance", false},
		{"Sort. Then", false},
		{"One Two Three Four", false},
		{"Get (Copy)", false},
		{"A|B", false},
		{"How Many", false},
		{"Rate for Axis", false},
		{"Tips", false},
		{"升序。", false},
	}

	for _, tc := range testCases {
		t.Run(tc.text, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsSimplePhrase(tc.text))
		})
	}
}

func TestShouldLearnLimitsTranslationLength(t *testing.T) {
	assert.True(t, shouldLearn("Connection", "连接"))
	assert.False(t, shouldLearn("Connection", strings.Repeat("长", 17)))
	assert.False(t, shouldLearn("Max Distance", "最大距离"))
}

func TestDeduplicate(t *testing.T) {
	unique, positions := Deduplicate([]Miss{
		{Index: 0, Text: "b"},
		{Index: 2, Text: "a"},
		{Index: 3, Text: "b"},
		{Index: 5, Text: "B"},
		{Index: 7, Text: "a"},
	})

	assert.Equal(t, []string{"b", "a", "B"}, unique)
	assert.Equal(t, []int{0, 3}, positions["b"])
	assert.Equal(t, []int{2, 7}, positions["a"])
	assert.Equal(t, []int{5}, positions["B"])

	unique, positions = Deduplicate(nil)
	assert.Empty(t, unique)
	assert.Empty(t, positions)
}
