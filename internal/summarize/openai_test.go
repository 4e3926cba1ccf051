package summarize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSections(t *testing.T) {
	t.Run("strict json", func(t *testing.T) {
		got := parseSections(`{"pros":["clear lectures","fair exams"],"cons":["slow grading"],"neutral":[]}`)
		assert.Equal(t, []string{"clear lectures", "fair exams"}, got.Pros)
		assert.Equal(t, []string{"slow grading"}, got.Cons)
		assert.Empty(t, got.Neutral)
	})

	t.Run("bare string values are coerced to single bullets", func(t *testing.T) {
		got := parseSections(`{"pros":"engaging","cons":[],"neutral":[42," attendance matters "]}`)
		assert.Equal(t, []string{"engaging"}, got.Pros)
		assert.Empty(t, got.Cons)
		assert.Equal(t, []string{"attendance matters"}, got.Neutral)
	})

	t.Run("prose falls back to heading parse", func(t *testing.T) {
		got := parseSections("Pros:\n- clear lectures\n- approachable\n\nCons:\n• heavy workload\n\nNeutral:\nattendance matters")
		assert.Equal(t, []string{"clear lectures", "approachable"}, got.Pros)
		assert.Equal(t, []string{"heavy workload"}, got.Cons)
		assert.Equal(t, []string{"attendance matters"}, got.Neutral)
	})

	t.Run("text before any heading is dropped", func(t *testing.T) {
		got := parseSections("Here is the summary.\nPros:\n- good")
		assert.Equal(t, []string{"good"}, got.Pros)
	})
}
