package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher_BestMatch(t *testing.T) {
	matcher := NewMatcher()

	record := &Record{
		ID:       "r1",
		Topic:    "Kekuatan Hook",
		Keywords: []string{"hook", "tiga detik", "pembuka"},
	}

	t.Run("exact keyword match scores once", func(t *testing.T) {
		// Four tokens, one exact keyword hit. The token also appears in the
		// topic, but it earns only the keyword score: 2 / 4 = 0.5.
		best, score := matcher.BestMatch("cara bikin hook menarik", []*Record{record})
		require.NotNil(t, best)
		assert.Equal(t, "r1", best.ID)
		assert.InDelta(t, 0.5, score, 1e-9)
	})

	t.Run("partial keyword match", func(t *testing.T) {
		rec := &Record{
			ID:       "r2",
			Topic:    "Waktu Unggah",
			Keywords: []string{"posting"},
		}
		// "post" partially matches "posting": 1 / 2 = 0.5.
		best, score := matcher.BestMatch("jadwal post", []*Record{rec})
		require.NotNil(t, best)
		assert.InDelta(t, 0.5, score, 1e-9)
	})

	t.Run("topic word match without keyword overlap", func(t *testing.T) {
		rec := &Record{
			ID:       "r3",
			Topic:    "Konsistensi Posting",
			Keywords: []string{"jadwal"},
		}
		// "konsistensi" hits a topic word among four tokens: 1.5 / 4 > 0.3.
		best, score := matcher.BestMatch("apakah konsistensi itu penting", []*Record{rec})
		require.NotNil(t, best)
		assert.InDelta(t, 0.375, score, 1e-9)
	})

	t.Run("no overlap returns nothing", func(t *testing.T) {
		best, _ := matcher.BestMatch("bagaimana mengatur pencahayaan studio", []*Record{record})
		assert.Nil(t, best)
	})

	t.Run("empty question returns nothing", func(t *testing.T) {
		best, _ := matcher.BestMatch("", []*Record{record})
		assert.Nil(t, best)

		// Stop-word-sized tokens are dropped before scoring.
		best, _ = matcher.BestMatch("ya ok", []*Record{record})
		assert.Nil(t, best)
	})
}

// The acceptance threshold is exclusive: a normalized score of exactly 0.3
// is not a match.
func TestMatcher_ThresholdExclusive(t *testing.T) {
	matcher := NewMatcher()

	rec := &Record{
		ID:       "r1",
		Topic:    "Konsistensi Posting",
		Keywords: []string{"jadwal"},
	}

	// Five tokens, one topic word hit: 1.5 / 5 = 0.3 exactly.
	best, score := matcher.BestMatch("apakah konsistensi membantu akun berkembang", []*Record{rec})
	assert.Nil(t, best)
	assert.Zero(t, score)

	// One more overlapping token pushes it over.
	rec.Keywords = []string{"jadwal", "akun"}
	best, _ = matcher.BestMatch("apakah konsistensi membantu akun berkembang", []*Record{rec})
	require.NotNil(t, best)
}

// Equal scores keep the earliest candidate in the slice, so the caller's
// ordering decides ties.
func TestMatcher_TieKeepsFirst(t *testing.T) {
	matcher := NewMatcher()

	older := &Record{ID: "older", Topic: "Hook Pembuka", Keywords: []string{"hook"}}
	newer := &Record{ID: "newer", Topic: "Hook Penutup", Keywords: []string{"hook"}}

	best, _ := matcher.BestMatch("contoh hook yang bagus", []*Record{older, newer})
	require.NotNil(t, best)
	assert.Equal(t, "older", best.ID)
}

func TestMatcher_PrefersHigherScore(t *testing.T) {
	matcher := NewMatcher()

	weak := &Record{ID: "weak", Topic: "Umum", Keywords: []string{"video"}}
	strong := &Record{ID: "strong", Topic: "Algoritma FYP", Keywords: []string{"fyp", "video", "algoritma"}}

	best, _ := matcher.BestMatch("kenapa video saya tidak masuk fyp", []*Record{weak, strong})
	require.NotNil(t, best)
	assert.Equal(t, "strong", best.ID)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t,
		[]string{"kenapa", "video", "saya", "fyp"},
		Tokenize("Kenapa video saya di FYP?!"))

	// Punctuation splits, short tokens drop.
	assert.Equal(t, []string{"hook", "detik"}, Tokenize("hook: 3 detik!"))
	assert.Empty(t, Tokenize("a b c"))
}
