package knowledge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// worthyResponse is long enough to clear both the response length and the
// combined word count gates.
var worthyResponse = strings.Repeat("Konsistensi posting dan hook tiga detik pertama menentukan distribusi awal video. ", 8)

func TestWorthinessFilter_Evaluate(t *testing.T) {
	filter := NewWorthinessFilter()

	tests := []struct {
		name     string
		question string
		response string
		worthy   bool
		reason   string
	}{
		{
			name:     "substantive exchange passes",
			question: "kenapa video saya tidak masuk fyp padahal sudah posting rutin",
			response: worthyResponse,
			worthy:   true,
		},
		{
			name:     "short question rejected",
			question: "kenapa ya",
			response: worthyResponse,
			reason:   ReasonQuestionTooShort,
		},
		{
			name:     "short response rejected",
			question: "kenapa video saya tidak masuk fyp",
			response: "Coba posting lebih sering.",
			reason:   ReasonResponseTooShort,
		},
		{
			name:     "thin combined content rejected",
			question: "kenapa video saya tidak masuk fyp",
			response: strings.Repeat("posting-rutin-dan-konsisten-setiap-hari ", 4),
			reason:   ReasonTooBrief,
		},
		{
			name:     "test filler rejected as spam",
			question: "test test test test test",
			response: worthyResponse,
			reason:   ReasonSpam,
		},
		{
			name:     "repeated character run rejected as spam",
			question: "haloooooo apakah ini berfungsi",
			response: worthyResponse,
			reason:   ReasonSpam,
		},
		{
			name:     "account analysis request rejected",
			question: "tolong analisa akun tiktok saya dong, kira-kira kenapa ya",
			response: worthyResponse,
			reason:   ReasonAnalysisRequest,
		},
		{
			name:     "social handle rejected as analysis request",
			question: "bisa cek profil @budi_kreator92 kenapa viewsnya turun terus",
			response: worthyResponse,
			reason:   ReasonAnalysisRequest,
		},
		{
			name:     "phone number rejected as personal data",
			question: "kenapa video saya tidak masuk fyp, hubungi saya di 0812-3456-7890",
			response: worthyResponse,
			reason:   ReasonPersonalData,
		},
		{
			name:     "email in response rejected as personal data",
			question: "kenapa video saya tidak masuk fyp padahal rutin posting",
			response: worthyResponse + " Kirim detailnya ke budi@example.com ya.",
			reason:   ReasonPersonalData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := filter.Evaluate(Exchange{
				Question: tt.question,
				Response: tt.response,
				Mode:     DomainTikTok,
			})
			assert.Equal(t, tt.worthy, verdict.Worthy)
			assert.Equal(t, tt.reason, verdict.Reason)
		})
	}
}

// Rules short-circuit in a fixed order: an exchange failing multiple gates
// reports the first one.
func TestWorthinessFilter_RuleOrder(t *testing.T) {
	filter := NewWorthinessFilter()

	// "test" is both spam and too short; length wins.
	verdict := filter.Evaluate(Exchange{Question: "test", Response: worthyResponse})
	assert.Equal(t, ReasonQuestionTooShort, verdict.Reason)

	// Spam check runs before the personal-data check.
	verdict = filter.Evaluate(Exchange{
		Question: "haloooooo hubungi saya di budi@example.com ya",
		Response: worthyResponse,
	})
	assert.Equal(t, ReasonSpam, verdict.Reason)
}

func TestWorthinessFilter_EmailIsNotHandle(t *testing.T) {
	filter := NewWorthinessFilter()

	// An email address must hit the personal-data gate, not the social
	// handle rule.
	verdict := filter.Evaluate(Exchange{
		Question: "kenapa video saya sepi, email saya anna@contoh.co.id kalau perlu",
		Response: worthyResponse,
	})
	assert.Equal(t, ReasonPersonalData, verdict.Reason)
}

func TestHasRepeatedRun(t *testing.T) {
	assert.True(t, hasRepeatedRun("wkwkwk mantaaaaap sekali", 5))
	assert.False(t, hasRepeatedRun("normal question text", 5))
	assert.False(t, hasRepeatedRun("", 5))
	// Four in a row is below the threshold of five.
	assert.False(t, hasRepeatedRun("haloooo", 5))
}

func TestIsSpam_ShortTokens(t *testing.T) {
	assert.True(t, isSpam("ya ok ga tp ya ok"))
	assert.False(t, isSpam("kenapa video saya sepi penonton"))
}
