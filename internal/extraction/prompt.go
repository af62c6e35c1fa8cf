package extraction

import (
	"fmt"
	"strings"

	"github.com/praktiklabs/kurator/internal/knowledge"
)

// extractSystemPrompt instructs the model to produce the fixed JSON shape
// the parser expects. The narrative must be a paraphrase so no verbatim
// user content leaks into the curated catalog.
const extractSystemPrompt = `You are an expert at distilling coaching conversations into reusable knowledge base entries.

Given one question/answer exchange, extract a single generalized knowledge entry:
1. "topic": a short human-readable title (max 10 words).
2. "narrative": a generalized summary of the advice in 2-4 sentences. Paraphrase in your own words; never copy sentences verbatim from the exchange. Drop anything specific to this one user.
3. "keywords": 5-10 lowercase terms a future question about this topic would contain.
4. "subcategory": exactly one of the allowed values listed in the request.
5. "confidenceScore": 0.0-1.0, how generalizable and reliable this entry is.

Respond ONLY with a JSON object {"topic", "narrative", "keywords", "subcategory", "confidenceScore"}, no additional text.`

// buildUserPrompt renders the exchange and the domain's closed subcategory
// enum into the user message.
func buildUserPrompt(exchange knowledge.Exchange) string {
	subs := knowledge.SubcategoriesFor(exchange.Mode)
	return fmt.Sprintf("Domain: %s\nAllowed subcategories: %s\n\nQuestion:\n%s\n\nAnswer:\n%s",
		exchange.Mode, strings.Join(subs, ", "), exchange.Question, exchange.Response)
}
