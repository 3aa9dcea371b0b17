// internal/prompt/prompt.go

// Package prompt assembles the extraction instruction set sent to the LLM.
// Build is a pure function of the conversation history: identical history
// always produces identical prompt text.
package prompt

import (
	"fmt"
	"strings"

	"msme-insights/internal/models"
)

const instructionBlock = `You are an information extraction system for an MSME (Micro, Small and
Medium Enterprise) advisory chat service in India. Read the conversation
transcript below and extract the user's business attributes.

Conversations may be in English, Hindi (Devanagari script), Hinglish
(romanized Hindi mixed with English), or other Indian languages. Users often
use informal spellings, transliterations, and Indian numbering units (lakh =
100,000 rupees; crore = 10,000,000 rupees).

Extract the following fields:
- location: the city or area where the business operates, exactly as the user
  stated it (do not translate or normalize). null if never mentioned.
- industry: a short description of the business type in the user's own words.
  null if never mentioned.
- businessSize: "Micro", "Small", or "Medium" if the user explicitly
  characterized their business size (chota/chhota = Micro, madhyam = Small,
  bada = Medium). null if not stated; do NOT infer it from counts.
- annualTurnover: annual turnover in whole rupees as a number. Convert lakh
  and crore units. null if never mentioned.
- employeeCount: number of people working in the business. null if never
  mentioned.
- schemeInterests: every government scheme the user referred to, in the order
  first mentioned, with interestLevel:
  * "mentioned"  - the scheme came up in passing
  * "inquired"   - the user asked a direct question about it
  * "detailed"   - the user asked about eligibility, documents, rates, or the
                   application process
- confidence: 0.0 to 1.0. Use 0.9+ only when the user stated facts directly;
  0.5-0.8 when some interpretation was needed; below 0.5 when you are mostly
  guessing.
- extractionNotes: one short sentence on anything ambiguous.
- detectedLanguages: language tags present in the user's messages, e.g.
  ["english"], ["hindi"], ["hinglish"], in order of first appearance.

Examples:

Transcript: "1. User: I run a small kirana store in Bombay with 4 staff"
Output: {"location": "Bombay", "industry": "kirana store", "businessSize":
"Micro", "annualTurnover": null, "employeeCount": 4, "schemeInterests": [],
"confidence": 0.95, "extractionNotes": "", "detectedLanguages": ["english"]}

Transcript: "1. User: meri dilli mein kapde ki dukaan hai, turnover 80 lakh ka hai
2. User: PMEGP ke liye documents kya chahiye?"
Output: {"location": "dilli", "industry": "kapde ki dukaan", "businessSize":
null, "annualTurnover": 8000000, "employeeCount": null, "schemeInterests":
[{"schemeName": "PMEGP", "interestLevel": "detailed"}], "confidence": 0.85,
"extractionNotes": "", "detectedLanguages": ["hinglish"]}

Respond with ONLY a single JSON object matching the schema above. No prose,
no markdown fences.`

// Build concatenates the fixed instruction block with the numbered
// conversation transcript.
func Build(history []models.Message) string {
	var b strings.Builder
	b.WriteString(instructionBlock)
	b.WriteString("\n\nTranscript:\n")
	for i, msg := range history {
		role := "User"
		if msg.Role == models.MessageRoleAssistant {
			role = "Assistant"
		}
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, role, msg.Content)
	}
	return b.String()
}
