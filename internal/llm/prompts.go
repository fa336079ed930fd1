package llm

import (
	"fmt"
	"strings"
)

// merchantNormalizationPrompt is the fixed system instruction for the
// ingestion agent's model fallback.
const merchantNormalizationPrompt = `You normalize merchant names from bank transaction descriptions.

Rules:
- Remove store numbers, locations, payment prefixes (TST*, SQ*)
- Remove .COM, .NET suffixes
- Use Title Case
- Keep the brand recognizable

Examples:
"STARBUCKS #12345" -> "Starbucks"
"AMZN MKTPLACE" -> "Amazon"
"TST* COFFEE SHOP" -> "Coffee Shop"

Respond with ONLY a valid JSON object of the form {"normalized_merchant": "..."}. Do not include any explanatory text, markdown formatting, or commentary. Start your response directly with { and end with }.`

// classificationPrompt builds the system instruction listing the live
// category names for the classification agent's model fallback.
func classificationPrompt(categories []string) string {
	return fmt.Sprintf(`You categorize bank transactions into exactly one of: %s

Rules:
- Match the merchant to the most appropriate category
- Detect subscriptions (recurring monthly charges)
- Add 1-3 simple tags
- Use "Other" if uncertain

Respond with ONLY a valid JSON object of the form {"category_name": "...", "is_subscription": false, "tags": ["..."]}. Do not include any explanatory text, markdown formatting, or commentary. Start your response directly with { and end with }.`,
		strings.Join(categories, ", "))
}

// classifyUserContent summarizes the transaction for the user message.
func classifyUserContent(req ClassifyRequest) string {
	return fmt.Sprintf("Merchant: %s\nAmount: $%s\nDate: %s", req.Merchant, req.Amount, req.Date)
}
