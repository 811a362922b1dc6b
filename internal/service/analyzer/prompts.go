package analyzer

import "strings"

const aiDetectionFormat = `{
  "aiScore": <0-100, likelihood the text was produced by a language model>,
  "isAiGenerated": <true|false>,
  "confidence": <0-100>,
  "indicators": ["<short observation>", "..."],
  "details": "<two or three sentences>"
}`

const webMatchFormat = `{
  "webMatchScore": <0-100, share of the text likely copied from public web sources>,
  "matches": [
    {
      "matchedText": "<passage from the material>",
      "sourceUrl": "<url of the likely source>",
      "sourceTitle": "<title of the source>",
      "matchPercentage": <0-100>,
      "matchType": "exact|paraphrase|similar"
    }
  ]
}`

func aiDetectionPrompt(text string) string {
	var b strings.Builder
	b.WriteString("You are an academic integrity reviewer. Estimate how likely it is that the material below was written by an AI language model.\n")
	b.WriteString("Look for uniform sentence rhythm, generic phrasing, missing personal perspective, repetitive transitions and unnaturally balanced structure.\n\n")
	b.WriteString("Respond with a single JSON object and nothing else, in this shape:\n")
	b.WriteString(aiDetectionFormat)
	b.WriteString("\n")
	writeMaterial(&b, text)
	return b.String()
}

func webMatchPrompt(text string) string {
	var b strings.Builder
	b.WriteString("You are an academic integrity reviewer. Identify passages of the material below that are likely copied or closely paraphrased from publicly available web sources ")
	b.WriteString("such as encyclopedias, textbooks, news sites and educational portals.\n")
	b.WriteString("Report at most ten matches. If nothing matches, return an empty matches list and a webMatchScore of 0.\n\n")
	b.WriteString("Respond with a single JSON object and nothing else, in this shape:\n")
	b.WriteString(webMatchFormat)
	b.WriteString("\n")
	writeMaterial(&b, text)
	return b.String()
}

func writeMaterial(b *strings.Builder, text string) {
	if text == "" {
		b.WriteString("\nThe material is the attached document.\n")
		return
	}
	b.WriteString("\nMATERIAL:\n")
	b.WriteString(text)
}
