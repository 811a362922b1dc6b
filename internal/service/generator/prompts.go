package generator

import (
	"fmt"
	"strings"
)

const (
	QuestionTarget         = 70
	MultipleChoiceTarget   = 45
	TrueFalseTarget        = 15
	MultiSelectTarget      = 10
	questionFormatTemplate = `Question 1: <question text>
Type: multiple-choice
A) <option>
B) <option>
C) <option>
D) <option>
Correct Answer: <letter>
Explanation: <one or two sentences>
Difficulty: easy|medium|hard`
)

func summaryPrompt(text string) string {
	var b strings.Builder
	b.WriteString("You are an experienced university teaching assistant. Summarize the study material below for students preparing for an exam.\n\n")
	b.WriteString("Format the summary in Markdown with these sections:\n")
	b.WriteString("## Overview: two or three sentences on what the material covers.\n")
	b.WriteString("## Key Concepts: bullet points, each concept in bold followed by a short definition.\n")
	b.WriteString("## Detailed Notes: the main arguments, processes and examples in logical order.\n")
	b.WriteString("## Important Terms: a glossary of technical terms.\n")
	b.WriteString("## Review Points: five to eight bullet points a student should remember.\n\n")
	b.WriteString("Use only information present in the material. Keep the language of the original.\n")
	if text == "" {
		b.WriteString("\nThe material is the attached document.\n")
		return b.String()
	}
	b.WriteString("\nMATERIAL:\n")
	b.WriteString(text)
	return b.String()
}

func questionsPrompt(text string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create exactly %d exam questions from the study material below:\n", QuestionTarget)
	fmt.Fprintf(&b, "- %d multiple-choice questions with four options (A-D) and exactly one correct answer\n", MultipleChoiceTarget)
	fmt.Fprintf(&b, "- %d true/false questions with options A) True and B) False\n", TrueFalseTarget)
	fmt.Fprintf(&b, "- %d multi-select questions with four options (A-D) and two or three correct answers\n\n", MultiSelectTarget)

	b.WriteString("ANSWER DISTRIBUTION: spread the correct answers evenly. Across the four-option questions each letter A, B, C and D ")
	b.WriteString("should be correct in roughly 25% of questions. Across the true/false questions about half should be True and half False. ")
	b.WriteString("Do not favour any position and do not follow a repeating pattern.\n\n")

	b.WriteString("Mix difficulties (easy, medium, hard) and cover the whole material, not only the beginning.\n")
	b.WriteString("Use this exact plain-text format for every question, numbering them consecutively. ")
	b.WriteString("For multi-select questions write \"Type: multi-select\" and \"Correct Answers: A, C\"; for true/false write \"Type: true-false\".\n\n")
	b.WriteString(questionFormatTemplate)
	b.WriteString("\n\nDo not add any text before the first question or after the last one.\n")

	if text == "" {
		b.WriteString("\nThe material is the attached document.\n")
		return b.String()
	}
	b.WriteString("\nMATERIAL:\n")
	b.WriteString(text)
	return b.String()
}
