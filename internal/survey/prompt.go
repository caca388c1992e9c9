package survey

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"showroom-workers/internal/models"
)

// QuestionPrompt asks the LLM for count multiple-choice questions as JSON.
func QuestionPrompt(category string, count int) string {
	return fmt.Sprintf(`Generate %d multiple choice questions for the category: "%s". The response must be a valid JSON object containing a single key "questions". This key should hold an array of question objects. Each object must have three keys: "text" (the question string), "type" (the string "multiple-choice"), and "options" (an array of 4 unique string options). Do not include any text outside of the JSON object.`, count, category)
}

// answerIndexes returns the numeric answer keys in ascending order. Keys that
// are not integers are ignored.
func answerIndexes(answers models.SurveyAnswers) []int {
	idx := make([]int, 0, len(answers))
	for key := range answers {
		n, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		idx = append(idx, n)
	}
	sort.Ints(idx)
	return idx
}

// ValidateAnswers checks every answer key points at an existing question.
func ValidateAnswers(questions []models.MCQ, answers models.SurveyAnswers) error {
	for key := range answers {
		n, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("answer key %q is not a question index", key)
		}
		if n < 0 || n >= len(questions) {
			return fmt.Errorf("answer key %d out of range (%d questions)", n, len(questions))
		}
	}
	return nil
}

// OpeningMessage is the first user message of the chat created for a saved survey.
func OpeningMessage(category string, questions []models.MCQ, answers models.SurveyAnswers) string {
	lines := make([]string, 0, len(answers))
	for _, i := range answerIndexes(answers) {
		if i < 0 || i >= len(questions) {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", questions[i].Question, answers[strconv.Itoa(i)]))
	}
	return fmt.Sprintf("Based on my survey responses for the \"%s\" category, here are my answers:\n\n%s\n\nPlease provide recommendations based on this.",
		category, strings.Join(lines, "\n"))
}

// BuildPrompt turns a stored survey into the chat prompt: the answered
// questions followed by instructions chosen from the category.
func BuildPrompt(s models.SurveyResponse) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Here are my responses to the %s survey:\n\n", s.Category)

	for i, q := range s.Questions {
		if answer := s.Answers[strconv.Itoa(i)]; answer != "" {
			fmt.Fprintf(&sb, "- **%s**\n  - My Answer: %s\n", q.Question, answer)
		}
	}

	sb.WriteString("\n")
	sb.WriteString(categoryInstructions(s.Category))
	return sb.String()
}

func categoryInstructions(category string) string {
	c := strings.ToLower(category)
	switch {
	case strings.Contains(c, "recommendation") || strings.Contains(c, "car"):
		return "Based on my responses, please recommend 5 specific Toyota models that would be the best fit for me. " +
			"For each recommendation, include:\n" +
			"1. Model name and variant\n" +
			"2. Key features that match my preferences\n" +
			"3. Price range and any available financing options\n" +
			"4. Why this model is a good fit for my needs\n" +
			"5. A link to book a test drive\n\n" +
			"Please format the recommendations in a clear, easy-to-read list with proper spacing between each model."
	case strings.Contains(c, "maintenance"):
		return "Based on my vehicle and usage, please provide a detailed maintenance plan that includes:\n" +
			"1. Recommended service schedule (what needs to be done and when)\n" +
			"2. Estimated costs for each service\n" +
			"3. Warning signs to watch out for between services\n" +
			"4. DIY maintenance tips I can do at home\n" +
			"5. When to visit an authorized service center vs. a local mechanic\n\n" +
			"Please organize this information in a clear, structured format with sections for each type of maintenance."
	case strings.Contains(c, "parts") || strings.Contains(c, "accessories"):
		return "Based on my vehicle and needs, please recommend relevant parts and accessories including:\n" +
			"1. Essential maintenance parts I should consider\n" +
			"2. Recommended upgrades or accessories that would enhance my driving experience\n" +
			"3. Genuine Toyota parts vs. aftermarket options with pros and cons\n" +
			"4. Estimated costs and where to purchase them\n" +
			"5. Installation difficulty level for each recommended item\n\n" +
			"Please organize this information in a clear, structured format."
	case strings.Contains(c, "resale") || strings.Contains(c, "value"):
		return "Based on my vehicle and its condition, please provide detailed resale information including:\n" +
			"1. Current market value estimate\n" +
			"2. Factors affecting my vehicle's resale value\n" +
			"3. Recommended improvements to increase resale value\n" +
			"4. Best time to sell\n" +
			"5. Trade-in vs. private sale comparison\n\n" +
			"Please include specific, actionable advice to help me maximize my vehicle's resale value."
	default:
		return "Based on my responses, please provide detailed insights, recommendations, and next steps. " +
			"Please be specific and include any relevant details that would be helpful for my situation."
	}
}
