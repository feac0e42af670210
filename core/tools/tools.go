package tools

import (
	"strings"

	"github.com/chiyokera/audio-sdk/core/conversations"
	"github.com/chiyokera/audio-sdk/core/llms"
)

// UpdateCustomerInfo builds the tool the triage agent uses to record who is
// calling and what they are calling about. Repeated calls overwrite earlier
// values.
func UpdateCustomerInfo(conversation *conversations.Context) llms.Tool {
	return llms.NewTool("update_customer_info",
		"Record the customer's name and the type of question they are calling about",
		map[string]llms.ParameterBase{
			"name":          {Type: "string", Description: "The customer's name"},
			"question_type": {Type: "string", Description: "The type of question, e.g. product information, order, error"},
		},
		func(parameters struct {
			Name         string `json:"name"`
			QuestionType string `json:"question_type"`
		}) (string, error) {
			conversation.SetCustomerName(parameters.Name)
			conversation.SetQuestionType(parameters.QuestionType)
			logger.Info("updated customer info",
				"name", parameters.Name, "question_type", parameters.QuestionType)
			return "Customer info updated.", nil
		})
}

// FAQLookup builds the tool the product information agent uses to answer
// frequently asked questions.
func FAQLookup() llms.Tool {
	return llms.NewTool("faq_lookup_tool",
		"Look up the answer to a frequently asked question",
		map[string]llms.ParameterBase{
			"question": {Type: "string", Description: "The customer's question"},
		},
		func(parameters struct {
			Question string `json:"question"`
		}) (string, error) {
			return LookupFAQ(parameters.Question), nil
		})
}

// LookupFAQ answers a question by keyword. The first matching topic wins, in
// the order baggage, seats, wifi.
func LookupFAQ(question string) string {
	switch {
	case strings.Contains(question, "bag") || strings.Contains(question, "baggage"):
		return "You are allowed to bring one bag on the plane. " +
			"It must be under 50 pounds and 22 inches x 14 inches x 9 inches."
	case strings.Contains(question, "seats") || strings.Contains(question, "plane"):
		return "There are 120 seats on the plane. " +
			"There are 22 business class seats and 98 economy seats. " +
			"Exit rows are rows 4 and 16. " +
			"Rows 5-8 are Economy Plus, with extra legroom."
	case strings.Contains(question, "wifi"):
		return "We have free wifi on the plane, join Airline-Wifi"
	}
	return "I'm sorry, I don't know the answer to that question."
}
