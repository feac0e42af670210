package conversations

import "fmt"

// Context carries the customer facts collected during a single call. It is
// shared by every agent and tool in the conversation.
//
// Writes happen only from the goroutine driving the conversation loop, turns
// are strictly sequential, so no locking is needed.
type Context struct {
	customerName string
	questionType string
	flightNumber string
}

func NewContext() *Context {
	return &Context{}
}

// CustomerName returns the customer's name, empty until collected.
func (c *Context) CustomerName() string {
	return c.customerName
}

func (c *Context) SetCustomerName(name string) {
	c.customerName = name
}

// QuestionType returns the customer's stated question category, empty until
// collected.
func (c *Context) QuestionType() string {
	return c.questionType
}

func (c *Context) SetQuestionType(questionType string) {
	c.questionType = questionType
}

// FlightNumber returns the booking reference assigned when the conversation
// reaches the ordering stage, empty before that.
func (c *Context) FlightNumber() string {
	return c.flightNumber
}

func (c *Context) SetFlightNumber(flightNumber string) {
	c.flightNumber = flightNumber
}

func (c *Context) String() string {
	return fmt.Sprintf(
		"customer name: %q, question type: %q, flight number: %q",
		c.customerName, c.questionType, c.flightNumber,
	)
}
