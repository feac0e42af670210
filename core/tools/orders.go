package tools

import (
	"context"
	"fmt"
	"sync"

	"github.com/chiyokera/audio-sdk/core/conversations"
	"github.com/chiyokera/audio-sdk/core/llms"
	"github.com/chiyokera/audio-sdk/core/mcp"
)

// Notifier delivers an order notification to the back office.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// OrderFlow tracks a single in-flight order proposal. A proposal must be
// confirmed or declined before the next one, and confirming fires the
// notification exactly once.
type OrderFlow struct {
	conversation *conversations.Context
	notifier     Notifier

	mu        sync.Mutex
	pending   string
	confirmed []string
}

func NewOrderFlow(conversation *conversations.Context, notifier Notifier) *OrderFlow {
	return &OrderFlow{
		conversation: conversation,
		notifier:     notifier,
	}
}

// Pending returns the product awaiting confirmation, empty when there is
// none.
func (f *OrderFlow) Pending() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

// Confirmed returns the products confirmed so far, oldest first.
func (f *OrderFlow) Confirmed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.confirmed...)
}

// Tools returns the propose, confirm and decline tools for the ordering
// agent.
func (f *OrderFlow) Tools() []llms.Tool {
	return []llms.Tool{
		llms.NewTool("propose_order",
			"Propose an order for a product. The customer must confirm it before it is placed",
			map[string]llms.ParameterBase{
				"product": {Type: "string", Description: "The product the customer wants to order"},
			},
			func(parameters struct {
				Product string `json:"product"`
			}) (string, error) {
				return f.propose(parameters.Product), nil
			}),
		llms.NewTool("confirm_order",
			"Place the proposed order after the customer confirmed it",
			nil,
			func(struct{}) (string, error) {
				return f.confirm(context.Background()), nil
			}),
		llms.NewTool("decline_order",
			"Drop the proposed order because the customer declined it",
			nil,
			func(struct{}) (string, error) {
				return f.decline(), nil
			}),
	}
}

func (f *OrderFlow) propose(product string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if product == "" {
		return "No product was given, ask the customer what they want to order."
	}
	previous := f.pending
	f.pending = product
	if previous != "" && previous != product {
		return fmt.Sprintf("Replaced the proposed order for %s with %s. Ask the customer to confirm it.", previous, product)
	}
	return fmt.Sprintf("Proposed an order for %s. Ask the customer to confirm it.", product)
}

func (f *OrderFlow) confirm(ctx context.Context) string {
	f.mu.Lock()
	product := f.pending
	if product == "" {
		f.mu.Unlock()
		return "There is no proposed order to confirm."
	}
	f.pending = ""
	f.confirmed = append(f.confirmed, product)
	f.mu.Unlock()

	message := fmt.Sprintf("Order placed: %s", product)
	if name := f.conversation.CustomerName(); name != "" {
		message = fmt.Sprintf("Order placed for %s: %s", name, product)
	}
	if flight := f.conversation.FlightNumber(); flight != "" {
		message = fmt.Sprintf("%s (flight %s)", message, flight)
	}

	if f.notifier != nil {
		if err := f.notifier.Notify(ctx, message); err != nil {
			logger.Warn("failed to send order notification", "error", err)
		}
	}
	return fmt.Sprintf("Order for %s is placed.", product)
}

func (f *OrderFlow) decline() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.pending == "" {
		return "There is no proposed order to decline."
	}
	product := f.pending
	f.pending = ""
	return fmt.Sprintf("Order for %s was dropped.", product)
}

// SlackNotifier posts order notifications to a Slack channel through a
// running tool server.
type SlackNotifier struct {
	server  *mcp.Server
	channel string
}

func NewSlackNotifier(server *mcp.Server, channel string) *SlackNotifier {
	return &SlackNotifier{server: server, channel: channel}
}

func (n *SlackNotifier) Notify(ctx context.Context, message string) error {
	arguments := fmt.Sprintf(`{"channel_id":%q,"text":%q}`, n.channel, message)
	if _, err := n.server.CallTool(ctx, "slack_post_message", arguments); err != nil {
		return fmt.Errorf("failed to post order notification: %w", err)
	}
	return nil
}
