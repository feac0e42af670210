package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/chiyokera/audio-sdk/core/conversations"
)

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, message string) error {
	n.messages = append(n.messages, message)
	return nil
}

func TestOrderFlow_ConfirmNotifiesExactlyOnce(t *testing.T) {
	notifier := &recordingNotifier{}
	conversation := conversations.NewContext()
	conversation.SetCustomerName("Ada")
	conversation.SetFlightNumber("FLT-123")
	flow := NewOrderFlow(conversation, notifier)

	flow.propose("headphones")
	out := flow.confirm(context.Background())
	if !strings.Contains(out, "placed") {
		t.Fatalf("unexpected confirm output: %q", out)
	}

	// A second confirm has nothing to act on.
	out = flow.confirm(context.Background())
	if out != "There is no proposed order to confirm." {
		t.Fatalf("unexpected repeated confirm output: %q", out)
	}

	if len(notifier.messages) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(notifier.messages))
	}
	if !strings.Contains(notifier.messages[0], "Ada") || !strings.Contains(notifier.messages[0], "FLT-123") {
		t.Fatalf("unexpected notification: %q", notifier.messages[0])
	}
	if confirmed := flow.Confirmed(); len(confirmed) != 1 || confirmed[0] != "headphones" {
		t.Fatalf("unexpected confirmed orders: %+v", confirmed)
	}
}

func TestOrderFlow_DeclineHasNoSideEffects(t *testing.T) {
	notifier := &recordingNotifier{}
	flow := NewOrderFlow(conversations.NewContext(), notifier)

	flow.propose("blanket")
	out := flow.decline()
	if !strings.Contains(out, "dropped") {
		t.Fatalf("unexpected decline output: %q", out)
	}

	if len(notifier.messages) != 0 {
		t.Fatalf("expected no notifications, got %+v", notifier.messages)
	}
	if len(flow.Confirmed()) != 0 {
		t.Fatalf("expected no confirmed orders, got %+v", flow.Confirmed())
	}
	if flow.Pending() != "" {
		t.Fatalf("expected no pending proposal, got %q", flow.Pending())
	}
}

func TestOrderFlow_ConfirmWithoutProposalInformsModel(t *testing.T) {
	flow := NewOrderFlow(conversations.NewContext(), &recordingNotifier{})

	if out := flow.confirm(context.Background()); out != "There is no proposed order to confirm." {
		t.Fatalf("unexpected output: %q", out)
	}
	if out := flow.decline(); out != "There is no proposed order to decline." {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestOrderFlow_SecondProposalReplacesTheFirst(t *testing.T) {
	flow := NewOrderFlow(conversations.NewContext(), &recordingNotifier{})

	flow.propose("headphones")
	out := flow.propose("blanket")
	if !strings.Contains(out, "Replaced the proposed order") {
		t.Fatalf("unexpected output: %q", out)
	}
	if flow.Pending() != "blanket" {
		t.Fatalf("expected the later proposal to stand, got %q", flow.Pending())
	}
}

func TestOrderFlow_ToolsRouteToTheFlow(t *testing.T) {
	notifier := &recordingNotifier{}
	flow := NewOrderFlow(conversations.NewContext(), notifier)

	tools := flow.Tools()
	if len(tools) != 3 {
		t.Fatalf("expected 3 tools, got %d", len(tools))
	}

	if _, err := tools[0].Execute(`{"product":"headphones"}`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if flow.Pending() != "headphones" {
		t.Fatalf("expected a pending proposal, got %q", flow.Pending())
	}
	if _, err := tools[1].Execute(""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("expected a notification, got %+v", notifier.messages)
	}
}
