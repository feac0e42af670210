package agents

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/chiyokera/audio-sdk/core/conversations"
	"github.com/chiyokera/audio-sdk/core/mcp"
	"github.com/chiyokera/audio-sdk/core/tools"
)

const (
	TriageAgentName       = "triage_agent"
	ProductInfoAgentName  = "product_info_agent"
	OrderingAgentName     = "ordering_agent"
	ErrorTroubleAgentName = "error_trouble_agent"
)

// CallCenterConfig wires the airline call-center roster together.
type CallCenterConfig struct {
	// Conversation is the shared customer context.
	Conversation *conversations.Context
	// Orders drives the ordering agent's propose/confirm/decline cycle.
	Orders *tools.OrderFlow
	// ManualServer gives the specialists read access to the service manual
	// and product sheets. Optional.
	ManualServer *mcp.Server
	// DataDir is where the manual and the products directory live. Defaults
	// to "data".
	DataDir string
}

// NewCallCenterRoster builds the four airline agents: triage in the middle,
// with product information, ordering and error troubleshooting around it.
// Every specialist hands back to triage, specialists never talk to each
// other directly.
func NewCallCenterRoster(cfg CallCenterConfig) (*Roster, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	manual := loadManual(filepath.Join(dataDir, "call_center_manual.txt"))
	products := listProducts(filepath.Join(dataDir, "products"))

	var servers []*mcp.Server
	if cfg.ManualServer != nil {
		servers = append(servers, cfg.ManualServer)
	}

	triage := &Agent{
		Name:               TriageAgentName,
		DisplayName:        "Triage Agent",
		HandoffDescription: "Greets the customer and routes them to the right specialist.",
		Instructions: "You are the first point of contact at an airline call center. " +
			"Greet the customer, ask for their name and what kind of question they have, " +
			"and record both with the update_customer_info tool. " +
			"Then transfer them: product questions go to the product information agent, " +
			"purchases go to the ordering agent, problems and complaints go to the error " +
			"troubleshooting agent. Keep your answers to one or two short sentences, they " +
			"may be read out loud.",
		Handoffs: []string{ProductInfoAgentName, OrderingAgentName, ErrorTroubleAgentName},
	}

	productInfo := &Agent{
		Name:               ProductInfoAgentName,
		DisplayName:        "Product Information Agent",
		HandoffDescription: "Answers questions about flights, seats, baggage and onboard services.",
		Instructions: "You answer questions about the airline's services. " +
			"Use the faq_lookup_tool for frequent questions and the manual for anything else. " +
			"If the customer wants to buy something or reports a problem, transfer them back " +
			"to the triage agent. Keep your answers short, they may be read out loud.\n\n" +
			"Manual:\n" + manual,
		Servers:  servers,
		Handoffs: []string{TriageAgentName},
	}

	ordering := &Agent{
		Name:               OrderingAgentName,
		DisplayName:        "Ordering Agent",
		HandoffDescription: "Takes orders for onboard products.",
		Instructions: "You take orders for onboard products. The available products are: " +
			strings.Join(products, ", ") + ". " +
			"Propose an order with propose_order, read the proposal back to the customer, " +
			"and only after they agree place it with confirm_order. If they change their " +
			"mind use decline_order. For anything that is not an order, transfer the " +
			"customer back to the triage agent. Keep your answers short, they may be read " +
			"out loud.",
		Handoffs: []string{TriageAgentName},
		OnHandoff: func(_ context.Context, conversation *conversations.Context) {
			// A booking reference is assigned the moment ordering starts.
			if conversation.FlightNumber() == "" {
				conversation.SetFlightNumber(fmt.Sprintf("FLT-%03d", rand.IntN(900)+100))
			}
		},
	}

	errorTrouble := &Agent{
		Name:               ErrorTroubleAgentName,
		DisplayName:        "Error Troubleshooting Agent",
		HandoffDescription: "Helps with problems, errors and complaints.",
		Instructions: "You help customers whose order or service went wrong. " +
			"Apologize, look up the relevant section of the manual, and walk the customer " +
			"through the fix step by step. If the problem is out of your hands, transfer " +
			"the customer back to the triage agent. Keep your answers short, they may be " +
			"read out loud.\n\n" +
			"Manual:\n" + manual,
		Servers:  servers,
		Handoffs: []string{TriageAgentName},
	}

	if cfg.Conversation != nil {
		triage.Tools = append(triage.Tools, tools.UpdateCustomerInfo(cfg.Conversation))
	}
	productInfo.Tools = append(productInfo.Tools, tools.FAQLookup())
	if cfg.Orders != nil {
		ordering.Tools = append(ordering.Tools, cfg.Orders.Tools()...)
	}

	return NewRoster(triage, productInfo, ordering, errorTrouble)
}

const fallbackManual = `Airline Call Center Manual

Baggage: one carry-on bag per customer, under 50 pounds and
22 x 14 x 9 inches. Checked baggage can be added at the gate.

Seats: 120 seats, 22 business class, 98 economy. Exit rows are 4 and 16,
rows 5-8 are Economy Plus with extra legroom.

Wifi: free on board, network name Airline-Wifi.

Orders: onboard products are paid on delivery. A confirmed order can be
cancelled up to 24 hours before departure.

Troubleshooting: for double charges or missing confirmations, apologize,
verify the flight number, and escalate to the back office.`

// loadManual reads the service manual, falling back to a built-in copy so
// the agents keep working from any working directory.
func loadManual(path string) string {
	manual, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("failed to read manual, using built-in copy", "path", path, "error", err)
		return fallbackManual
	}
	return string(manual)
}

var fallbackProducts = []string{"headphones", "blanket", "snack box"}

// listProducts derives the product list from the product sheet filenames.
func listProducts(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("failed to list products, using built-in list", "dir", dir, "error", err)
		return fallbackProducts
	}

	var products []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".txt")
		products = append(products, strings.ReplaceAll(name, "_", " "))
	}
	if len(products) == 0 {
		return fallbackProducts
	}
	return products
}
