package agents

import "fmt"

// Roster is the set of agents a conversation can move between. It is built
// once and never changes while the conversation runs.
type Roster struct {
	agents map[string]*Agent
	names  []string
}

// NewRoster validates that every hand-off target exists and returns the
// roster. Agent names must be unique.
func NewRoster(agents ...*Agent) (*Roster, error) {
	roster := &Roster{agents: map[string]*Agent{}}
	for _, agent := range agents {
		if _, ok := roster.agents[agent.Name]; ok {
			return nil, fmt.Errorf("duplicate agent name: %s", agent.Name)
		}
		roster.agents[agent.Name] = agent
		roster.names = append(roster.names, agent.Name)
	}

	for _, agent := range agents {
		for _, handoff := range agent.Handoffs {
			if _, ok := roster.agents[handoff]; !ok {
				return nil, fmt.Errorf("agent %s hands off to unknown agent %s", agent.Name, handoff)
			}
		}
	}
	return roster, nil
}

// Get returns the named agent.
func (r *Roster) Get(name string) (*Agent, bool) {
	agent, ok := r.agents[name]
	return agent, ok
}

// Names returns the agent names in registration order.
func (r *Roster) Names() []string {
	return append([]string(nil), r.names...)
}
