package ivr

import (
	"fmt"
	"time"

	"github.com/voxlink/ivr-dialer-backend/internal/models"
)

// StepType classifies the result of evaluating one call event
type StepType int

const (
	// StepAwaitInput means the call stays on the current node and the device
	// should replay audio and wait for another digit
	StepAwaitInput StepType = iota
	// StepTransition means the call moves to another node
	StepTransition
	// StepTerminal means the call is over
	StepTerminal
)

// Outcome is the terminal result of a call
type Outcome string

const (
	OutcomeEnded       Outcome = "ended"
	OutcomeTransferred Outcome = "transferred"
	OutcomeExhausted   Outcome = "exhausted"
)

// Graph is the in-memory node set of one flow, keyed by node key
type Graph struct {
	FlowID   string
	EntryKey string
	Nodes    map[string]*models.IVRNode
}

// BuildGraph indexes a flow's nodes by key. The entry node is the flow's
// declared EntryNodeKey; when that is empty or missing from the set, the
// earliest created node is used.
func BuildGraph(flow *models.IVRFlow, nodes []models.IVRNode) *Graph {
	g := &Graph{
		FlowID: flow.ID,
		Nodes:  make(map[string]*models.IVRNode, len(nodes)),
	}

	var earliest *models.IVRNode
	for i := range nodes {
		node := &nodes[i]
		g.Nodes[node.NodeKey] = node
		if earliest == nil || node.CreatedAt.Before(earliest.CreatedAt) {
			earliest = node
		}
	}

	if flow.EntryNodeKey != "" {
		if _, ok := g.Nodes[flow.EntryNodeKey]; ok {
			g.EntryKey = flow.EntryNodeKey
			return g
		}
	}
	if earliest != nil {
		g.EntryKey = earliest.NodeKey
	}
	return g
}

// Node returns the node with the given key, if present
func (g *Graph) Node(key string) (*models.IVRNode, bool) {
	n, ok := g.Nodes[key]
	return n, ok
}

// StepResult is the outcome of evaluating one DTMF event or timeout
type StepResult struct {
	Type    StepType
	NodeKey string // node the event was evaluated against
	NextKey string // set for StepTransition

	Outcome        Outcome // set for StepTerminal
	TransferNumber string  // set when Outcome is OutcomeTransferred

	// Retries is the session's retry count for NodeKey after this step
	Retries int
	// ReplayRetryAudio signals the device to play the node's retry prompt
	// instead of the primary one
	ReplayRetryAudio bool
}

// Step computes the next execution state for the node at nodeKey. digit is
// the DTMF key the callee pressed, or "" when the input timeout elapsed.
// retries is the session's current retry count for that node.
//
// Step is a pure function over the graph: it never mutates the graph or any
// session state. Graph inconsistencies (dangling goto targets, transfers
// without a number) degrade to the invalid-input path instead of failing, so
// an authoring mistake never drops a live call.
func Step(g *Graph, nodeKey, digit string, retries int) (StepResult, error) {
	node, ok := g.Node(nodeKey)
	if !ok {
		return StepResult{}, fmt.Errorf("node %q not in flow %s", nodeKey, g.FlowID)
	}

	// End nodes short-circuit regardless of any digit or remaining actions
	if node.NodeType == models.NodeTypeEnd {
		return StepResult{Type: StepTerminal, NodeKey: nodeKey, Outcome: OutcomeEnded, Retries: retries}, nil
	}

	if digit != "" {
		if action, ok := node.Actions[digit]; ok {
			switch action.Type {
			case models.ActionGoto:
				if _, exists := g.Node(action.Target); exists {
					return StepResult{Type: StepTransition, NodeKey: nodeKey, NextKey: action.Target}, nil
				}
				// dangling target: treat as invalid input
			case models.ActionEnd:
				return StepResult{Type: StepTerminal, NodeKey: nodeKey, Outcome: OutcomeEnded, Retries: retries}, nil
			case models.ActionTransfer:
				if action.Number != "" {
					return StepResult{
						Type:           StepTerminal,
						NodeKey:        nodeKey,
						Outcome:        OutcomeTransferred,
						TransferNumber: action.Number,
						Retries:        retries,
					}, nil
				}
				// missing number: treat as invalid input
			}
		}
	}

	// Timeout or unrecognized/broken input: both consume a retry
	retries++
	if retries > node.RetryCount {
		return StepResult{Type: StepTerminal, NodeKey: nodeKey, Outcome: OutcomeExhausted, Retries: retries}, nil
	}
	return StepResult{
		Type:             StepAwaitInput,
		NodeKey:          nodeKey,
		Retries:          retries,
		ReplayRetryAudio: node.RetryAudioFileID != nil,
	}, nil
}

// InputDeadline returns how long the device should wait for a digit on node
func InputDeadline(node *models.IVRNode) time.Duration {
	return time.Duration(node.TimeoutSeconds) * time.Second
}
