package ivr

import (
	"sort"

	"github.com/voxlink/ivr-dialer-backend/internal/models"
)

// Issue kinds reported by Validate
const (
	IssueDanglingTarget        = "DANGLING_TARGET"
	IssueUnreachableNode       = "UNREACHABLE_NODE"
	IssueMissingTransferNumber = "MISSING_TRANSFER_NUMBER"
)

// Finding is one structural problem in a flow's node graph
type Finding struct {
	NodeKey string `json:"node_key"`
	Digit   string `json:"digit,omitempty"`
	Issue   string `json:"issue"`
}

// Validate statically checks a flow's node graph and returns all findings.
// An empty slice means the graph is fully consistent. Findings are advisory:
// flows with findings stay executable, the stepper degrades broken actions to
// invalid input at runtime.
func Validate(flow *models.IVRFlow, nodes []models.IVRNode) []Finding {
	g := BuildGraph(flow, nodes)
	findings := []Finding{}

	// Per-action checks, in deterministic digit order per node
	for i := range nodes {
		node := &nodes[i]
		digits := make([]string, 0, len(node.Actions))
		for digit := range node.Actions {
			digits = append(digits, digit)
		}
		sort.Strings(digits)

		for _, digit := range digits {
			action := node.Actions[digit]
			switch action.Type {
			case models.ActionGoto:
				if _, ok := g.Node(action.Target); !ok {
					findings = append(findings, Finding{NodeKey: node.NodeKey, Digit: digit, Issue: IssueDanglingTarget})
				}
			case models.ActionTransfer:
				if action.Number == "" {
					findings = append(findings, Finding{NodeKey: node.NodeKey, Digit: digit, Issue: IssueMissingTransferNumber})
				}
			}
		}
	}

	// Reachability from the entry node
	reached := make(map[string]bool, len(nodes))
	if g.EntryKey != "" {
		stack := []string{g.EntryKey}
		for len(stack) > 0 {
			key := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if reached[key] {
				continue
			}
			reached[key] = true
			node, ok := g.Node(key)
			if !ok {
				continue
			}
			for _, action := range node.Actions {
				if action.Type == models.ActionGoto {
					stack = append(stack, action.Target)
				}
			}
		}
	}

	keys := make([]string, 0, len(nodes))
	for i := range nodes {
		keys = append(keys, nodes[i].NodeKey)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if !reached[key] {
			findings = append(findings, Finding{NodeKey: key, Issue: IssueUnreachableNode})
		}
	}

	return findings
}
