package ivr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlink/ivr-dialer-backend/internal/models"
)

func findingsByIssue(findings []Finding) map[string][]Finding {
	out := make(map[string][]Finding)
	for _, f := range findings {
		out[f.Issue] = append(out[f.Issue], f)
	}
	return out
}

func TestValidateCleanGraph(t *testing.T) {
	nodes := []models.IVRNode{
		menuNode("main", 3, models.ActionMap{
			"1": {Type: models.ActionGoto, Target: "sales"},
			"9": {Type: models.ActionEnd},
		}),
		menuNode("sales", 3, models.ActionMap{
			"0": {Type: models.ActionTransfer, Number: "+14155550100"},
		}),
	}

	findings := Validate(testFlow("main"), nodes)
	assert.Empty(t, findings)
}

func TestValidateDanglingAndMissingNumber(t *testing.T) {
	nodes := []models.IVRNode{
		menuNode("main", 3, models.ActionMap{
			"1": {Type: models.ActionGoto, Target: "nonexistent"},
			"2": {Type: models.ActionGoto, Target: "other"},
		}),
		menuNode("other", 3, models.ActionMap{
			"2": {Type: models.ActionTransfer},
		}),
	}

	findings := Validate(testFlow("main"), nodes)
	byIssue := findingsByIssue(findings)

	require.Len(t, byIssue[IssueDanglingTarget], 1)
	assert.Equal(t, "main", byIssue[IssueDanglingTarget][0].NodeKey)
	assert.Equal(t, "1", byIssue[IssueDanglingTarget][0].Digit)

	require.Len(t, byIssue[IssueMissingTransferNumber], 1)
	assert.Equal(t, "other", byIssue[IssueMissingTransferNumber][0].NodeKey)
	assert.Equal(t, "2", byIssue[IssueMissingTransferNumber][0].Digit)

	assert.Empty(t, byIssue[IssueUnreachableNode])
}

func TestValidateUnreachableNode(t *testing.T) {
	nodes := []models.IVRNode{
		menuNode("main", 3, models.ActionMap{"1": {Type: models.ActionGoto, Target: "sales"}}),
		menuNode("sales", 3, models.ActionMap{}),
		menuNode("orphan", 3, models.ActionMap{}),
	}

	findings := Validate(testFlow("main"), nodes)
	byIssue := findingsByIssue(findings)

	require.Len(t, byIssue[IssueUnreachableNode], 1)
	assert.Equal(t, "orphan", byIssue[IssueUnreachableNode][0].NodeKey)
}

func TestValidateReachabilityThroughChains(t *testing.T) {
	nodes := []models.IVRNode{
		menuNode("main", 3, models.ActionMap{"1": {Type: models.ActionGoto, Target: "a"}}),
		menuNode("a", 3, models.ActionMap{"1": {Type: models.ActionGoto, Target: "b"}}),
		menuNode("b", 3, models.ActionMap{"1": {Type: models.ActionGoto, Target: "main"}}),
	}

	findings := Validate(testFlow("main"), nodes)
	assert.Empty(t, findings)
}

func TestValidateEmptyFlow(t *testing.T) {
	findings := Validate(testFlow(""), nil)
	assert.Empty(t, findings)
}
