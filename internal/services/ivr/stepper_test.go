package ivr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlink/ivr-dialer-backend/internal/models"
)

func menuNode(key string, retryCount int, actions models.ActionMap) models.IVRNode {
	return models.IVRNode{
		ID:         "id-" + key,
		NodeKey:    key,
		Name:       key,
		NodeType:   models.NodeTypeMenu,
		RetryCount: retryCount,
		Actions:    actions,
	}
}

func endNode(key string) models.IVRNode {
	n := menuNode(key, 3, models.ActionMap{})
	n.NodeType = models.NodeTypeEnd
	return n
}

func testFlow(entry string) *models.IVRFlow {
	return &models.IVRFlow{ID: "flow-1", EntryNodeKey: entry}
}

func TestStepEndNodeShortCircuits(t *testing.T) {
	// An end node terminates no matter what digit arrives
	end := endNode("bye")
	end.Actions = models.ActionMap{"1": {Type: models.ActionGoto, Target: "bye"}}
	g := BuildGraph(testFlow("bye"), []models.IVRNode{end})

	for _, digit := range []string{"", "1", "9", "#"} {
		res, err := Step(g, "bye", digit, 0)
		require.NoError(t, err)
		assert.Equal(t, StepTerminal, res.Type)
		assert.Equal(t, OutcomeEnded, res.Outcome)
	}
}

func TestStepGotoTransition(t *testing.T) {
	nodes := []models.IVRNode{
		menuNode("main", 3, models.ActionMap{"1": {Type: models.ActionGoto, Target: "sales"}}),
		menuNode("sales", 3, models.ActionMap{}),
	}
	g := BuildGraph(testFlow("main"), nodes)

	res, err := Step(g, "main", "1", 2)
	require.NoError(t, err)
	assert.Equal(t, StepTransition, res.Type)
	assert.Equal(t, "main", res.NodeKey)
	assert.Equal(t, "sales", res.NextKey)
}

func TestStepEndAction(t *testing.T) {
	nodes := []models.IVRNode{
		menuNode("main", 3, models.ActionMap{"9": {Type: models.ActionEnd}}),
	}
	g := BuildGraph(testFlow("main"), nodes)

	res, err := Step(g, "main", "9", 0)
	require.NoError(t, err)
	assert.Equal(t, StepTerminal, res.Type)
	assert.Equal(t, OutcomeEnded, res.Outcome)
}

func TestStepTransferAction(t *testing.T) {
	nodes := []models.IVRNode{
		menuNode("main", 3, models.ActionMap{"0": {Type: models.ActionTransfer, Number: "+14155550100"}}),
	}
	g := BuildGraph(testFlow("main"), nodes)

	res, err := Step(g, "main", "0", 0)
	require.NoError(t, err)
	assert.Equal(t, StepTerminal, res.Type)
	assert.Equal(t, OutcomeTransferred, res.Outcome)
	assert.Equal(t, "+14155550100", res.TransferNumber)
}

func TestStepTransferWithoutNumberConsumesRetry(t *testing.T) {
	nodes := []models.IVRNode{
		menuNode("main", 3, models.ActionMap{"0": {Type: models.ActionTransfer}}),
	}
	g := BuildGraph(testFlow("main"), nodes)

	res, err := Step(g, "main", "0", 0)
	require.NoError(t, err)
	assert.Equal(t, StepAwaitInput, res.Type)
	assert.Equal(t, 1, res.Retries)
}

func TestStepDanglingGotoDegradesToInvalidInput(t *testing.T) {
	nodes := []models.IVRNode{
		menuNode("main", 2, models.ActionMap{"1": {Type: models.ActionGoto, Target: "nonexistent"}}),
	}
	g := BuildGraph(testFlow("main"), nodes)

	res, err := Step(g, "main", "1", 0)
	require.NoError(t, err)
	assert.Equal(t, StepAwaitInput, res.Type)
	assert.Equal(t, 1, res.Retries)

	// Keeps consuming retries until exhaustion, same as a wrong keypress
	res, err = Step(g, "main", "1", res.Retries)
	require.NoError(t, err)
	assert.Equal(t, StepAwaitInput, res.Type)

	res, err = Step(g, "main", "1", res.Retries)
	require.NoError(t, err)
	assert.Equal(t, StepTerminal, res.Type)
	assert.Equal(t, OutcomeExhausted, res.Outcome)
}

func TestStepRetryExhaustion(t *testing.T) {
	// retryCount=2: first two timeouts stay on the node, the third exhausts
	nodes := []models.IVRNode{menuNode("main", 2, models.ActionMap{})}
	g := BuildGraph(testFlow("main"), nodes)

	res, err := Step(g, "main", "", 0)
	require.NoError(t, err)
	assert.Equal(t, StepAwaitInput, res.Type)
	assert.Equal(t, 1, res.Retries)

	res, err = Step(g, "main", "", res.Retries)
	require.NoError(t, err)
	assert.Equal(t, StepAwaitInput, res.Type)
	assert.Equal(t, 2, res.Retries)

	res, err = Step(g, "main", "", res.Retries)
	require.NoError(t, err)
	assert.Equal(t, StepTerminal, res.Type)
	assert.Equal(t, OutcomeExhausted, res.Outcome)
}

func TestStepUnrecognizedDigitConsumesRetry(t *testing.T) {
	nodes := []models.IVRNode{
		menuNode("main", 3, models.ActionMap{"1": {Type: models.ActionEnd}}),
	}
	g := BuildGraph(testFlow("main"), nodes)

	res, err := Step(g, "main", "7", 0)
	require.NoError(t, err)
	assert.Equal(t, StepAwaitInput, res.Type)
	assert.Equal(t, 1, res.Retries)
}

func TestStepReplayRetryAudioFlag(t *testing.T) {
	retryAudio := "audio-retry"
	withRetry := menuNode("a", 3, models.ActionMap{})
	withRetry.RetryAudioFileID = &retryAudio
	without := menuNode("b", 3, models.ActionMap{})
	g := BuildGraph(testFlow("a"), []models.IVRNode{withRetry, without})

	res, err := Step(g, "a", "", 0)
	require.NoError(t, err)
	assert.True(t, res.ReplayRetryAudio)

	res, err = Step(g, "b", "", 0)
	require.NoError(t, err)
	assert.False(t, res.ReplayRetryAudio)
}

func TestStepUnknownNodeFails(t *testing.T) {
	g := BuildGraph(testFlow(""), nil)
	_, err := Step(g, "ghost", "1", 0)
	assert.Error(t, err)
}

func TestScenarioMainToSalesEnd(t *testing.T) {
	// main --1--> sales (end node); any further event terminates the call
	nodes := []models.IVRNode{
		menuNode("main", 3, models.ActionMap{"1": {Type: models.ActionGoto, Target: "sales"}}),
		endNode("sales"),
	}
	flow := testFlow("main")
	g := BuildGraph(flow, nodes)
	session := NewSession("call-1", flow.ID, g.EntryKey)

	res, err := Step(g, session.CurrentKey, "1", session.Retries(session.CurrentKey))
	require.NoError(t, err)
	require.Equal(t, StepTransition, res.Type)
	session.RecordTransition(res.NextKey)
	assert.Equal(t, "sales", session.CurrentKey)

	res, err = Step(g, session.CurrentKey, "", session.Retries(session.CurrentKey))
	require.NoError(t, err)
	assert.Equal(t, StepTerminal, res.Type)
	assert.Equal(t, OutcomeEnded, res.Outcome)
}

func TestRetryCounterResetsOnTransition(t *testing.T) {
	nodes := []models.IVRNode{
		menuNode("a", 5, models.ActionMap{"1": {Type: models.ActionGoto, Target: "b"}}),
		menuNode("b", 5, models.ActionMap{}),
	}
	flow := testFlow("a")
	g := BuildGraph(flow, nodes)
	session := NewSession("call-2", flow.ID, "a")

	// Two failed attempts on a
	session.RecordRetry("a")
	session.RecordRetry("a")
	require.Equal(t, 2, session.Retries("a"))

	res, err := Step(g, "a", "1", session.Retries("a"))
	require.NoError(t, err)
	require.Equal(t, StepTransition, res.Type)
	session.RecordTransition(res.NextKey)

	// b starts clean
	assert.Equal(t, 0, session.Retries("b"))
}

func TestBuildGraphEntryFallback(t *testing.T) {
	older := menuNode("first", 3, models.ActionMap{})
	older.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := menuNode("second", 3, models.ActionMap{})
	newer.CreatedAt = time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	// No declared entry: earliest created node wins
	g := BuildGraph(testFlow(""), []models.IVRNode{newer, older})
	assert.Equal(t, "first", g.EntryKey)

	// Declared entry wins when it exists
	g = BuildGraph(testFlow("second"), []models.IVRNode{newer, older})
	assert.Equal(t, "second", g.EntryKey)

	// Declared entry missing from the set: fall back
	g = BuildGraph(testFlow("gone"), []models.IVRNode{newer, older})
	assert.Equal(t, "first", g.EntryKey)
}
