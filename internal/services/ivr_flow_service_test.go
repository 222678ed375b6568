package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/voxlink/ivr-dialer-backend/internal/models"
	"github.com/voxlink/ivr-dialer-backend/internal/services/ivr"
)

type fakeFlowStore struct {
	flows  map[string]*models.IVRFlow
	nextID int
}

func newFakeFlowStore() *fakeFlowStore {
	return &fakeFlowStore{flows: make(map[string]*models.IVRFlow)}
}

func (f *fakeFlowStore) Create(flow *models.IVRFlow) error {
	f.nextID++
	flow.ID = fmt.Sprintf("flow-%d", f.nextID)
	flow.CreatedAt = time.Now()
	flow.UpdatedAt = flow.CreatedAt
	f.flows[flow.ID] = flow
	return nil
}

func (f *fakeFlowStore) GetByID(id string) (*models.IVRFlow, error) {
	flow, ok := f.flows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *flow
	return &copied, nil
}

func (f *fakeFlowStore) GetByUserIDAndID(userID, flowID string) (*models.IVRFlow, error) {
	flow, ok := f.flows[flowID]
	if !ok || flow.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *flow
	return &copied, nil
}

func (f *fakeFlowStore) GetByUserIDPaginated(userID string, page, pageSize int) ([]*models.IVRFlow, int, error) {
	var flows []*models.IVRFlow
	for _, flow := range f.flows {
		if flow.UserID == userID {
			copied := *flow
			flows = append(flows, &copied)
		}
	}
	return flows, len(flows), nil
}

func (f *fakeFlowStore) Update(flow *models.IVRFlow) error {
	if _, ok := f.flows[flow.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	flow.UpdatedAt = time.Now()
	f.flows[flow.ID] = flow
	return nil
}

func (f *fakeFlowStore) Delete(id string) error {
	delete(f.flows, id)
	return nil
}

type fakeNodeStore struct {
	nodes  map[string]*models.IVRNode
	nextID int
}

func newFakeNodeStore() *fakeNodeStore {
	return &fakeNodeStore{nodes: make(map[string]*models.IVRNode)}
}

func (f *fakeNodeStore) Create(node *models.IVRNode) error {
	f.nextID++
	node.ID = fmt.Sprintf("node-%d", f.nextID)
	node.CreatedAt = time.Now().Add(time.Duration(f.nextID) * time.Millisecond)
	node.UpdatedAt = node.CreatedAt
	f.nodes[node.ID] = node
	return nil
}

func (f *fakeNodeStore) GetByFlowIDAndID(flowID, nodeID string) (*models.IVRNode, error) {
	node, ok := f.nodes[nodeID]
	if !ok || node.FlowID != flowID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *node
	return &copied, nil
}

func (f *fakeNodeStore) GetByFlowID(flowID string) ([]models.IVRNode, error) {
	var nodes []models.IVRNode
	for _, node := range f.nodes {
		if node.FlowID == flowID {
			nodes = append(nodes, *node)
		}
	}
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			if nodes[j].CreatedAt.Before(nodes[i].CreatedAt) {
				nodes[i], nodes[j] = nodes[j], nodes[i]
			}
		}
	}
	return nodes, nil
}

func (f *fakeNodeStore) KeyExists(flowID, nodeKey string) (bool, error) {
	for _, node := range f.nodes {
		if node.FlowID == flowID && node.NodeKey == nodeKey {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeNodeStore) Update(node *models.IVRNode) error {
	if _, ok := f.nodes[node.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	node.UpdatedAt = time.Now()
	f.nodes[node.ID] = node
	return nil
}

func (f *fakeNodeStore) Delete(flowID, nodeID string) error {
	delete(f.nodes, nodeID)
	return nil
}

func (f *fakeNodeStore) DeleteByFlowID(flowID string) error {
	for id, node := range f.nodes {
		if node.FlowID == flowID {
			delete(f.nodes, id)
		}
	}
	return nil
}

func (f *fakeNodeStore) CountByFlowID(flowID string) (int, error) {
	count := 0
	for _, node := range f.nodes {
		if node.FlowID == flowID {
			count++
		}
	}
	return count, nil
}

func newFlowServiceForTest() (*IVRFlowService, *fakeFlowStore, *fakeNodeStore) {
	flows := newFakeFlowStore()
	nodes := newFakeNodeStore()
	return NewIVRFlowService(flows, nodes), flows, nodes
}

func TestCreateFlowAppliesDefaults(t *testing.T) {
	svc, _, _ := newFlowServiceForTest()

	resp, err := svc.CreateFlow("user-1", &models.CreateFlowRequest{Name: "Support hotline"})
	require.NoError(t, err)

	assert.Equal(t, "en", resp.DefaultLanguage)
	assert.Equal(t, 3, resp.MaxRetries)
	assert.Equal(t, 10, resp.TimeoutSeconds)
	assert.True(t, resp.IsActive)
}

func TestCreateFlowRejectsBadConfig(t *testing.T) {
	svc, _, _ := newFlowServiceForTest()

	cases := []struct {
		name string
		req  models.CreateFlowRequest
	}{
		{"empty name", models.CreateFlowRequest{}},
		{"unsupported language", models.CreateFlowRequest{Name: "x", DefaultLanguage: "de"}},
		{"retries too high", models.CreateFlowRequest{Name: "x", MaxRetries: 11}},
		{"timeout too low", models.CreateFlowRequest{Name: "x", TimeoutSeconds: 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateFlow("user-1", &tc.req)
			var verr *models.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestAddNodeRejectsDuplicateKey(t *testing.T) {
	svc, _, _ := newFlowServiceForTest()

	flow, err := svc.CreateFlow("user-1", &models.CreateFlowRequest{Name: "f"})
	require.NoError(t, err)

	_, err = svc.AddNode("user-1", flow.ID, &models.CreateNodeRequest{NodeKey: "main_menu", Name: "Main menu"})
	require.NoError(t, err)

	_, err = svc.AddNode("user-1", flow.ID, &models.CreateNodeRequest{NodeKey: "main_menu", Name: "Duplicate"})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "node_key", verr.Field)
}

func TestAddNodeAppliesDefaults(t *testing.T) {
	svc, _, _ := newFlowServiceForTest()

	flow, err := svc.CreateFlow("user-1", &models.CreateFlowRequest{Name: "f"})
	require.NoError(t, err)

	node, err := svc.AddNode("user-1", flow.ID, &models.CreateNodeRequest{NodeKey: "greeting", Name: "Greeting"})
	require.NoError(t, err)

	assert.Equal(t, models.NodeTypeMenu, node.NodeType)
	assert.Equal(t, 10, node.TimeoutSeconds)
	assert.Equal(t, 3, node.RetryCount)
	assert.NotNil(t, node.Actions)
	assert.Empty(t, node.Actions)
}

func TestAddNodeRejectsMalformedActions(t *testing.T) {
	svc, _, _ := newFlowServiceForTest()

	flow, err := svc.CreateFlow("user-1", &models.CreateFlowRequest{Name: "f"})
	require.NoError(t, err)

	_, err = svc.AddNode("user-1", flow.ID, &models.CreateNodeRequest{
		NodeKey: "menu",
		Name:    "Menu",
		Actions: models.ActionMap{"12": {Type: models.ActionEnd}},
	})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = svc.AddNode("user-1", flow.ID, &models.CreateNodeRequest{
		NodeKey: "menu",
		Name:    "Menu",
		Actions: models.ActionMap{"1": {Type: models.ActionGoto}},
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "target", verr.Field)
}

func TestUpdateFlowPartialPatch(t *testing.T) {
	svc, _, _ := newFlowServiceForTest()

	flow, err := svc.CreateFlow("user-1", &models.CreateFlowRequest{Name: "f", MaxRetries: 5})
	require.NoError(t, err)

	newName := "renamed"
	updated, err := svc.UpdateFlow("user-1", flow.ID, &models.UpdateFlowRequest{Name: &newName})
	require.NoError(t, err)

	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, 5, updated.MaxRetries, "untouched fields keep their values")
}

func TestFlowOwnershipScoping(t *testing.T) {
	svc, _, _ := newFlowServiceForTest()

	flow, err := svc.CreateFlow("user-1", &models.CreateFlowRequest{Name: "f"})
	require.NoError(t, err)

	_, err = svc.GetFlow("user-2", flow.ID)
	var nferr *models.NotFoundError
	assert.ErrorAs(t, err, &nferr)

	err = svc.DeleteFlow("user-2", flow.ID)
	assert.ErrorAs(t, err, &nferr)
}

func TestDeleteFlowRemovesItsNodes(t *testing.T) {
	svc, _, nodes := newFlowServiceForTest()

	flow, err := svc.CreateFlow("user-1", &models.CreateFlowRequest{Name: "f"})
	require.NoError(t, err)

	_, err = svc.AddNode("user-1", flow.ID, &models.CreateNodeRequest{NodeKey: "main", Name: "Main"})
	require.NoError(t, err)
	_, err = svc.AddNode("user-1", flow.ID, &models.CreateNodeRequest{NodeKey: "sales", Name: "Sales", NodeType: models.NodeTypeEnd})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteFlow("user-1", flow.ID))

	_, err = svc.GetFlow("user-1", flow.ID)
	var nferr *models.NotFoundError
	assert.ErrorAs(t, err, &nferr)

	remaining, err := nodes.GetByFlowID(flow.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining, "no orphaned nodes under the deleted flow")
}

// Node keys are unique per flow, not globally: two flows can both have a
// "main_menu".
func TestAddNodeSameKeyInDifferentFlows(t *testing.T) {
	svc, _, _ := newFlowServiceForTest()

	first, err := svc.CreateFlow("user-1", &models.CreateFlowRequest{Name: "first"})
	require.NoError(t, err)
	second, err := svc.CreateFlow("user-1", &models.CreateFlowRequest{Name: "second"})
	require.NoError(t, err)

	_, err = svc.AddNode("user-1", first.ID, &models.CreateNodeRequest{NodeKey: "main_menu", Name: "Main menu"})
	require.NoError(t, err)

	node, err := svc.AddNode("user-1", second.ID, &models.CreateNodeRequest{NodeKey: "main_menu", Name: "Main menu"})
	require.NoError(t, err)
	assert.Equal(t, "main_menu", node.NodeKey)
}

// Updating a node to point at a key that exists keeps the validator quiet;
// repointing at a removed key surfaces as a dangling finding, not an error.
func TestUpdateNodeRewiresActions(t *testing.T) {
	svc, _, _ := newFlowServiceForTest()

	flow, err := svc.CreateFlow("user-1", &models.CreateFlowRequest{Name: "f", EntryNodeKey: "main"})
	require.NoError(t, err)

	main, err := svc.AddNode("user-1", flow.ID, &models.CreateNodeRequest{
		NodeKey: "main",
		Name:    "Main",
		Actions: models.ActionMap{"1": {Type: models.ActionGoto, Target: "sales"}},
	})
	require.NoError(t, err)
	_, err = svc.AddNode("user-1", flow.ID, &models.CreateNodeRequest{
		NodeKey:  "sales",
		Name:     "Sales",
		NodeType: models.NodeTypeEnd,
	})
	require.NoError(t, err)
	_, err = svc.AddNode("user-1", flow.ID, &models.CreateNodeRequest{
		NodeKey:  "support",
		Name:     "Support",
		NodeType: models.NodeTypeEnd,
	})
	require.NoError(t, err)

	findings, err := svc.ValidateFlow("user-1", flow.ID)
	require.NoError(t, err)
	unreachable := 0
	for _, f := range findings {
		if f.Issue == ivr.IssueUnreachableNode {
			unreachable++
		}
	}
	assert.Equal(t, 1, unreachable, "support is not wired in yet")

	actions := models.ActionMap{
		"1": {Type: models.ActionGoto, Target: "sales"},
		"2": {Type: models.ActionGoto, Target: "support"},
	}
	_, err = svc.UpdateNode("user-1", flow.ID, main.ID, &models.UpdateNodeRequest{Actions: &actions})
	require.NoError(t, err)

	findings, err = svc.ValidateFlow("user-1", flow.ID)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

// Deleting a node leaves actions that targeted it in place; validation is
// where the dangling reference shows up.
func TestDeleteNodeLeavesDanglingReferences(t *testing.T) {
	svc, _, _ := newFlowServiceForTest()

	flow, err := svc.CreateFlow("user-1", &models.CreateFlowRequest{Name: "f", EntryNodeKey: "main"})
	require.NoError(t, err)

	_, err = svc.AddNode("user-1", flow.ID, &models.CreateNodeRequest{
		NodeKey: "main",
		Name:    "Main",
		Actions: models.ActionMap{"1": {Type: models.ActionGoto, Target: "sales"}},
	})
	require.NoError(t, err)
	sales, err := svc.AddNode("user-1", flow.ID, &models.CreateNodeRequest{
		NodeKey:  "sales",
		Name:     "Sales",
		NodeType: models.NodeTypeEnd,
	})
	require.NoError(t, err)

	findings, err := svc.ValidateFlow("user-1", flow.ID)
	require.NoError(t, err)
	require.Empty(t, findings)

	require.NoError(t, svc.DeleteNode("user-1", flow.ID, sales.ID))

	findings, err = svc.ValidateFlow("user-1", flow.ID)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, ivr.IssueDanglingTarget, findings[0].Issue)
	assert.Equal(t, "main", findings[0].NodeKey)
	assert.Equal(t, "1", findings[0].Digit)
}

func TestRecordCallStats(t *testing.T) {
	svc, flows, _ := newFlowServiceForTest()

	resp, err := svc.CreateFlow("user-1", &models.CreateFlowRequest{Name: "f"})
	require.NoError(t, err)

	require.NoError(t, svc.RecordCallStats(resp.ID, true, 30, []string{"1", "2"}))
	require.NoError(t, svc.RecordCallStats(resp.ID, false, 10, []string{"1"}))

	flow := flows.flows[resp.ID]
	assert.Equal(t, 2, flow.TotalCalls)
	assert.Equal(t, 1, flow.CompletedCalls)
	assert.InDelta(t, 20.0, flow.AvgDurationSeconds, 0.001)
	assert.Equal(t, float64(2), flow.ChoiceStats["1"])
	assert.Equal(t, float64(1), flow.ChoiceStats["2"])
}
