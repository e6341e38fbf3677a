package flows

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/providentiaww/iga-slack-bridge/internal/formstate"
	"github.com/providentiaww/iga-slack-bridge/internal/iga"
	"github.com/providentiaww/iga-slack-bridge/internal/models"
)

type fakeCatalog struct {
	items         []models.CatalogItem
	searches      []string
	createResult  models.CreateRequestResponse
	createErr     error
	createPayload models.CreateRequestPayload
}

func (c *fakeCatalog) SearchCatalog(_ context.Context, query string) []models.CatalogItem {
	c.searches = append(c.searches, query)
	return c.items
}

func (c *fakeCatalog) CreateRequest(_ context.Context, payload models.CreateRequestPayload) (models.CreateRequestResponse, error) {
	c.createPayload = payload
	if c.createErr != nil {
		return models.CreateRequestResponse{}, c.createErr
	}
	return c.createResult, nil
}

type fakeRecords struct {
	saved  []models.AccessRequestRecord
	putErr error
}

func (r *fakeRecords) Put(_ context.Context, record models.AccessRequestRecord) error {
	if r.putErr != nil {
		return r.putErr
	}
	r.saved = append(r.saved, record)
	return nil
}

func (r *fakeRecords) Query(context.Context, int) ([]models.AccessRequestRecord, error) {
	return nil, nil
}

type fakeMessenger struct {
	dms map[string][]string
}

func (m *fakeMessenger) SendDM(_ context.Context, userID, text string) error {
	if m.dms == nil {
		m.dms = make(map[string][]string)
	}
	m.dms[userID] = append(m.dms[userID], text)
	return nil
}

type fakeViews struct {
	opened    []map[string]any
	updated   []map[string]any
	published []map[string]any
	homeUser  string
	triggerID string
	viewID    string
	hash      string
}

func (v *fakeViews) OpenModal(_ context.Context, triggerID string, view map[string]any) error {
	v.triggerID = triggerID
	v.opened = append(v.opened, view)
	return nil
}

func (v *fakeViews) UpdateModal(_ context.Context, viewID, hash string, view map[string]any) error {
	v.viewID = viewID
	v.hash = hash
	v.updated = append(v.updated, view)
	return nil
}

func (v *fakeViews) PublishHome(_ context.Context, userID string, view map[string]any) error {
	v.homeUser = userID
	v.published = append(v.published, view)
	return nil
}

type fakeDirectory struct {
	email string
	err   error
}

func (d fakeDirectory) UserEmail(context.Context, string) (string, error) {
	return d.email, d.err
}

type fakeSweep struct {
	records []models.AccessRequestRecord
	err     error
	userID  string
}

func (s *fakeSweep) Reconcile(_ context.Context, userID string) ([]models.AccessRequestRecord, error) {
	s.userID = userID
	return s.records, s.err
}

func newTestFlow(catalog *fakeCatalog, records *fakeRecords, messenger *fakeMessenger, views *fakeViews, directory fakeDirectory, sweep *fakeSweep) *Flow {
	flow := New(catalog, records, messenger, views, directory, sweep)
	flow.now = func() time.Time { return time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC) }
	return flow
}

func salesforceState() map[string]any {
	return map[string]any{
		formstate.CatalogBlockID: map[string]any{
			formstate.CatalogActionID: map[string]any{
				"selected_option": map[string]any{
					"value": "app_salesforce",
					"text":  map[string]any{"type": "plain_text", "text": "Salesforce"},
				},
			},
		},
		formstate.JustificationBlockID: map[string]any{
			formstate.JustificationActionID: map[string]any{"value": "need CRM access"},
		},
	}
}

func TestOpenRequestModalSearchesAndOpens(t *testing.T) {
	catalog := &fakeCatalog{items: []models.CatalogItem{{ID: "app_salesforce", Label: "Salesforce"}}}
	views := &fakeViews{}
	flow := newTestFlow(catalog, &fakeRecords{}, &fakeMessenger{}, views, fakeDirectory{}, &fakeSweep{})

	err := flow.OpenRequestModal(context.Background(), "U1", "trigger-1", "sales")
	require.NoError(t, err)
	assert.Equal(t, []string{"sales"}, catalog.searches)
	assert.Equal(t, "trigger-1", views.triggerID)
	require.Len(t, views.opened, 1)
	assert.Equal(t, "modal", views.opened[0]["type"])
	assert.Equal(t, "catalog_request_modal", views.opened[0]["callback_id"])
}

func TestRefreshModalSearchActionRerunsSearch(t *testing.T) {
	catalog := &fakeCatalog{}
	views := &fakeViews{}
	flow := newTestFlow(catalog, &fakeRecords{}, &fakeMessenger{}, views, fakeDirectory{}, &fakeSweep{})

	err := flow.RefreshModal(context.Background(), ModalEvent{
		ViewID:      "V1",
		Hash:        "h1",
		ActionID:    formstate.SearchActionID,
		ActionValue: "finance",
		State:       salesforceState(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"finance"}, catalog.searches)
	assert.Equal(t, "V1", views.viewID)
	assert.Equal(t, "h1", views.hash)
	require.Len(t, views.updated, 1)
}

func TestSubmitRequestWithoutCatalogItemReturnsFieldError(t *testing.T) {
	flow := newTestFlow(&fakeCatalog{}, &fakeRecords{}, &fakeMessenger{}, &fakeViews{}, fakeDirectory{}, &fakeSweep{})

	result, err := flow.SubmitRequest(context.Background(), "U1", map[string]any{})
	require.NoError(t, err)
	assert.Empty(t, result.RequestID)
	assert.Equal(t, "Select a catalog item", result.FieldErrors[formstate.CatalogBlockID])
}

func TestSubmitRequestForOtherWithoutUserReturnsFieldError(t *testing.T) {
	flow := newTestFlow(&fakeCatalog{}, &fakeRecords{}, &fakeMessenger{}, &fakeViews{}, fakeDirectory{}, &fakeSweep{})

	state := salesforceState()
	state[formstate.RequestForBlockID] = map[string]any{
		formstate.RequestForActionID: map[string]any{
			"selected_option": map[string]any{"value": formstate.RequestForOther},
		},
	}

	result, err := flow.SubmitRequest(context.Background(), "U1", state)
	require.NoError(t, err)
	assert.Equal(t, "Choose who should receive access", result.FieldErrors[formstate.RequestedForBlockID])
}

func TestSubmitRequestForSelfPersistsAndConfirms(t *testing.T) {
	catalog := &fakeCatalog{createResult: models.CreateRequestResponse{RequestID: "req-1", Status: "PENDING"}}
	records := &fakeRecords{}
	messenger := &fakeMessenger{}
	flow := newTestFlow(catalog, records, messenger, &fakeViews{}, fakeDirectory{email: "u1@example.com"}, &fakeSweep{})

	result, err := flow.SubmitRequest(context.Background(), "U1", salesforceState())
	require.NoError(t, err)
	assert.Empty(t, result.FieldErrors)
	assert.Equal(t, "req-1", result.RequestID)

	assert.Equal(t, "app_salesforce", catalog.createPayload.CatalogItemID)
	assert.Equal(t, "U1", catalog.createPayload.RequestedFor)
	assert.Equal(t, "U1", catalog.createPayload.RequestedBy)
	assert.Equal(t, "u1@example.com", catalog.createPayload.RequesterEmail)
	assert.Equal(t, "need CRM access", catalog.createPayload.Justification)

	require.Len(t, records.saved, 1)
	saved := records.saved[0]
	assert.Equal(t, "req-1", saved.ID)
	assert.Equal(t, "U1", saved.RequesterUserID)
	assert.Equal(t, "U1", saved.RequestedForUserID)
	assert.Equal(t, "PENDING", saved.Status)
	assert.Equal(t, "2024-03-05T12:00:00Z", saved.RequestedAt)
	assert.Equal(t, "2024-03-05T12:00:00Z", saved.LastSyncedAt)

	require.Len(t, messenger.dms["U1"], 1)
	assert.Contains(t, messenger.dms["U1"][0], "Salesforce")
	assert.Contains(t, messenger.dms["U1"][0], "req-1")
	assert.Len(t, messenger.dms, 1, "no recipient DM for self requests")
}

func TestSubmitRequestForOtherNotifiesBothUsers(t *testing.T) {
	catalog := &fakeCatalog{createResult: models.CreateRequestResponse{RequestID: "req-2", Status: "PENDING"}}
	messenger := &fakeMessenger{}
	flow := newTestFlow(catalog, &fakeRecords{}, messenger, &fakeViews{}, fakeDirectory{}, &fakeSweep{})

	state := salesforceState()
	state[formstate.RequestForBlockID] = map[string]any{
		formstate.RequestForActionID: map[string]any{
			"selected_option": map[string]any{"value": formstate.RequestForOther},
		},
	}
	state[formstate.RequestedForBlockID] = map[string]any{
		formstate.RequestedForActionID: map[string]any{"selected_user": "U2"},
	}

	result, err := flow.SubmitRequest(context.Background(), "U1", state)
	require.NoError(t, err)
	assert.Equal(t, "req-2", result.RequestID)
	assert.Equal(t, "U2", catalog.createPayload.RequestedFor)

	require.Len(t, messenger.dms["U1"], 1)
	assert.Contains(t, messenger.dms["U1"][0], "for <@U2>")
	require.Len(t, messenger.dms["U2"], 1)
	assert.Contains(t, messenger.dms["U2"][0], "<@U1> requested")
}

func TestSubmitRequestBackendFailureBecomesFieldError(t *testing.T) {
	catalog := &fakeCatalog{createErr: &iga.SubmissionError{StatusCode: 502, Body: "upstream unavailable"}}
	records := &fakeRecords{}
	messenger := &fakeMessenger{}
	flow := newTestFlow(catalog, records, messenger, &fakeViews{}, fakeDirectory{}, &fakeSweep{})

	result, err := flow.SubmitRequest(context.Background(), "U1", salesforceState())
	require.NoError(t, err)
	assert.Empty(t, result.RequestID)
	assert.Contains(t, result.FieldErrors[formstate.CatalogBlockID], "502")
	assert.Empty(t, records.saved)
	assert.Empty(t, messenger.dms)
}

func TestSubmitRequestPersistFailureBecomesFieldError(t *testing.T) {
	catalog := &fakeCatalog{createResult: models.CreateRequestResponse{RequestID: "req-3", Status: "PENDING"}}
	records := &fakeRecords{putErr: errors.New("datastore down")}
	messenger := &fakeMessenger{}
	flow := newTestFlow(catalog, records, messenger, &fakeViews{}, fakeDirectory{}, &fakeSweep{})

	result, err := flow.SubmitRequest(context.Background(), "U1", salesforceState())
	require.NoError(t, err)
	assert.Equal(t, "Unable to save the request; try again", result.FieldErrors[formstate.CatalogBlockID])
	assert.Empty(t, messenger.dms)
}

func TestSubmitRequestDirectoryFailureStillSubmits(t *testing.T) {
	catalog := &fakeCatalog{createResult: models.CreateRequestResponse{RequestID: "req-4", Status: "PENDING"}}
	flow := newTestFlow(catalog, &fakeRecords{}, &fakeMessenger{}, &fakeViews{}, fakeDirectory{err: errors.New("gateway timeout")}, &fakeSweep{})

	result, err := flow.SubmitRequest(context.Background(), "U1", salesforceState())
	require.NoError(t, err)
	assert.Equal(t, "req-4", result.RequestID)
	assert.Empty(t, catalog.createPayload.RequesterEmail)
}

func TestRenderHomePublishesReconciledRequests(t *testing.T) {
	sweep := &fakeSweep{records: []models.AccessRequestRecord{
		{ID: "r1", CatalogItemLabel: "Salesforce", Status: "APPROVED", RequestedAt: "2024-03-01T10:00:00Z"},
		{ID: "r2", CatalogItemLabel: "Finance Approver", Status: "PENDING", RequestedAt: "2024-02-01T10:00:00Z"},
	}}
	views := &fakeViews{}
	flow := newTestFlow(&fakeCatalog{}, &fakeRecords{}, &fakeMessenger{}, views, fakeDirectory{}, sweep)

	err := flow.RenderHome(context.Background(), "U1")
	require.NoError(t, err)
	assert.Equal(t, "U1", sweep.userID)
	assert.Equal(t, "U1", views.homeUser)
	require.Len(t, views.published, 1)
	assert.Equal(t, "home", views.published[0]["type"])

	rendered := fmt.Sprint(views.published[0]["blocks"])
	assert.Contains(t, rendered, "Salesforce")
	assert.Contains(t, rendered, "APPROVED")
	assert.Contains(t, rendered, "Mar 1, 2024")
}

func TestRenderHomeSweepFailurePropagates(t *testing.T) {
	sweep := &fakeSweep{err: errors.New("query timeout")}
	views := &fakeViews{}
	flow := newTestFlow(&fakeCatalog{}, &fakeRecords{}, &fakeMessenger{}, views, fakeDirectory{}, sweep)

	err := flow.RenderHome(context.Background(), "U1")
	assert.Error(t, err)
	assert.Empty(t, views.published)
}
