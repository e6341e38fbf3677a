// Package flows implements the user-facing operations of the bridge: the
// catalog request modal and the App Home request list. Each operation is a
// short-lived invocation triggered by a platform event.
package flows

import (
	"context"
	"log"
	"time"

	"github.com/providentiaww/iga-slack-bridge/internal/formstate"
	"github.com/providentiaww/iga-slack-bridge/internal/models"
	"github.com/providentiaww/iga-slack-bridge/internal/platform"
)

// CatalogClient is the IGA surface the flows need.
type CatalogClient interface {
	SearchCatalog(ctx context.Context, query string) []models.CatalogItem
	CreateRequest(ctx context.Context, payload models.CreateRequestPayload) (models.CreateRequestResponse, error)
}

// Reconciler refreshes a user's request records. Implemented by
// reconcile.Sweep.
type Reconciler interface {
	Reconcile(ctx context.Context, userID string) ([]models.AccessRequestRecord, error)
}

// Flow wires the bridge operations to the platform capabilities.
type Flow struct {
	catalog   CatalogClient
	records   platform.RecordStore
	messenger platform.Messenger
	views     platform.ViewPublisher
	directory platform.UserDirectory
	sweep     Reconciler
	now       func() time.Time
}

// New creates the flow layer.
func New(catalog CatalogClient, records platform.RecordStore, messenger platform.Messenger, views platform.ViewPublisher, directory platform.UserDirectory, sweep Reconciler) *Flow {
	return &Flow{
		catalog:   catalog,
		records:   records,
		messenger: messenger,
		views:     views,
		directory: directory,
		sweep:     sweep,
		now:       time.Now,
	}
}

// OpenRequestModal runs the initial catalog search and opens the request
// modal against the given interactivity trigger.
func (f *Flow) OpenRequestModal(ctx context.Context, userID, triggerID, searchTerm string) error {
	items := f.catalog.SearchCatalog(ctx, searchTerm)
	return f.views.OpenModal(ctx, triggerID, BuildRequestModal(ModalOptions{
		SearchQuery:      searchTerm,
		Items:            items,
		RequestedForUser: userID,
	}))
}

// ModalEvent describes a block action inside the open modal.
type ModalEvent struct {
	ViewID      string
	Hash        string
	ActionID    string
	ActionValue string
	State       map[string]any
}

// RefreshModal re-renders the modal after a block action, re-running the
// search and preserving everything the user already entered.
func (f *Flow) RefreshModal(ctx context.Context, event ModalEvent) error {
	state := formstate.FromViewState(event.State)

	query := state.SearchQuery
	requestFor := state.RequestFor
	switch event.ActionID {
	case formstate.SearchActionID:
		if event.ActionValue != "" {
			query = event.ActionValue
		}
	case formstate.RequestForActionID:
		if event.ActionValue == formstate.RequestForOther {
			requestFor = formstate.RequestForOther
		} else {
			requestFor = formstate.RequestForSelf
		}
	}

	items := f.catalog.SearchCatalog(ctx, query)
	return f.views.UpdateModal(ctx, event.ViewID, event.Hash, BuildRequestModal(ModalOptions{
		SearchQuery:      query,
		Items:            items,
		SelectedItemID:   state.SelectedItemID,
		RequestFor:       requestFor,
		RequestedForUser: state.RequestedForUserID,
		Justification:    state.Justification,
	}))
}

// SubmitResult reports the outcome of a modal submission. FieldErrors maps
// block ids to messages the platform shows inline; it is set instead of an
// error so the modal stays open.
type SubmitResult struct {
	RequestID   string
	FieldErrors map[string]string
}

// SubmitRequest validates the submitted form, creates the IGA request,
// persists the record, and confirms via direct message. Submission failures
// against a configured backend come back as field errors on the form.
func (f *Flow) SubmitRequest(ctx context.Context, userID string, rawState map[string]any) (SubmitResult, error) {
	state := formstate.FromViewState(rawState)

	if state.SelectedItemID == "" {
		return SubmitResult{FieldErrors: map[string]string{
			formstate.CatalogBlockID: "Select a catalog item",
		}}, nil
	}

	requestedFor := userID
	if state.RequestFor == formstate.RequestForOther {
		requestedFor = state.RequestedForUserID
	}
	if requestedFor == "" {
		return SubmitResult{FieldErrors: map[string]string{
			formstate.RequestedForBlockID: "Choose who should receive access",
		}}, nil
	}

	requesterEmail, err := f.directory.UserEmail(ctx, userID)
	if err != nil {
		log.Printf("Warning: unable to resolve email for %s: %v", userID, err)
	}

	result, err := f.catalog.CreateRequest(ctx, models.CreateRequestPayload{
		CatalogItemID:    state.SelectedItemID,
		CatalogItemLabel: state.SelectedItemLabel,
		RequestedFor:     requestedFor,
		RequestedBy:      userID,
		RequesterEmail:   requesterEmail,
		Justification:    state.Justification,
	})
	if err != nil {
		log.Printf("Error: unable to submit IGA request for %s: %v", userID, err)
		return SubmitResult{FieldErrors: map[string]string{
			formstate.CatalogBlockID: err.Error(),
		}}, nil
	}

	now := f.now().UTC().Format(time.RFC3339)
	status := result.Status
	if status == "" {
		status = models.StatusPending
	}
	record := models.AccessRequestRecord{
		ID:                 result.RequestID,
		RequesterUserID:    userID,
		RequesterEmail:     requesterEmail,
		RequestedForUserID: requestedFor,
		CatalogItemID:      state.SelectedItemID,
		CatalogItemLabel:   state.SelectedItemLabel,
		Status:             status,
		Justification:      state.Justification,
		RequestedAt:        now,
		LastSyncedAt:       now,
	}
	if err := f.records.Put(ctx, record); err != nil {
		log.Printf("Error: unable to persist request %s: %v", result.RequestID, err)
		return SubmitResult{FieldErrors: map[string]string{
			formstate.CatalogBlockID: "Unable to save the request; try again",
		}}, nil
	}

	summary := "You requested *" + state.SelectedItemLabel + "*"
	if requestedFor != userID {
		summary += " for <@" + requestedFor + ">"
	}
	text := summary + ". Ping IGA request ID: *" + result.RequestID + "*. We'll notify you as the status changes."
	if err := f.messenger.SendDM(ctx, userID, text); err != nil {
		log.Printf("Error: unable to confirm request %s to %s: %v", result.RequestID, userID, err)
	}

	if requestedFor != userID {
		recipientText := "<@" + userID + "> requested *" + state.SelectedItemLabel + "* for you. Request ID: *" + result.RequestID + "*."
		if err := f.messenger.SendDM(ctx, requestedFor, recipientText); err != nil {
			log.Printf("Error: unable to notify recipient %s about %s: %v", requestedFor, result.RequestID, err)
		}
	}

	return SubmitResult{RequestID: result.RequestID}, nil
}
