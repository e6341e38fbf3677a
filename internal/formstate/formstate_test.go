package formstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromViewStateFullModal(t *testing.T) {
	values := map[string]any{
		SearchBlockID: map[string]any{
			SearchActionID: map[string]any{"type": "plain_text_input", "value": "sales"},
		},
		CatalogBlockID: map[string]any{
			CatalogActionID: map[string]any{
				"type": "static_select",
				"selected_option": map[string]any{
					"value": "app_salesforce",
					"text":  map[string]any{"type": "plain_text", "text": "Salesforce"},
				},
			},
		},
		RequestForBlockID: map[string]any{
			RequestForActionID: map[string]any{
				"type":            "static_select",
				"selected_option": map[string]any{"value": RequestForOther},
			},
		},
		RequestedForBlockID: map[string]any{
			RequestedForActionID: map[string]any{"type": "users_select", "selected_user": "U456"},
		},
		JustificationBlockID: map[string]any{
			JustificationActionID: map[string]any{"type": "plain_text_input", "value": "quarterly reporting"},
		},
	}

	state := FromViewState(values)

	assert.Equal(t, "sales", state.SearchQuery)
	assert.Equal(t, "app_salesforce", state.SelectedItemID)
	assert.Equal(t, "Salesforce", state.SelectedItemLabel)
	assert.Equal(t, RequestForOther, state.RequestFor)
	assert.Equal(t, "U456", state.RequestedForUserID)
	assert.Equal(t, "quarterly reporting", state.Justification)
}

func TestFromViewStateEmptyDefaultsToSelf(t *testing.T) {
	state := FromViewState(map[string]any{})

	assert.Empty(t, state.SearchQuery)
	assert.Empty(t, state.SelectedItemID)
	assert.Equal(t, RequestForSelf, state.RequestFor)
	assert.Empty(t, state.RequestedForUserID)
	assert.Empty(t, state.Justification)
}

func TestFromViewStateNilValues(t *testing.T) {
	state := FromViewState(nil)
	assert.Equal(t, RequestForSelf, state.RequestFor)
}

func TestFromViewStateLabelFallsBackToID(t *testing.T) {
	values := map[string]any{
		CatalogBlockID: map[string]any{
			CatalogActionID: map[string]any{
				"selected_option": map[string]any{"value": "ent_marketing_analytics"},
			},
		},
	}

	state := FromViewState(values)
	assert.Equal(t, "ent_marketing_analytics", state.SelectedItemID)
	assert.Equal(t, "ent_marketing_analytics", state.SelectedItemLabel)
}

func TestFromViewStateIgnoresMalformedEntries(t *testing.T) {
	values := map[string]any{
		SearchBlockID:       "not a block",
		CatalogBlockID:      map[string]any{CatalogActionID: map[string]any{"selected_option": "not an option"}},
		RequestForBlockID:   map[string]any{RequestForActionID: map[string]any{"selected_option": map[string]any{"value": 42}}},
		RequestedForBlockID: map[string]any{RequestedForActionID: map[string]any{"selected_user": 7}},
	}

	state := FromViewState(values)
	assert.Empty(t, state.SearchQuery)
	assert.Empty(t, state.SelectedItemID)
	assert.Equal(t, RequestForSelf, state.RequestFor)
	assert.Empty(t, state.RequestedForUserID)
}
