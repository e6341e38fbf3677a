// Package formstate recovers the request modal's entered values from the raw
// view-state payload the platform sends with each interaction event. It is
// the only place that trusts that external shape; everything downstream works
// with the typed FormState.
package formstate

// Block and action ids used by the request modal
const (
	SearchBlockID         = "search_block"
	SearchActionID        = "search_query"
	CatalogBlockID        = "catalog_selection"
	CatalogActionID       = "catalog_select"
	RequestForBlockID     = "request_for"
	RequestForActionID    = "request_for_select"
	RequestedForBlockID   = "requested_for_user"
	RequestedForActionID  = "requested_for_select"
	JustificationBlockID  = "justification"
	JustificationActionID = "justification_input"
)

// Request-for select values
const (
	RequestForSelf  = "self"
	RequestForOther = "other"
)

// FormState is the typed snapshot of the request modal. Zero values mean the
// field was not filled in.
type FormState struct {
	SearchQuery        string
	SelectedItemID     string
	SelectedItemLabel  string
	RequestFor         string // RequestForSelf or RequestForOther
	RequestedForUserID string
	Justification      string
}

// FromViewState builds a FormState from the untyped view-state values map
// (state.values in the event payload). Missing or oddly shaped entries
// degrade to zero values; the function never fails.
func FromViewState(values map[string]any) FormState {
	state := FormState{
		SearchQuery:        inputValue(values, SearchBlockID, SearchActionID),
		RequestFor:         RequestForSelf,
		RequestedForUserID: selectedUser(values, RequestedForBlockID, RequestedForActionID),
		Justification:      inputValue(values, JustificationBlockID, JustificationActionID),
	}

	if option := selectedOption(values, CatalogBlockID, CatalogActionID); option != nil {
		state.SelectedItemID, _ = option["value"].(string)
		state.SelectedItemLabel = optionText(option)
		if state.SelectedItemLabel == "" {
			state.SelectedItemLabel = state.SelectedItemID
		}
	}

	if option := selectedOption(values, RequestForBlockID, RequestForActionID); option != nil {
		if value, _ := option["value"].(string); value == RequestForOther {
			state.RequestFor = RequestForOther
		}
	}

	return state
}

func element(values map[string]any, blockID, actionID string) map[string]any {
	block, _ := values[blockID].(map[string]any)
	if block == nil {
		return nil
	}
	elem, _ := block[actionID].(map[string]any)
	return elem
}

func inputValue(values map[string]any, blockID, actionID string) string {
	elem := element(values, blockID, actionID)
	if elem == nil {
		return ""
	}
	value, _ := elem["value"].(string)
	return value
}

func selectedOption(values map[string]any, blockID, actionID string) map[string]any {
	elem := element(values, blockID, actionID)
	if elem == nil {
		return nil
	}
	option, _ := elem["selected_option"].(map[string]any)
	return option
}

func selectedUser(values map[string]any, blockID, actionID string) string {
	elem := element(values, blockID, actionID)
	if elem == nil {
		return ""
	}
	user, _ := elem["selected_user"].(string)
	return user
}

func optionText(option map[string]any) string {
	text, _ := option["text"].(map[string]any)
	if text == nil {
		return ""
	}
	value, _ := text["text"].(string)
	return value
}
