package flows

import (
	"time"

	"github.com/providentiaww/iga-slack-bridge/internal/formstate"
	"github.com/providentiaww/iga-slack-bridge/internal/models"
)

// optionTextLimit is the platform's cap on select option labels.
const optionTextLimit = 75

// ModalOptions carries everything needed to render the request modal,
// including previously entered values so a re-render does not lose them.
type ModalOptions struct {
	SearchQuery      string
	Items            []models.CatalogItem
	SelectedItemID   string
	RequestFor       string // formstate.RequestForSelf or formstate.RequestForOther
	RequestedForUser string
	Justification    string
}

// BuildRequestModal renders the catalog request modal. The returned map is
// the platform's view JSON; the gateway does the actual rendering.
func BuildRequestModal(opts ModalOptions) map[string]any {
	requestFor := opts.RequestFor
	if requestFor != formstate.RequestForOther {
		requestFor = formstate.RequestForSelf
	}

	selectOptions := make([]map[string]any, 0, len(opts.Items))
	var initialOption map[string]any
	for _, item := range opts.Items {
		label := item.Label
		if item.Type != "" {
			label += " (" + item.Type + ")"
		}
		option := map[string]any{
			"text":  plainText(truncate(label, optionTextLimit)),
			"value": item.ID,
		}
		if item.Description != "" {
			option["description"] = truncate(item.Description, optionTextLimit)
		}
		selectOptions = append(selectOptions, option)
		if opts.SelectedItemID != "" && item.ID == opts.SelectedItemID {
			initialOption = option
		}
	}

	catalogPlaceholder := "Select an item"
	if len(opts.Items) == 0 {
		catalogPlaceholder = "Type a search term to see results"
	}

	catalogSelect := map[string]any{
		"type":        "static_select",
		"action_id":   formstate.CatalogActionID,
		"placeholder": plainText(catalogPlaceholder),
		"options":     selectOptions,
	}
	if initialOption != nil {
		catalogSelect["initial_option"] = initialOption
	}

	requestForLabel := "Myself"
	if requestFor == formstate.RequestForOther {
		requestForLabel = "Someone else"
	}

	requestedForHint := "We'll default to you if left blank"
	if requestFor == formstate.RequestForOther {
		requestedForHint = "Select the teammate who should receive access"
	}

	requestedForElement := map[string]any{
		"type":      "users_select",
		"action_id": formstate.RequestedForActionID,
	}
	if opts.RequestedForUser != "" {
		requestedForElement["initial_user"] = opts.RequestedForUser
	}

	return map[string]any{
		"type":        "modal",
		"callback_id": "catalog_request_modal",
		"title":       plainText("Request Access"),
		"submit":      plainText("Request"),
		"close":       plainText("Cancel"),
		"blocks": []map[string]any{
			{
				"type":            "input",
				"block_id":        formstate.SearchBlockID,
				"dispatch_action": true,
				"label":           plainText("Search catalog"),
				"element": map[string]any{
					"type":          "plain_text_input",
					"action_id":     formstate.SearchActionID,
					"initial_value": opts.SearchQuery,
					"placeholder":   plainText("Search for apps, roles, or entitlements"),
				},
			},
			{
				"type":     "input",
				"block_id": formstate.CatalogBlockID,
				"label":    plainText("Catalog item"),
				"element":  catalogSelect,
			},
			{
				"type":     "input",
				"block_id": formstate.RequestForBlockID,
				"label":    plainText("Request for"),
				"element": map[string]any{
					"type":      "static_select",
					"action_id": formstate.RequestForActionID,
					"initial_option": map[string]any{
						"text":  plainText(requestForLabel),
						"value": requestFor,
					},
					"options": []map[string]any{
						{"text": plainText("Myself"), "value": formstate.RequestForSelf},
						{"text": plainText("Someone else"), "value": formstate.RequestForOther},
					},
				},
			},
			{
				"type":     "input",
				"optional": requestFor == formstate.RequestForSelf,
				"block_id": formstate.RequestedForBlockID,
				"label":    plainText("Who should receive access?"),
				"element":  requestedForElement,
				"hint":     plainText(requestedForHint),
			},
			{
				"type":     "input",
				"optional": true,
				"block_id": formstate.JustificationBlockID,
				"label":    plainText("Business justification (sent to Ping IGA)"),
				"element": map[string]any{
					"type":          "plain_text_input",
					"action_id":     formstate.JustificationActionID,
					"multiline":     true,
					"initial_value": opts.Justification,
				},
				"hint": plainText("Sensitive details are not stored in Slack"),
			},
		},
	}
}

// BuildHomeView renders the App Home request list.
func BuildHomeView(requests []models.RequestSummary) map[string]any {
	blocks := []map[string]any{
		{
			"type": "header",
			"text": plainText("Ping IGA requests"),
		},
		{
			"type": "section",
			"text": markdown("Search the catalog with */iga* or the Ping IGA shortcuts. Requests and statuses refresh whenever you open this page."),
		},
	}

	if len(requests) == 0 {
		blocks = append(blocks, map[string]any{
			"type": "section",
			"text": markdown("No recent requests yet. Use */iga* to get started!"),
		})
	}

	for _, request := range requests {
		blocks = append(blocks,
			map[string]any{
				"type": "section",
				"text": markdown("*" + request.CatalogItemLabel + "*\nStatus: *" + request.Status + "*\nRequested: " + formatDate(request.RequestedAt)),
				"accessory": map[string]any{
					"type":      "button",
					"action_id": "view_request_in_iga",
					"text":      plainText("Open in Ping IGA"),
					"value":     request.RequestID,
				},
			},
			map[string]any{"type": "divider"},
		)
	}

	return map[string]any{
		"type":   "home",
		"blocks": blocks,
	}
}

func plainText(text string) map[string]any {
	return map[string]any{"type": "plain_text", "text": text}
}

func markdown(text string) map[string]any {
	return map[string]any{"type": "mrkdwn", "text": text}
}

func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max-1] + "…"
}

// formatDate renders an RFC3339 timestamp for display, passing unparsable
// values through untouched.
func formatDate(iso string) string {
	at, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return iso
	}
	return at.Format("Jan 2, 2006 3:04 PM")
}
