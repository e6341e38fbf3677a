package models

// CatalogItem is a searchable unit of access (application, entitlement, or
// role) in the governance catalog. Items are rebuilt on every search and
// never persisted.
type CatalogItem struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
}

// CreateRequestPayload is the body sent to the IGA request endpoint.
type CreateRequestPayload struct {
	CatalogItemID    string `json:"catalogItemId"`
	CatalogItemLabel string `json:"catalogItemLabel"`
	RequestedFor     string `json:"requestedFor"`
	RequestedBy      string `json:"requestedBy"`
	RequesterEmail   string `json:"requesterEmail,omitempty"`
	Justification    string `json:"justification,omitempty"`
}

// CreateRequestResponse is the canonical result of a submission.
type CreateRequestResponse struct {
	RequestID string `json:"requestId"`
	Status    string `json:"status"`
}

// AccessRequestRecord is the persisted state of one access request. The ID is
// the IGA request identifier (or a synthesized demo id) and is the primary
// key. Records are created on submission and updated only by the
// reconciliation sweep; the bridge never deletes them.
type AccessRequestRecord struct {
	ID                 string `json:"id"`
	RequesterUserID    string `json:"requester_user_id"`
	RequesterEmail     string `json:"requester_email,omitempty"`
	RequestedForUserID string `json:"requested_for_user_id"`
	CatalogItemID      string `json:"catalog_item_id"`
	CatalogItemLabel   string `json:"catalog_item_label"`
	Status             string `json:"status"`
	Justification      string `json:"justification,omitempty"`
	RequestedAt        string `json:"requested_at"`
	LastSyncedAt       string `json:"last_synced_at,omitempty"`
}

// RequestSummary is the per-request line rendered on the App Home view.
type RequestSummary struct {
	RequestID        string `json:"request_id"`
	CatalogItemLabel string `json:"catalog_item_label"`
	Status           string `json:"status"`
	RequestedAt      string `json:"requested_at"`
}

// StatusPending is the status assumed until the IGA backend reports one.
const StatusPending = "PENDING"

// Error codes returned in service responses
const (
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeAuthFailed     = "AUTH_FAILED"
	ErrCodeAPIError       = "API_ERROR"
)

// ErrorInfo carries a structured error in a service response.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BridgeResponse is the envelope returned by the bridge service endpoints.
type BridgeResponse struct {
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Error     *ErrorInfo `json:"error,omitempty"`
	RequestID string     `json:"request_id,omitempty"`
}

// SuccessResponse builds a success envelope.
func SuccessResponse(data any, requestID string) BridgeResponse {
	return BridgeResponse{Success: true, Data: data, RequestID: requestID}
}

// ErrorResponse builds an error envelope.
func ErrorResponse(code, message, requestID string) BridgeResponse {
	return BridgeResponse{
		Success:   false,
		Error:     &ErrorInfo{Code: code, Message: message},
		RequestID: requestID,
	}
}
