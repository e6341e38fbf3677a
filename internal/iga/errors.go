package iga

import "fmt"

// AuthError indicates the token endpoint rejected the client-credentials
// exchange.
type AuthError struct {
	StatusCode int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("unable to obtain IGA access token: HTTP %d", e.StatusCode)
}

// SubmissionError indicates a configured IGA backend rejected a request
// creation. The response body is kept so the form layer can surface it.
type SubmissionError struct {
	StatusCode int
	Body       string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("IGA returned %d when creating the request. %s", e.StatusCode, e.Body)
}
