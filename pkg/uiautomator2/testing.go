package uiautomator2

import (
	"io"
	"log"
	"net/http"
)

// NewTestElement creates an Element for testing purposes.
// This should only be used in tests.
func NewTestElement(id string, client *Client) *Element {
	return &Element{
		id:     id,
		client: client,
	}
}

// NewTestClient creates a Client pointed at the given base URL with an
// active session. This should only be used in tests.
func NewTestClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		http:      httpClient,
		baseURL:   baseURL,
		sessionID: "test-session",
		logger:    log.New(io.Discard, "", 0),
	}
}

// SetSession sets the session ID for testing purposes.
func (c *Client) SetSession(sessionID string) {
	c.sessionID = sessionID
}
