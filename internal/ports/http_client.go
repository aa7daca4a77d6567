package ports

import "net/http"

// HTTPClient posts payloads to the HTTP intake. *http.Client satisfies it;
// tests and embedders substitute their own to observe or redirect requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
