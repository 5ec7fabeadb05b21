package index

import "net/http"

// NewPyPIWithClient exposes the client-injecting constructor to tests.
func NewPyPIWithClient(baseURL, cacheDir string, client *http.Client) (*PyPI, error) {
	return newPyPIWithClient(baseURL, cacheDir, client)
}
