// Package client is the HTTP client of the inference service that builds and
// expands architecture graphs.
//
//	c, err := client.New(client.WithBaseURL("http://localhost:8000"))
//	if err != nil {
//		return err
//	}
//	resp, err := c.BuildGraph(ctx, "netflix", false, true)
//
// Transport failures and 5xx answers are retried with exponential backoff, and
// a circuit breaker stops calling a service that keeps failing. Non-2xx answers
// are returned as *APIError.
package client
