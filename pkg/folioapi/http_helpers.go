package folioapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	errInvalidJSON = errors.New("body is not valid JSON")
	errEmptyBody   = errors.New("body is empty")
)

// url builds a complete URL by appending the path to the base URL.
func (c *Client) url(path string) string {
	return c.BaseURL + path
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// doRequest performs an HTTP request with the client's HTTP client. The
// Authorization header is only set when token is non-empty.
func (c *Client) doRequest(
	ctx context.Context,
	method, path string,
	body io.Reader,
	headers map[string]string,
	token string,
) (*http.Response, error) {
	target := c.url(path)

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, &NetworkError{Method: method, URL: target, Err: err}
	}

	return resp, nil
}

// readBody drains and closes the response body. Non-2xx statuses become a
// *RequestError.
func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{
			Method: resp.Request.Method,
			URL:    resp.Request.URL.String(),
			Err:    fmt.Errorf("failed to read response body: %w", err),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseErrorResponse(resp.StatusCode, body)
	}
	return body, nil
}

// decodeRecord reads a response into a generic JSON value. Numbers are kept
// as json.Number so record ids survive untouched. A 204 yields nil; any other
// 2xx body must be valid JSON, including an empty one.
func decodeRecord(resp *http.Response) (Record, error) {
	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &ParseError{StatusCode: resp.StatusCode, Err: errEmptyBody}
	}
	if !json.Valid(body) {
		return nil, &ParseError{StatusCode: resp.StatusCode, Err: errInvalidJSON}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var out Record
	if err := dec.Decode(&out); err != nil {
		return nil, &ParseError{StatusCode: resp.StatusCode, Err: err}
	}
	return out, nil
}

// decodeJSON reads a response into target. Used for the typed auth endpoints.
func decodeJSON(resp *http.Response, target any) error {
	body, err := readBody(resp)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return &ParseError{StatusCode: resp.StatusCode, Err: err}
	}
	return nil
}

// discardBody checks the status and ignores the payload.
func discardBody(resp *http.Response) error {
	_, err := readBody(resp)
	return err
}

// parseErrorResponse extracts the most useful message from an error body.
func parseErrorResponse(status int, body []byte) *RequestError {
	var envelope struct {
		Error any `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if msg, ok := envelope.Error.(string); ok && msg != "" {
			return &RequestError{StatusCode: status, Message: msg}
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return &RequestError{StatusCode: status, Message: text}
	}

	return &RequestError{StatusCode: status, Message: fmt.Sprintf("Request failed (%d)", status)}
}
