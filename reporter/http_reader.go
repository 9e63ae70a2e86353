// Reader is a testing facility to read the output of a http reporter.

package reporter

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

type HttpReader struct {
	baseURL string
}

func NewHttpReader(serverIP string, serverPort string) *HttpReader {
	return &HttpReader{baseURL: "http://" + serverIP + ":" + serverPort}
}

// NewHttpReaderFromURL accepts a full base url such as httptest.Server.URL.
func NewHttpReaderFromURL(baseURL string) *HttpReader {
	return &HttpReader{baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (hr *HttpReader) GetHello() (string, error) {
	body, _, err := hr.get(ROUTE_HELLO)
	return body, err
}

// GetPosition returns the body and the status code.
func (hr *HttpReader) GetPosition(key string) (string, int, error) {
	return hr.get("/position/" + key)
}

func (hr *HttpReader) GetPositions() (string, int, error) {
	return hr.get(ROUTE_POSITIONS)
}

func (hr *HttpReader) GetMints(key string) (string, int, error) {
	return hr.get("/mints/" + key)
}

func (hr *HttpReader) GetMetrics() (string, error) {
	body, code, err := hr.get(ROUTE_METRICS)
	if err == nil && code != http.StatusOK {
		err = fmt.Errorf("unexpected status %d", code)
	}
	return body, err
}

func (hr *HttpReader) get(path string) (string, int, error) {
	resp, err := http.Get(hr.baseURL + path)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, err
	}
	return string(body), resp.StatusCode, nil
}
