// Package sheets implements the Sheets Client (C3): a thin, authenticated
// HTTP client over the Google Sheets API v4 "values.get" endpoint, the
// Schedule Sync Orchestrator's only upstream dependency.
package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
	"github.com/kunpeto/driver-management-system-sub001/domain/syncjob"
	"github.com/kunpeto/driver-management-system-sub001/infrastructure/middleware"
)

// AccessTokenSource supplies a bearer token for a department's Google
// service account. domain/credential.Manager implements this (C2).
type AccessTokenSource interface {
	AcquireAccessToken(ctx context.Context, dept department.Department) (string, error)
}

const sheetsAPIBase = "https://sheets.googleapis.com/v4/spreadsheets"

// Config maps (kind, department) to the Google Sheets spreadsheet id
// holding that roster. Attendance and Duty rosters live in separate
// spreadsheets; the tab within each is resolved by the caller via the ROC
// year/month formula.
type Config struct {
	SpreadsheetIDs map[syncjob.Kind]map[department.Department]string
}

// Client implements syncjob.SheetFetcher against the real Google Sheets
// API, following the teacher's generic-HTTP-client shape (an http.Client
// with a fixed timeout, context-scoped requests, JSON decode into a typed
// response struct) rather than pulling in the full google-api-go-client
// SDK for one read-only endpoint.
type Client struct {
	httpClient *http.Client
	apiBase    string
	credential AccessTokenSource
	config     Config
}

// NewClient builds a Client. credential supplies the bearer token for each
// department's Google service account via C2.
func NewClient(credential AccessTokenSource, config Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiBase:    sheetsAPIBase,
		credential: credential,
		config:     config,
	}
}

type valuesGetResponse struct {
	Range  string     `json:"range"`
	Values [][]string `json:"values"`
}

// FetchTab retrieves one tab's full used range as a row-major grid
// (spec §4.3: the Sheets Client exposes tab fetches to C6).
func (c *Client) FetchTab(ctx context.Context, kind syncjob.Kind, dept department.Department, tabName string) (syncjob.Grid, error) {
	spreadsheetID, err := c.resolveSpreadsheetID(kind, dept)
	if err != nil {
		return syncjob.Grid{}, err
	}

	token, err := c.credential.AcquireAccessToken(ctx, dept)
	if err != nil {
		return syncjob.Grid{}, middleware.ErrUpstreamUnavailable("acquire sheets access token", err)
	}

	reqURL := fmt.Sprintf("%s/%s/values/%s", c.apiBase, spreadsheetID, url.PathEscape(tabName))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return syncjob.Grid{}, fmt.Errorf("sheets: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return syncjob.Grid{}, middleware.ErrUpstreamUnavailable(fmt.Sprintf("fetch tab %q", tabName), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return syncjob.Grid{}, fmt.Errorf("sheets: read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return syncjob.Grid{}, middleware.ErrUpstreamUnavailable(fmt.Sprintf("no such tab %q", tabName), fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return syncjob.Grid{}, middleware.ErrUpstreamUnavailable(fmt.Sprintf("tab %q fetch failed", tabName), fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}

	var parsed valuesGetResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return syncjob.Grid{}, fmt.Errorf("sheets: decode response: %w", err)
	}
	return syncjob.Grid{Rows: parsed.Values}, nil
}

func (c *Client) resolveSpreadsheetID(kind syncjob.Kind, dept department.Department) (string, error) {
	byDept, ok := c.config.SpreadsheetIDs[kind]
	if !ok {
		return "", fmt.Errorf("sheets: no spreadsheet configured for kind %q", kind)
	}
	id, ok := byDept[dept]
	if !ok {
		return "", fmt.Errorf("sheets: no spreadsheet configured for %s/%s", kind, dept)
	}
	return id, nil
}
