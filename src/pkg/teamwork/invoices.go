package teamwork

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/tuumbleweed/xerr"
)

/*
CreateInvoice creates an empty invoice on a project.

The result carries the HTTP status even when an error is returned, so callers can tell
a rejected request (for example a project without billing) from a transport failure.
*/
func (c *Client) CreateInvoice(ctx context.Context, projectID ID, shell InvoiceShell) (result InvoiceResult, e *xerr.Error) {
	payload := map[string]InvoiceShell{"invoice": shell}
	resp, e := c.do(ctx, "POST", "/projects/"+url.PathEscape(string(projectID))+"/invoices.json", nil, payload)
	result.HTTPStatus = resp.StatusCode
	if e != nil {
		return result, e
	}
	decodeErr := json.Unmarshal(resp.Body, &result)
	if decodeErr != nil {
		c.log.Error("Unable to decode invoice creation response of %s: %s", resp.URL, decodeErr)
		return result, xerr.NewError(decodeErr, "Failed to decode invoice creation response", resp.URL)
	}
	result.HTTPStatus = resp.StatusCode
	return result, nil
}

// AddLineItems attaches expenses or time logs to an invoice and returns the reported STATUS.
func (c *Client) AddLineItems(ctx context.Context, invoiceID ID, kind LineItemKind, ids []ID) (status string, e *xerr.Error) {
	joined := make([]string, len(ids))
	for i, id := range ids {
		joined[i] = string(id)
	}
	payload := map[string]map[string]map[LineItemKind]string{
		"lineitems": {"add": {kind: strings.Join(joined, ",")}},
	}
	resp, e := c.do(ctx, "PUT", "/invoices/"+url.PathEscape(string(invoiceID))+"/lineitems.json", nil, payload)
	if e != nil {
		return "", e
	}
	var result struct {
		Status string `json:"STATUS"`
	}
	decodeErr := json.Unmarshal(resp.Body, &result)
	if decodeErr != nil {
		c.log.Error("Unable to decode line item response of %s: %s", resp.URL, decodeErr)
		return "", xerr.NewError(decodeErr, "Failed to decode line item response", resp.URL)
	}
	if result.Status != StatusOK {
		c.log.Debug("Adding %s %s to invoice %s returned STATUS '%s'", kind, strings.Join(joined, ","), invoiceID, result.Status)
		return result.Status, xerr.NewError(fmt.Errorf("STATUS is '%s'", result.Status), "Line items were not added", map[string]any{"invoice": invoiceID, "kind": kind})
	}
	return result.Status, nil
}
