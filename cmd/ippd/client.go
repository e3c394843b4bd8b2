package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/OpenPrinting/goipp"

	"github.com/printcore/ippd/internal/ipp"
)

// client is a thin wrapper around one HTTP connection to a running
// ippd server, building IPP requests and decoding their responses.
// Subcommands that talk to a live server all go through it, the way
// cmd/tp's subcommands each talked directly to a connected printer.
type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string) *client {
	return &client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// do encodes req, POSTs it to path, and decodes the response message.
// body, if non-nil, is appended after the encoded IPP message as the
// job's document data, matching the wire format session.Server expects.
func (c *client) do(path string, req *goipp.Message, body []byte) (*goipp.Message, error) {
	var buf bytes.Buffer
	if err := req.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	buf.Write(body)

	httpReq, err := http.NewRequest(http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/ipp")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request to %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %s: %s", resp.Status, string(respBody))
	}

	var msg goipp.Message
	if err := msg.DecodeBytes(respBody); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if goipp.Status(msg.Code) != goipp.StatusOk {
		return &msg, fmt.Errorf("ipp status %s: %s", goipp.Status(msg.Code), statusMessage(&msg))
	}
	return &msg, nil
}

// system issues req against the system-wide endpoint (no target
// printer in the URL path).
func (c *client) system(req *goipp.Message) (*goipp.Message, error) {
	return c.do("/ipp/system", req, nil)
}

// printer issues req against a named printer's endpoint, optionally
// followed by a document body.
func (c *client) printer(name string, req *goipp.Message, body []byte) (*goipp.Message, error) {
	return c.do("/ipp/print/"+name, req, body)
}

func statusMessage(msg *goipp.Message) string {
	if v, err := ipp.ExtractValue[goipp.String](msg.Operation, "status-message"); err == nil {
		return v.String()
	}
	return "no status-message"
}

var nextRequestID = func() func() uint32 {
	var id uint32
	return func() uint32 {
		id++
		return id
	}
}()

func newRequest(op goipp.Op) *goipp.Message {
	return goipp.NewRequest(goipp.MakeVersion(2, 0), op, nextRequestID())
}
