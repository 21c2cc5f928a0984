// Package main is the rorgctl client binary: a thin mcp-go client that
// dials a running rorgd's RPC facade and prints results, recovered from
// the original implementation's query/test client scripts.
package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// rorgClient wraps an mcp-go streamable-HTTP client dialed at a rorgd
// instance's --listen-address.
type rorgClient struct {
	mcp *client.Client
}

func dial(ctx context.Context, url string) (*rorgClient, error) {
	c, err := client.NewStreamableHttpClient(url)
	if err != nil {
		return nil, fmt.Errorf("creating mcp client: %w", err)
	}
	if _, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: struct {
			ProtocolVersion string                 `json:"protocolVersion"`
			Capabilities    mcp.ClientCapabilities `json:"capabilities"`
			ClientInfo      mcp.Implementation     `json:"clientInfo"`
		}{
			ProtocolVersion: "2024-11-05",
			ClientInfo:      mcp.Implementation{Name: "rorgctl", Version: "1.0.0"},
			Capabilities:    mcp.ClientCapabilities{},
		},
	}); err != nil {
		c.Close()
		return nil, fmt.Errorf("initializing mcp session: %w", err)
	}
	return &rorgClient{mcp: c}, nil
}

func (r *rorgClient) Close() error { return r.mcp.Close() }

// call invokes a tool and decodes its JSON text response into a generic
// map for printing.
func (r *rorgClient) call(ctx context.Context, tool string, args map[string]interface{}) (map[string]interface{}, error) {
	result, err := r.mcp.CallTool(ctx, mcp.CallToolRequest{
		Params: struct {
			Name      string    `json:"name"`
			Arguments any       `json:"arguments,omitempty"`
			Meta      *mcp.Meta `json:"_meta,omitempty"`
		}{
			Name:      tool,
			Arguments: args,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", tool, err)
	}
	if result.IsError {
		return nil, fmt.Errorf("%s returned an error result", tool)
	}
	if len(result.Content) == 0 {
		return nil, fmt.Errorf("%s returned an empty result", tool)
	}
	text, ok := mcp.AsTextContent(result.Content[0])
	if !ok {
		return nil, fmt.Errorf("%s returned a non-text result", tool)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(text.Text), &decoded); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", tool, err)
	}
	return decoded, nil
}
