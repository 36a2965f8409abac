package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

// uriScheme is the URI scheme of docsearch resources.
const uriScheme = "docsearch://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "collections",
		Name:        "collections",
		Description: "All collections with their dimension, index and document count",
		MIMEType:    "application/json",
	}, s.handleCollectionsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "collections/{name}",
		Name:        "collection",
		Description: "Description of a single collection",
		MIMEType:    "application/json",
	}, s.handleCollectionResource)
}

// indexInfo is the JSON view of an index.
type indexInfo struct {
	Kind   string `json:"kind"`
	Metric string `json:"metric"`
	NList  int    `json:"nlist,omitempty"`
	NProbe int    `json:"nprobe,omitempty"`
}

// collectionInfo is the JSON view of a collection.
type collectionInfo struct {
	Name      string     `json:"name"`
	Dimension int        `json:"dimension"`
	Count     int64      `json:"count"`
	Loaded    bool       `json:"loaded"`
	Index     *indexInfo `json:"index,omitempty"`
}

func toCollectionInfo(c *domain.Collection) collectionInfo {
	info := collectionInfo{
		Name:      c.Name,
		Dimension: c.Dimension,
		Count:     c.Count,
		Loaded:    c.Loaded,
	}
	if c.HasIndex() {
		info.Index = &indexInfo{
			Kind:   c.Index.Kind.String(),
			Metric: c.Index.Metric.String(),
			NList:  c.Index.Params.NList,
			NProbe: c.Index.Params.NProbe,
		}
	}
	return info
}

// handleCollectionsResource lists every collection.
func (s *Server) handleCollectionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Collections == nil {
		return jsonResult(req.Params.URI, []collectionInfo{})
	}

	collections, err := s.ports.Collections.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}

	infos := make([]collectionInfo, len(collections))
	for i := range collections {
		infos[i] = toCollectionInfo(&collections[i])
	}
	return jsonResult(req.Params.URI, infos)
}

// handleCollectionResource describes one collection.
func (s *Server) handleCollectionResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Collections == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	name := extractCollectionName(req.Params.URI)
	if name == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	collection, err := s.ports.Collections.Describe(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("describing collection: %w", err)
	}

	return jsonResult(req.Params.URI, toCollectionInfo(collection))
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractCollectionName extracts the name from docsearch://collections/{name}.
func extractCollectionName(uri string) string {
	const prefix = uriScheme + "collections/"

	name, ok := strings.CutPrefix(uri, prefix)
	if !ok || strings.Contains(name, "/") {
		return ""
	}
	return name
}
