//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"trpc.group/trpc-go/trpc-agent-dataapi/internal/config"
	"trpc.group/trpc-go/trpc-agent-dataapi/log"
	"trpc.group/trpc-go/trpc-agent-dataapi/tool"
	"trpc.group/trpc-go/trpc-agent-dataapi/tool/dataapi"
)

// newToolSet builds the configured data tools, restricted to
// server.tools when that list is set.
func newToolSet(cfg *config.Config) (tool.ToolSet, error) {
	ts, err := dataapi.NewToolSet(cfg.Definitions(), dataapi.WithToolOptions(
		dataapi.WithToken(cfg.Credentials.DataAPI.Token),
		dataapi.WithEndpoint(cfg.DataAPI.Endpoint),
		dataapi.WithTimeout(cfg.DataAPITimeout()),
	))
	if err != nil {
		return nil, err
	}
	if len(cfg.Server.Tools) == 0 {
		return ts, nil
	}
	return tool.FilterToolSet(ts, tool.NewIncludeToolNamesFilter(cfg.Server.Tools...)), nil
}

// newMCPServer registers every data tool of ts on a new MCP server and
// returns the registered names.
func newMCPServer(ctx context.Context, cfg *config.Config, ts tool.ToolSet) (*server.MCPServer, []string) {
	s := server.NewMCPServer(cfg.Server.Name, cfg.Server.Version, server.WithToolCapabilities(true))
	var names []string
	for _, t := range ts.Tools(ctx) {
		dt, ok := t.(*dataapi.Tool)
		if !ok {
			continue
		}
		s.AddTool(buildMCPTool(dt), toolHandler(dt))
		names = append(names, dt.Name())
	}
	log.Debugf("registered data api tools: %v", names)
	return s, names
}

func serve(ctx context.Context, cfg *config.Config) error {
	ts, err := newToolSet(cfg)
	if err != nil {
		return err
	}
	defer ts.Close()

	s, names := newMCPServer(ctx, cfg, ts)
	if len(names) == 0 {
		log.Warnf("no data api tools configured")
	}
	switch cfg.Server.Transport {
	case config.TransportHTTP:
		httpServer := server.NewStreamableHTTPServer(s, server.WithStateLess(true))
		errCh := make(chan error, 1)
		go func() {
			log.Infof("starting MCP streamable HTTP on %s", cfg.Server.Addr())
			errCh <- httpServer.Start(cfg.Server.Addr())
		}()
		select {
		case err := <-errCh:
			return fmt.Errorf("http server: %w", err)
		case <-ctx.Done():
			return httpServer.Shutdown(context.Background())
		}
	default:
		log.Infof("starting MCP stdio server %s", cfg.Server.Name)
		return server.ServeStdio(s)
	}
}

// buildMCPTool mirrors the tool contract as MCP tool properties.
func buildMCPTool(t *dataapi.Tool) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(t.Declaration().Description)}
	for _, f := range t.Contract().Fields() {
		opts = append(opts, propertyOption(f))
	}
	return mcp.NewTool(t.Name(), opts...)
}

func propertyOption(f dataapi.FieldSpec) mcp.ToolOption {
	var opts []mcp.PropertyOption
	if f.Description != "" {
		opts = append(opts, mcp.Description(f.Description))
	}
	if f.Required {
		opts = append(opts, mcp.Required())
	}

	switch f.Kind {
	case dataapi.KindNumber:
		if v, ok := f.Default.(float64); ok && f.HasDefault {
			opts = append(opts, mcp.DefaultNumber(v))
		}
		return mcp.WithNumber(f.Name, opts...)
	case dataapi.KindBoolean:
		if v, ok := f.Default.(bool); ok && f.HasDefault {
			opts = append(opts, mcp.DefaultBool(v))
		}
		return mcp.WithBoolean(f.Name, opts...)
	case dataapi.KindObject:
		opts = append(opts, mcp.AdditionalProperties(true))
		return mcp.WithObject(f.Name, opts...)
	case dataapi.KindDate:
		opts = append(opts, mcp.Pattern(dataapi.DatePattern))
		fallthrough
	default:
		if v, ok := f.Default.(string); ok && f.HasDefault {
			opts = append(opts, mcp.DefaultString(v))
		}
		return mcp.WithString(f.Name, opts...)
	}
}

// toolHandler runs the data tool. Failures come back as error results so the
// agent sees the "Error: ..." text.
func toolHandler(t *dataapi.Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := t.Execute(ctx, r.GetArguments())
		if err != nil {
			log.WarnfContext(ctx, "data api tool %s failed: %v", t.Name(), err)
			return mcp.NewToolResultError("Error: " + err.Error()), nil
		}
		return mcp.NewToolResultText(result), nil
	}
}
