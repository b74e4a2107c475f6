// Package mcpserver exposes the tool registry as a Model Context Protocol server.
package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hession/slotmate/internal/logger"
	"github.com/hession/slotmate/internal/stream"
	"github.com/hession/slotmate/internal/tools"
)

// NotificationMethod is used to forward stream events to the client
const NotificationMethod = "notifications/message"

// Server wraps the registry and serves it over MCP
type Server struct {
	registry  *tools.Registry
	log       *logger.Logger
	mcpServer *server.MCPServer
}

// New creates an MCP server with every registry tool registered
func New(registry *tools.Registry, name, version string, log *logger.Logger) *Server {
	s := &Server{
		registry:  registry,
		log:       logger.OrDefault(log),
		mcpServer: server.NewMCPServer(name, version, server.WithToolCapabilities(false)),
	}
	for _, t := range registry.List() {
		s.mcpServer.AddTool(ToMCPTool(t), s.handlerFor(t.Name()))
	}
	return s
}

// MCPServer returns the underlying mcp-go server
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves on stdin/stdout until the input closes
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ToMCPTool converts a tool's parameter definitions to an MCP tool definition
func ToMCPTool(t tools.Tool) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(t.Description())}
	for _, p := range t.Parameters() {
		props := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			props = append(props, mcp.Required())
		}

		switch p.Type {
		case "boolean":
			if def, ok := p.Default.(bool); ok {
				props = append(props, mcp.DefaultBool(def))
			}
			opts = append(opts, mcp.WithBoolean(p.Name, props...))
		case "number":
			if def, ok := p.Default.(float64); ok {
				props = append(props, mcp.DefaultNumber(def))
			}
			opts = append(opts, mcp.WithNumber(p.Name, props...))
		default:
			if len(p.Enum) > 0 {
				props = append(props, mcp.Enum(p.Enum...))
			}
			if def, ok := p.Default.(string); ok {
				props = append(props, mcp.DefaultString(def))
			}
			if p.NonEmpty {
				props = append(props, mcp.MinLength(1))
			}
			opts = append(opts, mcp.WithString(p.Name, props...))
		}
	}
	return mcp.NewTool(t.Name(), opts...)
}

func (s *Server) handlerFor(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := s.registry.Execute(ctx, name, request.GetArguments(), s.notifier(ctx))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		res := mcp.NewToolResultStructured(result, result.Text())
		res.IsError = !result.OK()
		return res, nil
	}
}

// notifier forwards events to the calling client. Outside a session events are dropped.
func (s *Server) notifier(ctx context.Context) stream.Sink {
	srv := server.ServerFromContext(ctx)
	if srv == nil {
		return stream.Discard
	}
	return stream.SinkFunc(func(ev stream.Event) {
		err := srv.SendNotificationToClient(ctx, NotificationMethod, map[string]any{
			"level":  "info",
			"logger": "slotmate",
			"data": map[string]any{
				"type":    string(ev.Type),
				"content": ev.Content,
			},
		})
		if err != nil {
			s.log.Debug("failed to forward %s event: %v", ev.Type, err)
		}
	})
}
