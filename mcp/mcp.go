// Package mcp exposes the rig session as MCP tools over stdio, so an
// agent can enumerate ports, check status and issue commands.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"photorig/proto"
	"photorig/session"
)

type Server struct {
	srv  *server.MCPServer
	sess *session.Controller
}

func NewServer(sess *session.Controller, version string) *Server {
	s := &Server{
		srv:  server.NewMCPServer("photorig", version),
		sess: sess,
	}
	s.registerTools()
	return s
}

// Run serves MCP over stdio until the client disconnects.
func (s *Server) Run() error {
	slog.Info("Started stdio MCP server")
	defer slog.Info("Shut down stdio MCP server")
	return server.ServeStdio(s.srv)
}

func (s *Server) registerTools() {
	listPorts := mcp.NewTool("list_ports",
		mcp.WithDescription("List the serial ports where a rig controller may be attached"),
	)
	s.srv.AddTool(listPorts, s.handleListPorts)

	deviceStatus := mcp.NewTool("device_status",
		mcp.WithDescription("Report the connection state, health and lighting state of the rig"),
	)
	s.srv.AddTool(deviceStatus, s.handleDeviceStatus)

	sendCommand := mcp.NewTool("send_command",
		mcp.WithDescription("Send one command to the connected rig controller and return its response"),
		mcp.WithString("kind",
			mcp.Required(),
			mcp.Description("Command kind: ping, status, lighting, photo_sequence, led_toggle, motor, weight, sequence, calibration"),
		),
		mcp.WithObject("payload",
			mcp.Description("Command payload as a JSON object, e.g. {\"channel\": \"led_1\", \"intensity\": 128}"),
		),
	)
	s.srv.AddTool(sendCommand, s.handleSendCommand)

	connect := mcp.NewTool("connect_device",
		mcp.WithDescription("Open the serial connection to a rig controller on the given port"),
		mcp.WithString("port",
			mcp.Required(),
			mcp.Description("Serial port identifier, e.g. /dev/ttyUSB0 or COM3"),
		),
	)
	s.srv.AddTool(connect, s.handleConnect)

	disconnect := mcp.NewTool("disconnect_device",
		mcp.WithDescription("Close the serial connection to the rig controller"),
	)
	s.srv.AddTool(disconnect, s.handleDisconnect)
}

func (s *Server) handleConnect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	port, err := request.RequireString("port")
	if err != nil {
		return mcp.NewToolResultError("port is required and must be a string"), err
	}
	if err := s.sess.Connect(port); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Connect failed: %v", err)), err
	}
	return mcp.NewToolResultText(fmt.Sprintf("Connected to %s", port)), nil
}

func (s *Server) handleDisconnect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.sess.Disconnect()
	return mcp.NewToolResultText("Disconnected"), nil
}

func (s *Server) handleListPorts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ports, err := s.sess.ListPorts()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error listing ports: %v", err)), err
	}
	out, err := json.MarshalIndent(ports, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) handleDeviceStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := map[string]any{
		"state":    s.sess.State().String(),
		"port":     s.sess.Port(),
		"health":   s.sess.Health(),
		"lighting": s.sess.LightingState(),
	}
	out, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) handleSendCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kindArg, err := request.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError("kind is required and must be a string"), err
	}
	kind, err := proto.ParseKind(kindArg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), err
	}

	var payload map[string]any
	if args, ok := request.GetRawArguments().(map[string]interface{}); ok {
		if raw, exists := args["payload"]; exists {
			payload, ok = raw.(map[string]interface{})
			if !ok {
				return mcp.NewToolResultError("payload must be a JSON object"), fmt.Errorf("payload is not an object")
			}
		}
	}

	resp, err := s.sess.Send(kind, payload)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Command failed: %v", err)), err
	}
	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(out)), nil
}
