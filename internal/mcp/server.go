package mcp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/reclaim/internal/config"
)

// Server handles MCP requests over a line-delimited stream. Logging must go
// to stderr; stdout carries only protocol frames.
type Server struct {
	in      io.Reader
	out     io.Writer
	cfg     *config.Config
	version string
}

// NewServer builds a stdio-backed server.
func NewServer(cfg *config.Config, version string) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Server{
		in:      os.Stdin,
		out:     os.Stdout,
		cfg:     cfg,
		version: version,
	}
}

// Run reads requests until EOF or context cancellation, writing one response
// line per request.
func (s *Server) Run(ctx context.Context) error {
	log.Info().Str("version", s.version).Msg("Starting MCP server")

	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	writer := bufio.NewWriter(s.out)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req Request
		var resp Response
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			log.Error().Err(err).Msg("Failed to parse request")
			resp = errorResponse(nil, codeParseError, "Parse error")
		} else {
			resp = s.handle(ctx, req)
		}

		if err := writeResponse(writer, resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read requests: %w", err)
	}
	log.Debug().Msg("EOF received, shutting down")
	return nil
}

func writeResponse(w *bufio.Writer, resp Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if err := w.WriteByte('\n'); err != nil {
		return err
	}
	return w.Flush()
}

func (s *Server) handle(ctx context.Context, req Request) Response {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolCall(ctx, req)
	default:
		return errorResponse(req.ID, codeMethodNotFound, "Method not found: "+req.Method)
	}
}
