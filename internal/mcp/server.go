package mcp

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/phuslu/log"

	"github.com/a3tai/str-extractor/internal/config"
	"github.com/a3tai/str-extractor/internal/extract"
	"github.com/a3tai/str-extractor/internal/output"
	"github.com/a3tai/str-extractor/internal/pdf"
	"github.com/a3tai/str-extractor/internal/template"
)

// Tool names
const (
	ToolExtract      = "str_extract"
	ToolTemplateInfo = "str_template_info"
	ToolValidate     = "str_validate"
)

// Server exposes the extractor as MCP tools
type Server struct {
	config    *config.Config
	extractor *extract.Extractor
	validator *pdf.Validator
	guard     *PathGuard
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, extractor *extract.Extractor, validator *pdf.Validator) (*Server, error) {
	if extractor == nil {
		return nil, fmt.Errorf("extractor cannot be nil")
	}
	if validator == nil {
		return nil, fmt.Errorf("validator cannot be nil")
	}

	guard, err := NewPathGuard(cfg.Directory)
	if err != nil {
		return nil, err
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		extractor: extractor,
		validator: validator,
		guard:     guard,
		mcpServer: mcpServer,
	}
	s.registerTools()

	return s, nil
}

func (s *Server) registerTools() {
	extractTool := mcp.NewTool(
		ToolExtract,
		mcp.WithDescription("Extract the applicant, spouse, children and next-of-kin fields from an STR "+
			"application form PDF and return them as JSON"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file, absolute or relative to the configured directory"),
		),
	)
	s.mcpServer.AddTool(extractTool, s.handleExtract)

	infoTool := mcp.NewTool(
		ToolTemplateInfo,
		mcp.WithDescription("Describe the loaded field templates: variant files, field count and page size"),
	)
	s.mcpServer.AddTool(infoTool, s.handleTemplateInfo)

	validateTool := mcp.NewTool(
		ToolValidate,
		mcp.WithDescription("Check that a file is a readable PDF within the size limit"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file, absolute or relative to the configured directory"),
		),
	)
	s.mcpServer.AddTool(validateTool, s.handleValidate)

	s.registerTemplateEditTool()
}

func (s *Server) handleExtract(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err = s.guard.Resolve(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.validator.Validate(path); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rec, err := s.extractor.ExtractFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Tool extraction failed")
		return mcp.NewToolResultError(err.Error()), nil
	}

	var buf bytes.Buffer
	if err := output.WriteJSON(&buf, rec); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) handleTemplateInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.formatTemplateInfo()), nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err = s.guard.Resolve(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.validator.Validate(path); err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("PDF validation failed for %s: %s", path, err)), nil
	}
	if err := s.validator.CheckStructure(path); err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("PDF validation failed for %s: %s", path, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("PDF file %s is valid and readable", path)), nil
}

func (s *Server) formatTemplateInfo() string {
	bootstrap := s.extractor.Bootstrap()
	variants := s.extractor.Templates()

	var b strings.Builder
	fmt.Fprintf(&b, "%s v%s\n", s.config.ServerName, s.config.Version)
	fmt.Fprintf(&b, "Directory: %s\n\n", s.guard.Root())
	fmt.Fprintf(&b, "Bootstrap template: %s\n", variants.Bootstrap)
	fmt.Fprintf(&b, "Fields: %d\n", len(bootstrap.Names()))
	if d := bootstrap.Dimensions; d != nil {
		fmt.Fprintf(&b, "Page size: %gx%g pt\n", d.Width, d.Height)
	} else {
		b.WriteString("Page size: not recorded\n")
	}

	b.WriteString("\nVariants:\n")
	for _, v := range []template.Variant{template.WithSpouse, template.WithoutSpouse} {
		path := variants.Path(v)
		state := "missing"
		if exists(path) {
			state = "present"
		}
		fmt.Fprintf(&b, "  %s: %s (%s)\n", v, path, state)
	}

	headers := 0
	for _, name := range bootstrap.Names() {
		if template.IsHeader(name) {
			headers++
		}
	}
	fmt.Fprintf(&b, "\nSection headers: %d\n", headers)
	return b.String()
}

// Run serves the tools over stdio until the client disconnects
func (s *Server) Run(_ context.Context) error {
	log.Info().Str("dir", s.guard.Root()).Msg("Starting MCP server in stdio mode")

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
