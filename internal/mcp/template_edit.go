package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/phuslu/log"

	"github.com/a3tai/str-extractor/internal/template"
)

// ToolTemplateEdit edits the boxes of a template file
const ToolTemplateEdit = "str_template_edit"

// Template edit operations
const (
	EditSet    = "set"
	EditRemove = "remove"
	EditMove   = "move"
	EditResize = "resize"
	EditScale  = "scale"
	EditLocate = "locate"
)

func (s *Server) registerTemplateEditTool() {
	tool := mcp.NewTool(
		ToolTemplateEdit,
		mcp.WithDescription("Edit a field template: set, remove, move or resize a field box, scale every box, "+
			"or locate the field under a point. Edits are saved back to the template file."),
		mcp.WithString("template",
			mcp.Required(),
			mcp.Description("Template JSON file, absolute or relative to the configured directory"),
		),
		mcp.WithString("op",
			mcp.Required(),
			mcp.Enum(EditSet, EditRemove, EditMove, EditResize, EditScale, EditLocate),
			mcp.Description("Edit operation"),
		),
		mcp.WithString("field",
			mcp.Description("Field name; required by set, remove, move and resize"),
		),
		mcp.WithNumber("x", mcp.Description("Box origin for set and move, dragged corner for resize, point for locate")),
		mcp.WithNumber("y", mcp.Description("Box origin for set and move, dragged corner for resize, point for locate")),
		mcp.WithNumber("width", mcp.Description("Box width for set")),
		mcp.WithNumber("height", mcp.Description("Box height for set")),
		mcp.WithString("corner",
			mcp.Enum(string(template.CornerNW), string(template.CornerNE), string(template.CornerSW), string(template.CornerSE)),
			mcp.Description("Corner dragged by resize"),
		),
		mcp.WithNumber("factor", mcp.Description("Multiplier applied to every box by scale")),
	)
	s.mcpServer.AddTool(tool, s.handleTemplateEdit)
}

func (s *Server) handleTemplateEdit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("template")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	op, err := request.RequireString("op")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err = s.guard.Resolve(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	tmpl, err := template.Load(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	field := request.GetString("field", "")
	x := request.GetFloat("x", 0)
	y := request.GetFloat("y", 0)

	if op == EditLocate {
		name, ok := tmpl.At(x, y)
		if !ok {
			return mcp.NewToolResultText(fmt.Sprintf("No field at (%g, %g)", x, y)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("%s: %s", name, formatBox(tmpl.Fields[name]))), nil
	}

	if op != EditScale && field == "" {
		return mcp.NewToolResultError(fmt.Sprintf("op %q requires a field", op)), nil
	}

	var edited *template.Template
	switch op {
	case EditSet:
		edited, err = tmpl.WithBox(field, template.Box{
			X:      x,
			Y:      y,
			Width:  request.GetFloat("width", 0),
			Height: request.GetFloat("height", 0),
		})
	case EditRemove:
		if _, ok := tmpl.Box(field); !ok {
			err = fmt.Errorf("unknown field %q", field)
			break
		}
		edited = tmpl.Without(field)
	case EditMove:
		edited, err = tmpl.Move(field, x, y)
	case EditResize:
		edited, err = tmpl.ResizeCorner(field, template.Corner(request.GetString("corner", "")), x, y)
	case EditScale:
		factor := request.GetFloat("factor", 0)
		if factor <= 0 {
			err = fmt.Errorf("scale factor must be positive, got %g", factor)
			break
		}
		edited = tmpl.Scaled(factor)
	default:
		err = fmt.Errorf("unknown op %q", op)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := edited.Save(path); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	log.Info().Str("template", path).Str("op", op).Str("field", field).Msg("Template edited")

	switch op {
	case EditRemove:
		return mcp.NewToolResultText(fmt.Sprintf("Removed %s from %s (%d fields)", field, path, len(edited.Names()))), nil
	case EditScale:
		return mcp.NewToolResultText(fmt.Sprintf("Scaled %d fields in %s", len(edited.Names()), path)), nil
	default:
		return mcp.NewToolResultText(fmt.Sprintf("%s: %s", field, formatBox(edited.Fields[field]))), nil
	}
}

func formatBox(b template.Box) string {
	return fmt.Sprintf("x=%g y=%g width=%g height=%g", b.X, b.Y, b.Width, b.Height)
}
