package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("build_quiz_screen",
		mcp.WithPromptDescription("Guide through building a question screen of the open quiz"),
		mcp.WithArgument("question",
			mcp.ArgumentDescription("Question the screen asks"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("answers",
			mcp.ArgumentDescription("Comma-separated answer options"),
			mcp.RequiredArgument(),
		),
	), s.handleBuildScreenPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("restyle_quiz",
		mcp.WithPromptDescription("Apply a consistent look to every screen with a theme and style classes"),
		mcp.WithArgument("themeId",
			mcp.ArgumentDescription("Theme preset to activate (e.g. light, dark)"),
			mcp.RequiredArgument(),
		),
	), s.handleRestylePrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("edit_as_markup",
		mcp.WithPromptDescription("Edit a screen through its HTML/CSS projection"),
		mcp.WithArgument("screenId",
			mcp.ArgumentDescription("Screen to edit (defaults to the current screen)"),
		),
		mcp.WithArgument("change",
			mcp.ArgumentDescription("What to change"),
			mcp.RequiredArgument(),
		),
	), s.handleEditMarkupPrompt)
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.TextContent{Type: "text", Text: text},
			},
		},
	}
}

func (s *Server) handleBuildScreenPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	question := req.Params.Arguments["question"]
	answers := req.Params.Arguments["answers"]
	return userPrompt(fmt.Sprintf("Build a screen for: %s", question),
		fmt.Sprintf(`Add a question screen to the open quiz asking "%s". Follow these steps:

1. Use add_screen to create the screen, then set_current_screen to make it current
2. Use add_element with type "text" in the body section and update_element to set its content to the question
3. For each answer (%s), add a "button" element and set its content
4. Select the answer buttons with select_element (multi=true) and group_selected to keep them together
5. Use update_section_layout on the body so the buttons flow in a column with a small gap
6. Check the result with get_markup and fix anything that looks off

Every step is undoable; call save at the end.`, question, answers)), nil
}

func (s *Server) handleRestylePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	themeID := req.Params.Arguments["themeId"]
	return userPrompt(fmt.Sprintf("Restyle the quiz with theme %s", themeID),
		fmt.Sprintf(`Give the open quiz a consistent look. Follow these steps:

1. Use set_active_theme with themeId "%s"
2. Use apply_theme with preserveOverrides=true so hand-tuned values survive
3. Create a style class per element type that needs one (add_style_class), e.g. a primary button
4. Apply the classes with apply_style_class to matching elements on every screen
5. Review each screen with get_markup

Use get_history to summarise what changed.`, themeID)), nil
}

func (s *Server) handleEditMarkupPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	screenID := req.Params.Arguments["screenId"]
	change := req.Params.Arguments["change"]
	target := "the current screen"
	if screenID != "" {
		target = "screen " + screenID
	}
	return userPrompt(fmt.Sprintf("Edit %s as markup", target),
		fmt.Sprintf(`Change %s: %s. Follow these steps:

1. Call get_markup%s to read the HTML and CSS projection
2. Edit the markup and stylesheet. Keep every id attribute; elements are matched by it
3. Send both back with apply_markup. The whole edit becomes a single undo step

Only text content, attributes and styles of existing elements are applied.`,
			target, change, screenArg(screenID))), nil
}

func screenArg(screenID string) string {
	if screenID == "" {
		return ""
	}
	return fmt.Sprintf(` with screenId "%s"`, screenID)
}
