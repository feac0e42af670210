package mcp

// NewFilesystemServer creates a stdio server exposing read access to the
// passed directories. Requires npx on the path.
func NewFilesystemServer(dirs ...string) *Server {
	args := append([]string{"-y", "@modelcontextprotocol/server-filesystem"}, dirs...)
	return NewStdioServer("filesystem", "npx", nil, args...)
}

// NewSlackServer creates a stdio server that can post to Slack. Requires npx
// on the path.
func NewSlackServer(botToken string, teamID string) *Server {
	return NewStdioServer("slack", "npx",
		[]string{
			"SLACK_BOT_TOKEN=" + botToken,
			"SLACK_TEAM_ID=" + teamID,
		},
		"-y", "@modelcontextprotocol/server-slack",
	)
}
