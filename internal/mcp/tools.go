package mcp

func pageIDSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"page_id": map[string]any{
				"type":        "string",
				"description": "Page ID (from list_pages)",
			},
		},
		"required": []string{"page_id"},
	}
}

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	return []ToolDefinition{
		// Catalog
		{
			Name:        "list_tractates",
			Description: "List all tractates in order with available, taken and completed page counts",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		{
			Name:        "list_pages",
			Description: "List pages, optionally filtered by tractate and status, ordered by tractate then page",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"tractate_id": map[string]any{
						"type":        "string",
						"description": "Tractate ID (from list_tractates)",
					},
					"statuses": map[string]any{
						"type":        "array",
						"description": "Filter by page status",
						"items": map[string]any{
							"type": "string",
							"enum": []string{"available", "drafted", "taken", "completed"},
						},
					},
					"limit": map[string]any{
						"type":        "integer",
						"description": "Maximum number of results",
					},
					"offset": map[string]any{
						"type":        "integer",
						"description": "Offset for pagination",
					},
				},
			},
		},
		{
			Name:        "get_page",
			Description: "Get the current state of one page",
			InputSchema: pageIDSchema(),
		},

		// Lifecycle
		{
			Name:        "claim_page",
			Description: "Take on the study of an available page",
			InputSchema: pageIDSchema(),
		},
		{
			Name:        "return_page",
			Description: "Give back a page you have taken so someone else can study it",
			InputSchema: pageIDSchema(),
		},
		{
			Name:        "complete_page",
			Description: "Mark a page you have taken as studied. This cannot be undone",
			InputSchema: pageIDSchema(),
		},
		{
			Name:        "claim_pages",
			Description: "Claim several pages at once. Each page succeeds or fails on its own",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"page_ids": map[string]any{
						"type":        "array",
						"description": "Page IDs to claim",
						"items":       map[string]any{"type": "string"},
						"minItems":    1,
					},
				},
				"required": []string{"page_ids"},
			},
		},

		// Overview
		{
			Name:        "get_stats",
			Description: "Get overall counts of completed, taken and available pages",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		{
			Name:        "recent_activity",
			Description: "List recent claims, newest first",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"limit": map[string]any{
						"type":        "integer",
						"description": "Maximum number of entries (default 50)",
					},
				},
			},
		},
		{
			Name:        "my_pages",
			Description: "List the pages you hold with your completion progress",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
	}
}
