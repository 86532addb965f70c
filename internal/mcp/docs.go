package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `daf-memorial coordinates a shared study of the Babylonian Talmud, one page (daf) per participant.

Core concepts:
- Tractate: a named book grouped under one of six orders (seder). Pages start at daf ב.
- Page: available, taken (someone is studying it) or completed. Completed is final.
- Activity log: a public line is written each time someone takes on a page.

Default workflow:
1) Orient: get_stats, then list_tractates to see where pages remain.
2) Pick: list_pages with statuses=["available"] and a tractate_id.
3) Commit: claim_page (or claim_pages for several). A claim can lose a race; on INVALID_TRANSITION re-read with get_page.
4) Finish: complete_page when studied, or return_page to give it back.
5) Review: my_pages shows your pages and progress.

Docs:
- daf://docs/lifecycle (page states and transitions)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "daf://docs/lifecycle",
		Name:        "docs_lifecycle",
		Title:       "Page lifecycle",
		Description: "Page states, who may move a page between them, and what gets logged.",
		Content: `# Page lifecycle

| From      | Operation | To        | Who                      |
|-----------|-----------|-----------|--------------------------|
| available | claim     | taken     | anyone signed in         |
| taken     | return    | available | the user holding it      |
| taken     | complete  | completed | the user holding it      |

- Completed pages keep the name of the user who studied them.
- Returning a page clears its holder.
- Each claim is checked against the stored page at the moment it is written. When two people claim the same page at once exactly one succeeds; the other gets INVALID_TRANSITION.
- A successful claim adds "{name} took on the study of page {daf} of tractate {tractate}!" to the activity log. Returns and completions are not logged.
- claim_pages claims each page independently and reports which succeeded and which failed, with the current state of failed pages.

## Drafting mode

When the server runs with drafting enabled, a page can first be held as a draft. A draft is private to its holder, is not logged, and turns into a claim (and a log line) when the holder claims it.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
