package models

// Page is a scraped document rendered as markdown.
type Page struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
	Status   int    `json:"status"`
	RenderMS int    `json:"render_ms"`
}
