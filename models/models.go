package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a module, content item, article or preference does not exist.
	ErrNotFound = errors.New("not found")
	// ErrContentItemDeleted is returned when writing to a soft-deleted content item.
	ErrContentItemDeleted = errors.New("content item deleted")
	// ErrInvalidFormData is returned when form data lacks the required titel key.
	ErrInvalidFormData = errors.New("invalid form data")
	// ErrTranslationUnsupported is returned for modules routed to the translation pipeline.
	ErrTranslationUnsupported = errors.New("translation modules are not handled by the content pipeline")
)

// OutputFormat is the enumerated article output format.
type OutputFormat string

const (
	OutputFormatMarkdown  OutputFormat = "markdown"
	OutputFormatEmailHTML OutputFormat = "emailHTML"
	OutputFormatJSON      OutputFormat = "json"
)

// Normalize maps unknown or empty formats to markdown.
func (f OutputFormat) Normalize() OutputFormat {
	switch f {
	case OutputFormatMarkdown, OutputFormatEmailHTML, OutputFormatJSON:
		return f
	default:
		return OutputFormatMarkdown
	}
}

// Module configures which pipeline stages run and how output is shaped.
type Module struct {
	ID             int64        `json:"id"`
	Name           string       `json:"name"`
	Slug           string       `json:"slug"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Purpose        string       `json:"purpose"`
	PromptTemplate string       `json:"prompt_template"`
	ScraperSources string       `json:"scraper_sources"`
	OutputFormat   OutputFormat `json:"output_format"`
	WebScraper     bool         `json:"web_scraper"`
	InternetSearch bool         `json:"internet_search"`
	AssetLibrary   bool         `json:"asset_library"`
	Translation    bool         `json:"translation"`
}

// FormData is the opaque user-supplied payload for a content request.
// Only the titel key is interpreted outside of prompts.
type FormData map[string]any

// Title returns the titel value, or an empty string when absent.
func (f FormData) Title() string {
	switch v := f["titel"].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// Validate checks that the required titel key is present.
func (f FormData) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: form data is empty", ErrInvalidFormData)
	}
	if f.Title() == "" {
		return fmt.Errorf("%w: titel is required", ErrInvalidFormData)
	}
	return nil
}

// JSON renders the form data for prompts. Keys are emitted in sorted order.
func (f FormData) JSON() string {
	if f == nil {
		return "{}"
	}
	b, err := json.Marshal(f)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// ContentStatus is the lifecycle state of a content item and its articles.
type ContentStatus string

const (
	StatusWriting   ContentStatus = "writing"
	StatusPublished ContentStatus = "published"
	StatusFailed    ContentStatus = "failed"
	StatusDeleted   ContentStatus = "deleted"
)

// ContentItem is a requested generation job (a calendar entry).
type ContentItem struct {
	ID        int64         `json:"id"`
	OrgID     string        `json:"org_id"`
	ModuleID  int64         `json:"module_id"`
	Title     string        `json:"title"`
	FormData  FormData      `json:"form_data"`
	Status    ContentStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Articles  []Article     `json:"articles,omitempty"`
}

// Article is the persisted output of one pipeline run.
type Article struct {
	ID            int64         `json:"id"`
	OrgID         string        `json:"org_id"`
	ContentItemID int64         `json:"content_item_id"`
	Text          string        `json:"text"`
	OutputFormat  OutputFormat  `json:"output_format"`
	Status        ContentStatus `json:"status"`
	PagePath      string        `json:"pagepath"`
	CreatedAt     time.Time     `json:"created_at"`
}

// OrgPreference holds organization-wide prompt settings.
type OrgPreference struct {
	OrgID               string `json:"org_id"`
	OrganizationPrompt  string `json:"organization_prompt"`
	CheckFormDataPrompt string `json:"check_form_data_prompt"`
}

// OrgModuleAccess grants an organization a module. Its ID scopes the asset library.
type OrgModuleAccess struct {
	ID            int64  `json:"id"`
	OrgID         string `json:"org_id"`
	ModuleID      int64  `json:"module_id"`
	Prompt        string `json:"prompt"`
	SummaryPrompt string `json:"summary_prompt"`
	FormSchemaID  *int64 `json:"form_schema_id,omitempty"`
}

// ImageAsset is a stored image with its description embedding.
type ImageAsset struct {
	ID               int64     `json:"id"`
	AccessID         int64     `json:"org_module_access_id"`
	Filename         string    `json:"filename"`
	UniqueFilename   string    `json:"unique_filename"`
	Description      string    `json:"description"`
	ContentType      string    `json:"content_type"`
	Embedding        []float32 `json:"-"`
	Distance         float64   `json:"distance,omitempty"`
	AuthenticatedURL string    `json:"authenticated_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// StoreLink is one entry selected by the store-list filter.
type StoreLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ScrapedPage is the result of scraping one URL. Exactly one of Content and Error is set.
type ScrapedPage struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewScrapedPage builds a successful page.
func NewScrapedPage(name, url, content string) ScrapedPage {
	return ScrapedPage{Name: name, URL: url, Content: content}
}

// FailedPage builds an error-marked page.
func FailedPage(name, url string, err error) ScrapedPage {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return ScrapedPage{Name: name, URL: url, Error: msg}
}

// Failed reports whether the page carries an error marker.
func (p ScrapedPage) Failed() bool { return p.Error != "" }

// SummarizedPage is a scraped page plus its summary, or the error variant.
type SummarizedPage struct {
	ScrapedPage
	Summary string `json:"summary,omitempty"`
}

// Succeeded reports whether the page has a usable summary.
func (p SummarizedPage) Succeeded() bool { return !p.Failed() && p.Summary != "" }

// ParagraphImageQuery ties a draft paragraph to its image search and the matched assets.
type ParagraphImageQuery struct {
	Paragraph   string       `json:"paragraaf"`
	Description string       `json:"beschrijving_afbeelding"`
	Embedding   []float32    `json:"-"`
	Assets      []ImageAsset `json:"assets"`
	// Err is set when embedding or search failed, as opposed to finding nothing.
	Err error `json:"-"`
}
