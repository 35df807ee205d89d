package notion

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/jomei/notionapi"
)

// --- Fakes ---

type fakeQuerier struct {
	resp   *notionapi.DatabaseQueryResponse
	err    error
	lastReq *notionapi.DatabaseQueryRequest
}

func (f *fakeQuerier) Query(ctx context.Context, id notionapi.DatabaseID, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	f.lastReq = req
	return f.resp, f.err
}

type fakePages struct {
	pages map[string]*notionapi.Page
}

func (f *fakePages) Get(ctx context.Context, id notionapi.PageID) (*notionapi.Page, error) {
	page, ok := f.pages[string(id)]
	if !ok {
		return nil, fmt.Errorf("page %s not found", id)
	}
	return page, nil
}

type fakeBlocks struct {
	resp *notionapi.GetChildrenResponse
	err  error
}

func (f *fakeBlocks) GetChildren(ctx context.Context, id notionapi.BlockID, p *notionapi.Pagination) (*notionapi.GetChildrenResponse, error) {
	return f.resp, f.err
}

type fakeLocalizer struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeLocalizer) EnsureDownloaded(ctx context.Context, url string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	return "/images/notion/cached.jpg"
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	return &Client{
		databaseID: "test-db",
		logger:     log.New(io.Discard, "", 0),
	}
}

// --- Property fixtures ---

func titleProp(s string) *notionapi.TitleProperty {
	return &notionapi.TitleProperty{Title: []notionapi.RichText{{PlainText: s}}}
}

func richTextProp(s string) *notionapi.RichTextProperty {
	if s == "" {
		return &notionapi.RichTextProperty{}
	}
	return &notionapi.RichTextProperty{RichText: []notionapi.RichText{{PlainText: s}}}
}

func selectProp(name string) *notionapi.SelectProperty {
	return &notionapi.SelectProperty{Select: notionapi.Option{Name: name}}
}

func publishedPage(id, title, slug string) notionapi.Page {
	return notionapi.Page{
		ID: notionapi.ObjectID(id),
		Properties: notionapi.Properties{
			"Title":  titleProp(title),
			"Slug":   richTextProp(slug),
			"Status": selectProp("Published"),
		},
	}
}

// --- Tests ---

func TestParsePageMissingSlug(t *testing.T) {
	c := newTestClient(t)
	page := notionapi.Page{
		ID: "p1",
		Properties: notionapi.Properties{
			"Title":  titleProp("X"),
			"Status": selectProp("Published"),
		},
	}
	if got := c.parsePage(context.Background(), &page); got != nil {
		t.Errorf("parsePage = %+v, want nil for slugless page", got)
	}
}

func TestParsePageEmptySlug(t *testing.T) {
	c := newTestClient(t)
	page := notionapi.Page{
		ID: "p1",
		Properties: notionapi.Properties{
			"Title":  titleProp("X"),
			"Slug":   richTextProp(""),
			"Status": selectProp("Published"),
		},
	}
	if got := c.parsePage(context.Background(), &page); got != nil {
		t.Errorf("parsePage = %+v, want nil for empty slug", got)
	}
}

func TestParsePageDefaults(t *testing.T) {
	c := newTestClient(t)
	page := notionapi.Page{
		ID: "p1",
		Properties: notionapi.Properties{
			"Slug": richTextProp("hello"),
		},
	}
	post := c.parsePage(context.Background(), &page)
	if post == nil {
		t.Fatal("parsePage returned nil")
	}
	if post.Title != "Untitled" {
		t.Errorf("Title = %q, want %q", post.Title, "Untitled")
	}
	if post.Status != StatusDraft {
		t.Errorf("Status = %q, want Draft", post.Status)
	}
	if post.Tags == nil || len(post.Tags) != 0 {
		t.Errorf("Tags = %v, want empty non-nil slice", post.Tags)
	}
	if post.CoverImage != nil {
		t.Errorf("CoverImage = %v, want nil", *post.CoverImage)
	}
	if post.Excerpt != nil || post.Author != nil || post.PublishedDate != nil {
		t.Error("optional fields should be nil when absent")
	}
	if post.IsAdSense {
		t.Error("IsAdSense should default to false")
	}
	if post.RelatedCTA == nil || len(post.RelatedCTA) != 0 {
		t.Errorf("RelatedCTA = %v, want empty non-nil slice", post.RelatedCTA)
	}
}

func TestParsePageStatusTypeMismatch(t *testing.T) {
	c := newTestClient(t)
	page := publishedPage("p1", "Hi", "hello")
	// Status delivered as rich text instead of a select.
	page.Properties["Status"] = richTextProp("Published")

	post := c.parsePage(context.Background(), &page)
	if post == nil {
		t.Fatal("parsePage returned nil")
	}
	if post.Status != StatusDraft {
		t.Errorf("Status = %q, want Draft on type mismatch", post.Status)
	}
}

func TestParsePageUnknownStatusDropped(t *testing.T) {
	c := newTestClient(t)
	page := publishedPage("p1", "Hi", "hello")
	page.Properties["Status"] = selectProp("Archived")

	if got := c.parsePage(context.Background(), &page); got != nil {
		t.Errorf("parsePage = %+v, want nil for unknown workflow state", got)
	}
}

func TestParsePageFull(t *testing.T) {
	c := newTestClient(t)
	start := notionapi.Date(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	page := publishedPage("p1", "Hi", "hello")
	page.Properties["Published Date"] = &notionapi.DateProperty{
		Date: &notionapi.DateObject{Start: &start},
	}
	page.Properties["Tags"] = &notionapi.MultiSelectProperty{
		MultiSelect: []notionapi.Option{{Name: "go"}, {Name: "web"}, {Name: "notion"}},
	}
	page.Properties["Excerpt"] = richTextProp("A short summary")
	page.Properties["Author"] = &notionapi.PeopleProperty{
		People: []notionapi.User{{Name: "Miya"}},
	}
	page.Properties["IsAdSense"] = &notionapi.CheckboxProperty{Checkbox: true}
	page.Properties["Cover Image"] = &notionapi.FilesProperty{
		Files: []notionapi.File{{
			External: &notionapi.FileObject{URL: "https://images.unsplash.com/photo.png"},
		}},
	}

	post := c.parsePage(context.Background(), &page)
	if post == nil {
		t.Fatal("parsePage returned nil")
	}
	if post.Status != StatusPublished {
		t.Errorf("Status = %q, want Published", post.Status)
	}
	if post.PublishedDate == nil || *post.PublishedDate != "2024-01-15" {
		t.Errorf("PublishedDate = %v, want 2024-01-15", post.PublishedDate)
	}
	want := []string{"go", "web", "notion"}
	if len(post.Tags) != len(want) {
		t.Fatalf("Tags = %v, want %v", post.Tags, want)
	}
	for i := range want {
		if post.Tags[i] != want[i] {
			t.Errorf("Tags[%d] = %q, want %q (source order preserved)", i, post.Tags[i], want[i])
		}
	}
	if post.Excerpt == nil || *post.Excerpt != "A short summary" {
		t.Errorf("Excerpt = %v", post.Excerpt)
	}
	if post.Author == nil || *post.Author != "Miya" {
		t.Errorf("Author = %v", post.Author)
	}
	if !post.IsAdSense {
		t.Error("IsAdSense should be true")
	}
	// No localizer configured: the remote URL passes through unchanged.
	if post.CoverImage == nil || *post.CoverImage != "https://images.unsplash.com/photo.png" {
		t.Errorf("CoverImage = %v, want remote URL passthrough", post.CoverImage)
	}
}

func TestParsePageCoverLocalized(t *testing.T) {
	c := newTestClient(t)
	loc := &fakeLocalizer{}
	c.images = loc

	page := publishedPage("p1", "Hi", "hello")
	page.Properties["Cover Image"] = &notionapi.FilesProperty{
		Files: []notionapi.File{{
			File: &notionapi.FileObject{URL: "https://prod-files-secure.s3.us-west-2.amazonaws.com/x/cover.png?sig=1"},
		}},
	}

	post := c.parsePage(context.Background(), &page)
	if post == nil {
		t.Fatal("parsePage returned nil")
	}
	if post.CoverImage == nil || *post.CoverImage != "/images/notion/cached.jpg" {
		t.Errorf("CoverImage = %v, want localized path", post.CoverImage)
	}
	if len(loc.calls) != 1 {
		t.Errorf("localizer calls = %d, want 1", len(loc.calls))
	}
}

func TestParseCTADefaults(t *testing.T) {
	page := &notionapi.Page{
		ID: "cta1",
		Properties: notionapi.Properties{
			"Name": titleProp("Newsletter"),
		},
	}
	cta := parseCTA(page)
	if cta.Title != "Newsletter" {
		t.Errorf("Title = %q, want title from Name column", cta.Title)
	}
	if cta.ButtonText != "Learn more" {
		t.Errorf("ButtonText = %q, want default", cta.ButtonText)
	}
	if cta.ButtonURL != "#" {
		t.Errorf("ButtonURL = %q, want neutral placeholder", cta.ButtonURL)
	}
	if cta.Description != nil || cta.BackgroundColor != nil {
		t.Error("optional CTA fields should be nil when absent")
	}
}

func TestParseCTAFull(t *testing.T) {
	page := &notionapi.Page{
		ID: "cta1",
		Properties: notionapi.Properties{
			"Title":            titleProp("Course"),
			"Description":      richTextProp("Sign up today"),
			"Button Text":      richTextProp("Enroll"),
			"Button URL":       &notionapi.URLProperty{URL: "https://example.com/enroll"},
			"Background Color": selectProp("blue"),
		},
	}
	cta := parseCTA(page)
	if cta.Title != "Course" || cta.ButtonText != "Enroll" || cta.ButtonURL != "https://example.com/enroll" {
		t.Errorf("unexpected CTA: %+v", cta)
	}
	if cta.Description == nil || *cta.Description != "Sign up today" {
		t.Errorf("Description = %v", cta.Description)
	}
	if cta.BackgroundColor == nil || *cta.BackgroundColor != "blue" {
		t.Errorf("BackgroundColor = %v", cta.BackgroundColor)
	}
}

func TestFetchCTAsPartialFailure(t *testing.T) {
	c := newTestClient(t)
	c.pages = &fakePages{pages: map[string]*notionapi.Page{
		"cta1": {ID: "cta1", Properties: notionapi.Properties{"Title": titleProp("First")}},
		"cta3": {ID: "cta3", Properties: notionapi.Properties{"Title": titleProp("Third")}},
	}}

	ctas := c.fetchCTAs(context.Background(), []string{"cta1", "cta2", "cta3"})
	if len(ctas) != 2 {
		t.Fatalf("got %d CTAs, want 2 (failed lookup dropped)", len(ctas))
	}
	if ctas[0].Title != "First" || ctas[1].Title != "Third" {
		t.Errorf("CTA order not preserved: %+v", ctas)
	}
}
