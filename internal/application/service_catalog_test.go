package application_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nodrystarts/site-backend/internal/application"
	"github.com/nodrystarts/site-backend/internal/application/apptest"
	"github.com/nodrystarts/site-backend/internal/domain"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool     { return &b }
func intPtr(n int) *int        { return &n }

func TestManufacturerVisibility(t *testing.T) {
	t.Parallel()

	f := apptest.New()
	ctx := context.Background()
	active, err := f.Service.CreateManufacturer(ctx, application.ManufacturerInput{
		Name:        strPtr("Valley Fab"),
		Description: strPtr("Steel work"),
		Address:     strPtr("1 Main St"),
		Phone:       strPtr("555-0101"),
		Email:       strPtr("ops@valleyfab.test"),
		Website:     strPtr("https://valleyfab.test"),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	hidden, err := f.Service.CreateManufacturer(ctx, application.ManufacturerInput{
		Name:        strPtr("Alpha Tools"),
		Description: strPtr("Retired"),
		Address:     strPtr("2 Side St"),
		Phone:       strPtr("555-0102"),
		Email:       strPtr("hello@alpha.test"),
		Active:      boolPtr(false),
	})
	if err != nil {
		t.Fatalf("create inactive failed: %v", err)
	}

	public, err := f.Service.ListManufacturers(ctx, 1, 10)
	if err != nil {
		t.Fatalf("public list failed: %v", err)
	}
	if public.Count != 1 || public.Results[0].ID != active.ID {
		t.Fatalf("public list must only show active entries: %+v", public)
	}
	all, err := f.Service.ListAllManufacturers(ctx, 1, 10)
	if err != nil {
		t.Fatalf("admin list failed: %v", err)
	}
	if all.Count != 2 || all.Results[0].Name != "Alpha Tools" {
		t.Fatalf("admin list should include inactive, ordered by name: %+v", all)
	}
	if _, err := f.Service.GetManufacturer(ctx, hidden.ID, false); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("inactive manufacturer must be hidden from the public, got %v", err)
	}
	if _, err := f.Service.GetManufacturer(ctx, hidden.ID, true); err != nil {
		t.Fatalf("admin should see inactive manufacturer: %v", err)
	}
}

func TestManufacturerPartialAndFullUpdate(t *testing.T) {
	t.Parallel()

	f := apptest.New()
	ctx := context.Background()
	m, err := f.Service.CreateManufacturer(ctx, application.ManufacturerInput{
		Name: strPtr("Valley Fab"), Description: strPtr("d"), Address: strPtr("a"),
		Phone: strPtr("1"), Email: strPtr("a@b.test"),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	patched, err := f.Service.UpdateManufacturer(ctx, m.ID, application.ManufacturerInput{Phone: strPtr("2")}, true)
	if err != nil {
		t.Fatalf("patch failed: %v", err)
	}
	if patched.Phone != "2" || patched.Name != "Valley Fab" {
		t.Fatalf("patch should only touch phone: %+v", patched)
	}

	_, err = f.Service.UpdateManufacturer(ctx, m.ID, application.ManufacturerInput{Phone: strPtr("3"), Website: strPtr("ftp://x")}, false)
	var fields domain.FieldErrors
	if !errors.As(err, &fields) {
		t.Fatalf("expected field errors, got %v", err)
	}
	for _, field := range []string{"name", "description", "address", "email", "website"} {
		if len(fields[field]) == 0 {
			t.Fatalf("expected %s error in %v", field, fields)
		}
	}
}

func TestUploadDocumentHidesGatedURL(t *testing.T) {
	t.Parallel()

	f := apptest.New()
	ctx := context.Background()

	upload := func(category string) application.DocumentView {
		view, err := f.Service.UploadDocument(ctx, application.DocumentUploadRequest{
			Category: category,
			File: application.Upload{
				FileName:    category + ".pdf",
				ContentType: "application/pdf",
				Size:        3,
				Body:        strings.NewReader("pdf"),
			},
		})
		if err != nil {
			t.Fatalf("upload %s failed: %v", category, err)
		}
		return view
	}
	gated := upload("investor")
	open := upload("patent")

	if gated.FileURL == "" {
		t.Fatalf("admin upload response should carry the url")
	}
	publicGated, err := f.Service.GetDocument(ctx, gated.ID, false)
	if err != nil {
		t.Fatalf("get gated failed: %v", err)
	}
	if publicGated.FileURL != "" {
		t.Fatalf("gated document url leaked to public: %q", publicGated.FileURL)
	}
	publicOpen, err := f.Service.GetDocument(ctx, open.ID, false)
	if err != nil {
		t.Fatalf("get open failed: %v", err)
	}
	if !strings.Contains(publicOpen.FileURL, "documents/patent/") || publicOpen.CategoryDisplay != "Patent" {
		t.Fatalf("unexpected public document: %+v", publicOpen)
	}

	list, err := f.Service.ListDocuments(ctx, application.DocumentQuery{Category: "investor"}, false)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if list.Count != 1 || list.Results[0].FileURL != "" {
		t.Fatalf("unexpected filtered list: %+v", list)
	}

	if err := f.Service.DeleteDocument(ctx, open.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if f.Objects.Count() != 1 {
		t.Fatalf("deleting a document must remove its object")
	}
}

func TestUploadDocumentValidation(t *testing.T) {
	t.Parallel()

	f := apptest.New()
	_, err := f.Service.UploadDocument(context.Background(), application.DocumentUploadRequest{Category: "memes"})
	var fields domain.FieldErrors
	if !errors.As(err, &fields) {
		t.Fatalf("expected field errors, got %v", err)
	}
	if len(fields["category"]) == 0 || len(fields["file"]) == 0 {
		t.Fatalf("unexpected field errors %v", fields)
	}
}

func TestContentBlocksSanitizeAndReorder(t *testing.T) {
	t.Parallel()

	f := apptest.New()
	ctx := context.Background()
	for i, slug := range []string{"hero", "features", "faq"} {
		if _, err := f.Service.CreateContentBlock(ctx, application.ContentBlockInput{
			Slug:        strPtr(slug),
			Title:       strPtr(strings.ToUpper(slug)),
			HTMLContent: strPtr("<script>x</script>"),
			Order:       intPtr(i),
		}); err != nil {
			t.Fatalf("create %s failed: %v", slug, err)
		}
	}

	block, err := f.Service.GetContentBlock(ctx, "hero")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if strings.Contains(block.HTMLContent, "<script>") || block.Page != domain.DefaultContentPage {
		t.Fatalf("content not sanitized or page not defaulted: %+v", block)
	}

	resp, err := f.Service.ReorderContentBlocks(ctx, application.ReorderRequest{Blocks: []application.ReorderItem{
		{Slug: "faq", Order: 0},
		{Slug: "hero", Order: 2},
		{Slug: "missing", Order: 9},
	}})
	if err != nil {
		t.Fatalf("reorder failed: %v", err)
	}
	if resp.UpdatedCount != 2 || resp.Message != "Successfully updated order for 2 blocks" {
		t.Fatalf("unexpected reorder response %+v", resp)
	}

	blocks, err := f.Service.ListContentBlocks(ctx, "home")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	var order []string
	for _, b := range blocks {
		order = append(order, b.Slug)
	}
	if strings.Join(order, ",") != "faq,features,hero" {
		t.Fatalf("unexpected order %v", order)
	}

	if _, err := f.Service.ReorderContentBlocks(ctx, application.ReorderRequest{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("empty reorder should be invalid, got %v", err)
	}
}

func TestContentBlockSlugConflictAndRename(t *testing.T) {
	t.Parallel()

	f := apptest.New()
	ctx := context.Background()
	for _, slug := range []string{"hero", "about"} {
		if _, err := f.Service.CreateContentBlock(ctx, application.ContentBlockInput{Slug: strPtr(slug), Title: strPtr(slug)}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}
	if _, err := f.Service.CreateContentBlock(ctx, application.ContentBlockInput{Slug: strPtr("hero"), Title: strPtr("dup")}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := f.Service.UpdateContentBlock(ctx, "about", application.ContentBlockInput{Slug: strPtr("hero")}, true); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected rename conflict, got %v", err)
	}
	renamed, err := f.Service.UpdateContentBlock(ctx, "about", application.ContentBlockInput{Slug: strPtr("about-us")}, true)
	if err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if renamed.Slug != "about-us" {
		t.Fatalf("unexpected slug %q", renamed.Slug)
	}
	if _, err := f.Service.GetContentBlock(ctx, "about"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("old slug should be gone, got %v", err)
	}
}
