package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func validRequest() GroupRequest {
	return GroupRequest{
		Title:        "Gophers",
		Description:  "A group for Go developers",
		WhatsappLink: "https://chat.whatsapp.com/gophers",
		Category:     "technology",
		Country:      "US",
	}
}

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := New()
	require.NoError(t, err)
	return v
}

func TestGroup_Valid(t *testing.T) {
	v := newValidator(t)

	in, err := v.Group(validRequest())
	require.NoError(t, err)
	require.Equal(t, "Gophers", in.Title)
	require.Equal(t, "technology", in.Category)
	require.Nil(t, in.ImageURL)
}

func TestGroup_FieldErrors(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name    string
		mutate  func(*GroupRequest)
		field   string
		message string
	}{
		{"missing title", func(r *GroupRequest) { r.Title = "" }, "title", "title is a required field"},
		{"markup only title", func(r *GroupRequest) { r.Title = "<b></b>" }, "title", "title is a required field"},
		{"missing description", func(r *GroupRequest) { r.Description = "   " }, "description", "description is a required field"},
		{"long description", func(r *GroupRequest) { r.Description = strings.Repeat("a", MaxDescriptionLength+1) }, "description", "description must be a maximum of 500 characters in length"},
		{"missing link", func(r *GroupRequest) { r.WhatsappLink = "" }, "whatsappLink", "whatsappLink is a required field"},
		{"unknown category", func(r *GroupRequest) { r.Category = "astrology" }, "category", "category must be one of"},
		{"unknown country", func(r *GroupRequest) { r.Country = "ZZ" }, "country", "country must be one of"},
		{"bad image url", func(r *GroupRequest) { r.ImageURL = strPtr("not a url") }, "imageUrl", "imageUrl must be a valid URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			_, err := v.Group(req)
			var verrs Errors
			require.True(t, errors.As(err, &verrs), "expected Errors, got %v", err)
			require.Contains(t, verrs, tt.field)
			require.Contains(t, verrs[tt.field], tt.message)
		})
	}
}

func TestGroup_MultipleErrors(t *testing.T) {
	v := newValidator(t)

	_, err := v.Group(GroupRequest{})
	var verrs Errors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 5)
	require.Contains(t, err.Error(), "title is a required field")
}

func TestGroup_DescriptionAtLimit(t *testing.T) {
	v := newValidator(t)
	req := validRequest()
	req.Description = strings.Repeat("a", MaxDescriptionLength)

	_, err := v.Group(req)
	require.NoError(t, err)
}

func TestGroup_Sanitizes(t *testing.T) {
	v := newValidator(t)
	req := validRequest()
	req.Title = `  <script>alert(1)</script>Go &amp; <i>Friends</i> `
	req.Description = `<a href="javascript:x()">Tom & Jerry</a>`
	req.ImageURL = strPtr("  ")

	in, err := v.Group(req)
	require.NoError(t, err)
	require.Equal(t, "Go & Friends", in.Title)
	require.Equal(t, "Tom & Jerry", in.Description)
	require.Nil(t, in.ImageURL)
}

func TestStripMarkup_EncodedTags(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"entity encoded script", "&lt;script&gt;alert(1)&lt;/script&gt;Hub", "Hub"},
		{"double encoded tag", "&amp;lt;b&amp;gt;Hub&amp;lt;/b&amp;gt;", "Hub"},
		{"plain ampersand", "Tom & Jerry", "Tom & Jerry"},
		{"bare less-than", "a < b", "a < b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, v.StripMarkup(tt.in))
		})
	}
}

func TestGroup_EncodedMarkupIsStripped(t *testing.T) {
	v := newValidator(t)
	req := validRequest()
	req.Title = "&lt;script&gt;alert(1)&lt;/script&gt;Hub"
	req.Description = "&lt;img src=x onerror=alert(1)&gt;Weekly meetups"

	in, err := v.Group(req)
	require.NoError(t, err)
	require.NotContains(t, in.Title, "<script")
	require.Equal(t, "Hub", in.Title)
	require.NotContains(t, in.Description, "<img")
	require.Equal(t, "Weekly meetups", in.Description)
}

func TestGroup_NoLengthCapOnTitleOrLink(t *testing.T) {
	v := newValidator(t)
	req := validRequest()
	req.Title = strings.Repeat("t", 300)
	req.WhatsappLink = "https://chat.whatsapp.com/" + strings.Repeat("x", 600)

	in, err := v.Group(req)
	require.NoError(t, err)
	require.Len(t, in.Title, 300)
}

func TestGroup_KeepsImageURL(t *testing.T) {
	v := newValidator(t)
	req := validRequest()
	req.ImageURL = strPtr(" https://cdn.example/g.png ")

	in, err := v.Group(req)
	require.NoError(t, err)
	require.NotNil(t, in.ImageURL)
	require.Equal(t, "https://cdn.example/g.png", *in.ImageURL)
}
