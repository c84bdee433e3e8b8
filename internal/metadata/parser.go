package metadata

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultTitle replaces a page title that is empty once "WhatsApp" is removed
const DefaultTitle = "Group Chat"

// ErrNoMetadata means the page carried no title or image tags at all
var ErrNoMetadata = errors.New("page has no usable metadata")

var whatsappWord = regexp.MustCompile(`(?i)whatsapp`)

// pageTags holds the raw candidates found in a document
type pageTags struct {
	ogTitle      string
	twitterTitle string
	title        string
	ogImage      string
	twitterImage string
}

func (t pageTags) empty() bool {
	return t.ogTitle == "" && t.twitterTitle == "" && t.title == "" &&
		t.ogImage == "" && t.twitterImage == ""
}

// Parse extracts metadata from an HTML document. Titles are tried in the
// order og:title, twitter:title, <title>; images og:image then twitter:image.
func Parse(r io.Reader) (Metadata, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to parse html: %w", err)
	}

	var tags pageTags
	collect(doc, &tags)
	if tags.empty() {
		return Metadata{}, ErrNoMetadata
	}

	title := strings.TrimSpace(whatsappWord.ReplaceAllString(firstNonEmpty(tags.ogTitle, tags.twitterTitle, tags.title), ""))
	if title == "" {
		title = DefaultTitle
	}
	image := firstNonEmpty(tags.ogImage, tags.twitterImage)
	if image == "" {
		image = Placeholder
	}
	return Metadata{Title: title, ImageURL: image}, nil
}

func collect(n *html.Node, tags *pageTags) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Meta:
			key, content := metaPair(n)
			switch key {
			case "og:title":
				setOnce(&tags.ogTitle, content)
			case "twitter:title":
				setOnce(&tags.twitterTitle, content)
			case "og:image":
				setOnce(&tags.ogImage, content)
			case "twitter:image":
				setOnce(&tags.twitterImage, content)
			}
		case atom.Title:
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				setOnce(&tags.title, n.FirstChild.Data)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(c, tags)
	}
}

// metaPair reads property or name, whichever is set, along with content
func metaPair(n *html.Node) (string, string) {
	var key, content string
	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "property", "name":
			if key == "" {
				key = strings.ToLower(strings.TrimSpace(a.Val))
			}
		case "content":
			content = a.Val
		}
	}
	return key, content
}

func setOnce(dst *string, v string) {
	if *dst == "" {
		*dst = strings.TrimSpace(v)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
