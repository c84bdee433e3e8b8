package metadata

import (
	"strings"
	"unicode/utf16"
)

const unsplashParams = "?ixlib=rb-4.0.3&auto=format&fit=crop&w=400&h=200"

var fallbackNames = []string{
	"Study Group",
	"Friends Chat",
	"Business Network",
	"Community Hub",
	"Discussion Group",
	"Local Community",
	"Tech Talks",
	"Interest Group",
}

var fallbackImages = []string{
	"https://images.unsplash.com/photo-1522071820081-009f0129c71c" + unsplashParams,
	"https://images.unsplash.com/photo-1600880292203-757bb62b4baf" + unsplashParams,
	"https://images.unsplash.com/photo-1523240795612-9a054b0db644" + unsplashParams,
	"https://images.unsplash.com/photo-1542751371-adc38448a05e" + unsplashParams,
}

// Placeholder is the image used when a live page has a title but no image
var Placeholder = fallbackImages[0]

// Metadata is the display pair used to pre-fill a group submission
type Metadata struct {
	Title    string `json:"title"`
	ImageURL string `json:"imageUrl"`
}

// GroupCode returns the last "/"-separated segment of link
func GroupCode(link string) string {
	return link[strings.LastIndex(link, "/")+1:]
}

// codeHash sums the UTF-16 code units of code
func codeHash(code string) int {
	sum := 0
	for _, u := range utf16.Encode([]rune(code)) {
		sum += int(u)
	}
	return sum
}

// Fallback derives a stable name and image from the link's group code.
// It is a pure function of GroupCode(link); the additive hash must not change
// or existing links would map to different pairs.
func Fallback(link string) Metadata {
	h := codeHash(GroupCode(link))
	return Metadata{
		Title:    fallbackNames[h%len(fallbackNames)],
		ImageURL: fallbackImages[h%len(fallbackImages)],
	}
}
