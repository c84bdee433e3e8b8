package db

// Categories is the fixed set of group categories
var Categories = []string{
	"technology",
	"business",
	"education",
	"gaming",
	"entertainment",
	"lifestyle",
	"news",
	"sports",
	"health",
	"travel",
	"food",
	"music",
}

// Countries is the fixed set of two-letter country codes
var Countries = []string{
	"US", "IN", "UK", "CA", "AU", "DE", "FR", "BR",
	"JP", "KR", "MX", "IT", "ES", "NL", "SG", "AE",
}

// WhatsappInviteMarker must appear in every group link
const WhatsappInviteMarker = "chat.whatsapp.com"

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// IsCategory reports whether c is a known category
func IsCategory(c string) bool { return contains(Categories, c) }

// IsCountry reports whether c is a known country code
func IsCountry(c string) bool { return contains(Countries, c) }
