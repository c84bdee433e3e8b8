package store

import (
	"context"
	"fmt"

	"github.com/shaibs3/groupdir/internal/db"
)

const unsplashParams = "?ixlib=rb-4.0.3&auto=format&fit=crop&w=400&h=200"

func imageURL(photo string) *string {
	u := "https://images.unsplash.com/" + photo + unsplashParams
	return &u
}

// SampleGroups is the starter catalogue inserted into an empty store
func SampleGroups() []db.GroupInput {
	return []db.GroupInput{
		{
			Title:        "Tech Innovators Hub",
			Description:  "Connect with tech enthusiasts, share innovations, and discuss the latest in technology and startups.",
			WhatsappLink: "https://chat.whatsapp.com/tech-innovators",
			Category:     "technology",
			Country:      "US",
			ImageURL:     imageURL("photo-1522071820081-009f0129c71c"),
		},
		{
			Title:        "Entrepreneurs Network",
			Description:  "Join successful entrepreneurs, share business ideas, and find potential partners for your next venture.",
			WhatsappLink: "https://chat.whatsapp.com/entrepreneurs-network",
			Category:     "business",
			Country:      "IN",
			ImageURL:     imageURL("photo-1600880292203-757bb62b4baf"),
		},
		{
			Title:        "Medical Students Unite",
			Description:  "Connect with medical students worldwide, share study materials, and support each other through the journey.",
			WhatsappLink: "https://chat.whatsapp.com/medical-students",
			Category:     "education",
			Country:      "UK",
			ImageURL:     imageURL("photo-1523240795612-9a054b0db644"),
		},
		{
			Title:        "Pro Gamers League",
			Description:  "Join competitive gamers, discuss strategies, find teammates, and stay updated with the latest gaming trends.",
			WhatsappLink: "https://chat.whatsapp.com/pro-gamers",
			Category:     "gaming",
			Country:      "CA",
			ImageURL:     imageURL("photo-1542751371-adc38448a05e"),
		},
	}
}

// Seed inserts SampleGroups when the store holds no groups. It returns the
// number of groups inserted.
func Seed(ctx context.Context, s GroupStore) (int, error) {
	existing, err := s.ListGroups(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list groups: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}
	samples := SampleGroups()
	for _, in := range samples {
		if _, err := s.CreateGroup(ctx, in); err != nil {
			return 0, fmt.Errorf("failed to seed group %q: %w", in.Title, err)
		}
	}
	return len(samples), nil
}
