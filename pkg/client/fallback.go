package client

import "guestbook/pkg/models"

// Fallback is the fixed sample collection shown when the backend cannot be
// read. Each call returns a fresh copy.
func Fallback() []models.Entry {
	return []models.Entry{
		{ID: "1", Name: "TimeTraveler_01", Message: "The train is late in my timeline.", Date: "公元3033年", OC: models.Optional("Cyborg Historian")},
		{ID: "2", Name: "LostSoul", Message: "Is this the stop for the Void?", Date: "The Void", OC: models.Optional("Ghost")},
		{ID: "3", Name: "RetroFan", Message: "Love the static noise.", Date: "1999-12-31"},
	}
}
