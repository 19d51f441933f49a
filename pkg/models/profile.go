package models

// Profile is the local identity used to attribute new entries.
type Profile struct {
	Name string `json:"name"`
	Date string `json:"date"`
	OC   string `json:"oc"`
}
