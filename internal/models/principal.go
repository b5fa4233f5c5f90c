package models

// Principal is the authenticated identity a request acts on behalf of.
// Every Group and Collectible belongs to exactly one principal.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}
