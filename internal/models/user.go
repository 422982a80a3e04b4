package models

// User owns zero or more accounts, referenced by Account.UserID.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Address1    string `json:"address1"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postalCode"`
	DateOfBirth string `json:"dateOfBirth"` // YYYY-MM-DD
	SSN         string `json:"ssn"`         // last 4 digits only
}
