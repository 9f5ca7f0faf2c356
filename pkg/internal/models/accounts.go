package models

// Account is the local mirror of the identity store.
// This service only reads accounts, it never provisions them.
type Account struct {
	BaseModel

	Name   string  `json:"name" gorm:"uniqueIndex"`
	Nick   string  `json:"nick"`
	Email  string  `json:"email"`
	Avatar *string `json:"avatar"`

	Workspaces []WorkspaceMember `json:"workspaces,omitempty"`
}
