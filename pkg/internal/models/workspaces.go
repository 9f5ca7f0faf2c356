package models

type MemberRole = string

const (
	MemberRoleClient     = MemberRole("client")
	MemberRoleFreelancer = MemberRole("freelancer")
)

// Workspace pairs one client with one freelancer and forms the access
// boundary for every call.
type Workspace struct {
	BaseModel

	Alias   string            `json:"alias" gorm:"uniqueIndex"`
	Name    string            `json:"name"`
	Members []WorkspaceMember `json:"members"`
	Calls   []Call            `json:"calls,omitempty"`
}

type WorkspaceMember struct {
	BaseModel

	WorkspaceID uint       `json:"workspace_id"`
	AccountID   uint       `json:"account_id"`
	Role        MemberRole `json:"role"`

	Workspace Workspace `json:"workspace,omitempty"`
	Account   Account   `json:"account"`
}

func (v Workspace) Membership(accountId uint) (WorkspaceMember, bool) {
	for _, member := range v.Members {
		if member.AccountID == accountId {
			return member, true
		}
	}
	return WorkspaceMember{}, false
}

func (v Workspace) MemberWithRole(role MemberRole) (WorkspaceMember, bool) {
	for _, member := range v.Members {
		if member.Role == role {
			return member, true
		}
	}
	return WorkspaceMember{}, false
}
