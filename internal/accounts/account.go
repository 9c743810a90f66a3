package accounts

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
)

// Account is a dashboard user. Accounts are provisioned out-of-band
// (see cmd/accounts_gen) and looked up on every login.
type Account struct {
	ID           int    `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"password"`
	Role         Role   `json:"role"`
	Phone        string `json:"phone,omitempty"`
}

// Summary is the public-safe view of an account, returned to clients.
// It never carries the password hash.
type Summary struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	Phone string `json:"phone,omitempty"`
}

func (a *Account) Summary() Summary {
	return Summary{
		ID:    a.ID,
		Email: a.Email,
		Name:  a.Name,
		Role:  a.Role,
		Phone: a.Phone,
	}
}

// ProfileUpdate carries the optional profile fields; nil means "leave as is".
type ProfileUpdate struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}
