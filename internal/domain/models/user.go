package models

type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "active"
	AccountStatusInactive AccountStatus = "inactive"
	AccountStatusDisabled AccountStatus = "disabled"
)

type CardType string

const (
	CardVisa       CardType = "Visa"
	CardMastercard CardType = "Mastercard"
)

type Card struct {
	ID     string   `json:"id"`
	Type   CardType `json:"type"`
	Number string   `json:"number"`
	Expiry string   `json:"expiry"`
}

// User is the account holder. PINHash never leaves the server.
type User struct {
	ID            string        `json:"id"`
	Username      string        `json:"username"`
	Email         string        `json:"email"`
	Firstname     string        `json:"firstname"`
	Lastname      string        `json:"lastname"`
	PINHash       string        `json:"-"`
	Accounts      []Account     `json:"accounts"`
	Cards         []Card        `json:"cards"`
	Contact       int64         `json:"contact"`
	Address       string        `json:"address"`
	AccountID     string        `json:"accountID"`
	AccountStatus AccountStatus `json:"accountStatus"`
	Verified      bool          `json:"verfied"`
}

// Clone returns a deep copy so callers can't reach into the store's slices.
func (u User) Clone() User {
	u.Accounts = append([]Account(nil), u.Accounts...)
	u.Cards = append([]Card(nil), u.Cards...)
	return u
}

func (u *User) Account(id string) (*Account, bool) {
	for i := range u.Accounts {
		if u.Accounts[i].ID == id {
			return &u.Accounts[i], true
		}
	}
	return nil, false
}

// ProfileUpdate carries only the fields the client sent.
type ProfileUpdate struct {
	Firstname *string `json:"firstname,omitempty" validate:"omitempty,min=1"`
	Lastname  *string `json:"lastname,omitempty" validate:"omitempty,min=1"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Contact   *int64  `json:"contact,omitempty" validate:"omitempty,gte=0"`
	Address   *string `json:"address,omitempty"`
}

func (p ProfileUpdate) Apply(u *User) {
	if p.Firstname != nil {
		u.Firstname = *p.Firstname
	}
	if p.Lastname != nil {
		u.Lastname = *p.Lastname
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Contact != nil {
		u.Contact = *p.Contact
	}
	if p.Address != nil {
		u.Address = *p.Address
	}
}
