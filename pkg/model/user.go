package model

// User is both host and tenant. ID is the identity provider's subject, which is
// also the subject of the session token.
type User struct {
	ID       string   `json:"id" bson:"_id"`
	Name     string   `json:"name" bson:"name"`
	Avatar   string   `json:"avatar" bson:"avatar"`
	Contact  string   `json:"contact" bson:"contact"`
	WalletID string   `json:"-" bson:"wallet_id,omitempty"`
	Income   int64    `json:"income" bson:"income"`
	Bookings []string `json:"bookings" bson:"bookings"`
	Listings []string `json:"listings" bson:"listings"`
}

// HasWallet reports whether the user can receive payouts.
func (u *User) HasWallet() bool {
	return u != nil && u.WalletID != ""
}

// Viewer is the public profile returned to the signed-in user.
type Viewer struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Avatar     string `json:"avatar"`
	HasWallet  bool   `json:"has_wallet"`
	Income     int64  `json:"income"`
	NumBooking int    `json:"num_bookings"`
}

func (u *User) Viewer() *Viewer {
	return &Viewer{
		ID:         u.ID,
		Name:       u.Name,
		Avatar:     u.Avatar,
		HasWallet:  u.HasWallet(),
		Income:     u.Income,
		NumBooking: len(u.Bookings),
	}
}

type ConnectWalletRequest struct {
	Code string `json:"code" validate:"required,min=3"`
}

// Profile is a user as seen by others. Income and bookings are only filled
// in for the user themself.
type Profile struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Avatar    string   `json:"avatar"`
	Contact   string   `json:"contact"`
	HasWallet bool     `json:"has_wallet"`
	Income    *int64   `json:"income,omitempty"`
	Bookings  []string `json:"bookings,omitempty"`
	Listings  []string `json:"listings"`
}

func (u *User) Profile(viewerID string) *Profile {
	p := &Profile{
		ID:        u.ID,
		Name:      u.Name,
		Avatar:    u.Avatar,
		Contact:   u.Contact,
		HasWallet: u.HasWallet(),
		Listings:  u.Listings,
	}
	if p.Listings == nil {
		p.Listings = []string{}
	}
	if viewerID == u.ID {
		income := u.Income
		p.Income = &income
		p.Bookings = u.Bookings
	}
	return p
}
