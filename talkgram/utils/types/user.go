package types

// LoginRequest mirrors the identity provider profile handed over after
// external sign-in. Token verification itself stays with the provider.
type LoginRequest struct {
	UID        string  `json:"uid"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	PhotoURL   *string `json:"photo_url,omitempty"`
	ReferredBy *string `json:"referred_by,omitempty"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

// UserResponse is what the page reads on load: who the user is and how many
// credits they have left.
type UserResponse struct {
	UID          string  `json:"uid"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	PhotoURL     *string `json:"photo_url,omitempty"`
	Credits      int     `json:"credits"`
	Role         string  `json:"role"`
	HasPurchased bool    `json:"has_purchased"`
}
