package models

// MechanicProfile — профиль механика в маркетплейсе.
type MechanicProfile struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Surname     string   `json:"surname"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	ShopName    string   `json:"shopName"`
	City        string   `json:"city"`
	Specialties []string `json:"specialties"`
	Rating      float64  `json:"rating"`
	JobCount    int      `json:"jobCount"`
}

// ProfileUpdate — изменяемые поля профиля.
type ProfileUpdate struct {
	Phone       string   `json:"phone,omitempty"`
	ShopName    string   `json:"shopName,omitempty"`
	City        string   `json:"city,omitempty"`
	Specialties []string `json:"specialties,omitempty"`
}
