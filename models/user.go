package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// User holds the structure for the user collection in mongo
type User struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details UserDetails        `json:"user" bson:"user"`
	Version int32              `json:"__v" bson:"__v"`
}

// UserDetails holds the structure for the inner user structure as defined in the user collection in mongo
type UserDetails struct {
	FirstName string `json:"firstName" bson:"firstName"`
	LastName  string `json:"lastName" bson:"lastName"`
	Email     string `json:"email" bson:"email"`
	Password  string `json:"password,omitempty" bson:"password"`
	Role      Role   `json:"role" bson:"role"`
	Phone     string `json:"phone,omitempty" bson:"phone,omitempty"`

	// lawyers
	BarRegistrationNumber string   `json:"barRegistrationNumber,omitempty" bson:"barRegistrationNumber,omitempty"`
	PracticeAreas         []string `json:"practiceAreas,omitempty" bson:"practiceAreas,omitempty"`

	// judges
	CourtAssignment CourtType `json:"courtAssignment,omitempty" bson:"courtAssignment,omitempty"`
	CourtNumber     string    `json:"courtNumber,omitempty" bson:"courtNumber,omitempty"`

	// registrars
	EmployeeID string `json:"employeeId,omitempty" bson:"employeeId,omitempty"`
	Department string `json:"department,omitempty" bson:"department,omitempty"`

	IsActive  bool                `json:"isActive" bson:"isActive"`
	LastLogin *primitive.DateTime `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`
	CreatedAt primitive.DateTime  `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime  `json:"updatedAt" bson:"updatedAt"`
}

// FullName joins first and last name
func (u UserDetails) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Principal returns the principal view of the user
func (u User) Principal() Principal {
	return Principal{ID: u.ID.Hex(), Role: u.Details.Role, Name: u.Details.FullName()}
}
