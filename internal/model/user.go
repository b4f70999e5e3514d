package model

// Roles recognised by the seating service.  Only admins and issuers may
// manage a seating chart; students are the people being seated.
const (
	RoleAdmin   = "admin"
	RoleIssuer  = "issuer"
	RoleStudent = "student"
)

// User represents a row in the `users` table.  Seating only needs the
// display name and role; credentials live with the auth service.
//
// Fields:
//  ID        – primary key identifier of the user.
//  FirstName – given name.
//  LastName  – family name.
//  Role      – admin, issuer or student.
type User struct {
	ID        uint64 `db:"id"`         // users.id
	FirstName string `db:"first_name"` // users.first_name
	LastName  string `db:"last_name"`  // users.last_name
	Role      string `db:"role"`       // users.role
}

// DisplayName is the label rendered on a seat.
func (u User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	if u.FirstName == "" {
		return u.LastName
	}
	return u.FirstName + " " + u.LastName
}
