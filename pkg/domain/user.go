package domain

import "strings"

// User is the resident account returned by the auth endpoints.
type User struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	MobileNumber string `json:"mobile_no"`
}

// FirstName returns the first word of the user's name, used as the display name.
func (u *User) FirstName() string {
	if u == nil {
		return ""
	}
	return FirstName(u.Name)
}

// FirstName returns the first whitespace-separated word of name.
func FirstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
