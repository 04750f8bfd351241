package model

import "time"

// User is the account returned by the backend after login or registration.
type User struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Initials returns up to two uppercase initials for the navbar avatar.
func (u User) Initials() string {
	var out []rune
	startOfWord := true
	for _, r := range u.Name {
		if r == ' ' {
			startOfWord = true
			continue
		}
		if startOfWord && len(out) < 2 {
			if r >= 'a' && r <= 'z' {
				r -= 'a' - 'A'
			}
			out = append(out, r)
		}
		startOfWord = false
	}
	if len(out) == 0 && u.Email != "" {
		r := rune(u.Email[0])
		if r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		out = append(out, r)
	}
	return string(out)
}
