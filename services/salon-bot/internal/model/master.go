package model

import "strings"

// Master is a staff member. A master offers exactly one service.
type Master struct {
	ID        int64
	FirstName string
	LastName  string
	Service   string
	ChatID    int64
	Username  string
}

func (m Master) DisplayName() string {
	name := strings.TrimSpace(m.FirstName + " " + m.LastName)
	if m.Username != "" {
		name += " (@" + m.Username + ")"
	}
	return name
}
