package models

import "strings"

// RoleInfo is the nested role object some profile revisions return.
type RoleInfo struct {
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion,omitempty"`
}

type User struct {
	Username   string    `json:"username"`
	Role       string    `json:"role,omitempty"`
	Rol        *RoleInfo `json:"rol,omitempty"`
	DwellingID int64     `json:"vivienda_id,omitempty"`
	FullName   string    `json:"nombre,omitempty"`
}

// RoleName returns the role string whichever shape the backend used.
// The flat "role" field takes precedence over "rol.nombre".
func (u User) RoleName() string {
	if role := strings.TrimSpace(u.Role); role != "" {
		return role
	}
	if u.Rol != nil {
		return strings.TrimSpace(u.Rol.Nombre)
	}
	return ""
}

type Session struct {
	User         User   `json:"user"`
	Token        string `json:"token"`
	RefreshToken string `json:"refresh,omitempty"`
}

// Empty reports whether no authenticated user is present.
func (s Session) Empty() bool {
	return s.Token == "" || s.User.Username == ""
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}
