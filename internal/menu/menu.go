package menu

import "strings"

// Role is the canonical form of a backend role string.
type Role string

const (
	RoleGateStaff Role = "vigilante"
	RoleResident  Role = "residente"
	RoleManager   Role = "gerente"
	RoleUnknown   Role = ""
)

// Landing routes a user is sent to after login.
const (
	LandingVisitors = "visitors"
	LandingHome     = "home"
)

// Card is one entry of a role's feature menu.
type Card struct {
	Title      string
	Feature    string
	Number     string
	Color      string
	HasWarning bool
}

var aliases = map[string]Role{
	"vigilante":     RoleGateStaff,
	"portero":       RoleGateStaff,
	"guardia":       RoleGateStaff,
	"residente":     RoleResident,
	"propietario":   RoleResident,
	"gerente":       RoleManager,
	"administrador": RoleManager,
}

var menus = map[Role][]Card{
	RoleGateStaff: {
		{Title: "QR o Pass", Feature: "scan", Number: "01", Color: "#007BFF"},
		{Title: "Habitantes", Feature: "residents", Number: "87", Color: "#00FF00"},
		{Title: "Visitantes", Feature: "visitors", Number: "04", Color: "#FF9500"},
		{Title: "Lista Total", Feature: "entries", Number: "02", Color: "#FF3B30"},
		{Title: "Requests", Feature: "requests", Number: "0", Color: "#5856D6"},
		{Title: "Áreas Comunes", Feature: "areas", Number: "0", Color: "#FF2D55"},
		{Title: "Alertas", Feature: "alerts", Number: "1", Color: "#FF3B30", HasWarning: true},
	},
	RoleResident: {
		{Title: "Mis Visitantes", Feature: "visitors", Number: "03", Color: "#007BFF"},
		{Title: "Solicitudes", Feature: "requests", Number: "02", Color: "#FF9500"},
		{Title: "Áreas Comunes", Feature: "areas", Number: "0", Color: "#FF2D55"},
		{Title: "Pagos", Feature: "payments", Number: "1", Color: "#5856D6"},
	},
	RoleManager: {
		{Title: "Habitantes", Feature: "residents", Number: "87", Color: "#00FF00"},
		{Title: "Visitantes", Feature: "visitors", Number: "04", Color: "#FF9500"},
		{Title: "Áreas Comunes", Feature: "areas", Number: "0", Color: "#FF2D55"},
		{Title: "Reportes", Feature: "reports", Number: "5", Color: "#FF3B30"},
		{Title: "Configuración", Feature: "settings", Number: "", Color: "#5856D6"},
	},
}

// Normalize maps a role string of any casing or alias to its Role.
func Normalize(role string) Role {
	return aliases[strings.ToLower(strings.TrimSpace(role))]
}

// Resolve returns a copy of the cards for role. Unknown roles get none.
func Resolve(role string) []Card {
	cards := menus[Normalize(role)]
	out := make([]Card, len(cards))
	copy(out, cards)
	return out
}

// Landing is the screen a user of role lands on after login.
func Landing(role string) string {
	if Normalize(role) == RoleGateStaff {
		return LandingVisitors
	}
	return LandingHome
}

// Allows reports whether role's menu exposes feature.
func Allows(role, feature string) bool {
	for _, card := range menus[Normalize(role)] {
		if card.Feature == feature {
			return true
		}
	}
	return false
}
