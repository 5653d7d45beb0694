package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"torresegura/internal/menu"
	"torresegura/internal/models"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#34C759")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF3B30")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF9500"))
)

const cardWidth = 18

// RenderMenu draws the role's feature cards in rows of three.
func RenderMenu(user models.User, cards []menu.Card) string {
	var b strings.Builder
	name := user.FullName
	if name == "" {
		name = user.Username
	}
	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render("Hola, "+name), dimStyle.Render("("+user.RoleName()+")"))
	if len(cards) == 0 {
		b.WriteString(dimStyle.Render("No hay opciones para este rol.") + "\n")
		return b.String()
	}

	var row []string
	for i, card := range cards {
		row = append(row, renderCard(card))
		if len(row) == 3 || i == len(cards)-1 {
			b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, row...))
			b.WriteString("\n")
			row = row[:0]
		}
	}
	return b.String()
}

func renderCard(card menu.Card) string {
	color := lipgloss.Color(card.Color)
	number := lipgloss.NewStyle().Foreground(color).Bold(true).Render(card.Number)
	if card.HasWarning {
		number += " " + warningStyle.Render("!")
	}
	body := number + "\n" + card.Title + "\n" + dimStyle.Render(card.Feature)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		Width(cardWidth).
		Render(body)
}

// RenderVerification draws a verification result. Rejections show
// message, which is already user-facing text.
func RenderVerification(verified bool, v models.Verification, message string) string {
	if !verified {
		return errorStyle.Render("✗ Acceso denegado") + "\n" + message + "\n"
	}
	var b strings.Builder
	b.WriteString(okStyle.Render("✓ Acceso autorizado") + "\n")
	rows := [][2]string{
		{"Visitante", v.Visitor},
		{"Documento", v.Document},
		{"Motivo", v.Purpose},
		{"Vivienda", v.Dwelling},
		{"Autorizado por", v.AuthorizedBy},
		{"Fecha", v.VerifiedAt},
	}
	label := lipgloss.NewStyle().Width(16).Foreground(lipgloss.Color("245"))
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		b.WriteString(label.Render(row[0]) + row[1] + "\n")
	}
	return b.String()
}

// RenderEntries draws the presence list.
func RenderEntries(entries []models.Entry) string {
	if len(entries) == 0 {
		return dimStyle.Render("No hay personas dentro.") + "\n"
	}
	idCol := lipgloss.NewStyle().Width(6)
	nameCol := lipgloss.NewStyle().Width(24)
	typeCol := lipgloss.NewStyle().Width(12)

	var b strings.Builder
	b.WriteString(titleStyle.Render(idCol.Render("ID")+nameCol.Render("Nombre")+typeCol.Render("Tipo")+"Ingreso") + "\n")
	for _, e := range entries {
		detail := e.EntryTime
		if e.DepartmentNumber != "" {
			detail += dimStyle.Render(" → " + e.DepartmentNumber)
		}
		b.WriteString(idCol.Render(e.ID) + nameCol.Render(truncate(e.Name, 23)) + typeCol.Render(e.Type) + detail + "\n")
	}
	return b.String()
}

func RenderAreas(areas []models.Area) string {
	if len(areas) == 0 {
		return dimStyle.Render("No hay áreas comunes.") + "\n"
	}
	var b strings.Builder
	for _, a := range areas {
		line := lipgloss.NewStyle().Width(12).Render(a.ID) + titleStyle.Render(a.Name)
		if a.Capacity > 0 {
			line += dimStyle.Render(fmt.Sprintf(" (%d personas)", a.Capacity))
		}
		b.WriteString(line + "\n")
		if a.Description != "" {
			b.WriteString(strings.Repeat(" ", 12) + dimStyle.Render(a.Description) + "\n")
		}
	}
	return b.String()
}

func RenderExpenses(expenses []models.Expense) string {
	if len(expenses) == 0 {
		return okStyle.Render("No tiene pagos pendientes.") + "\n"
	}
	idCol := lipgloss.NewStyle().Width(6)
	descCol := lipgloss.NewStyle().Width(28)
	amountCol := lipgloss.NewStyle().Width(12).Align(lipgloss.Right)

	var b strings.Builder
	for _, e := range expenses {
		b.WriteString(idCol.Render(e.ID) + descCol.Render(truncate(e.Description, 27)) + amountCol.Render(e.Amount) + "  " + dimStyle.Render(e.DueDate) + "\n")
	}
	return b.String()
}

// RenderNotifications draws the log newest first.
func RenderNotifications(items []models.Notification) string {
	if len(items) == 0 {
		return dimStyle.Render("Sin notificaciones.") + "\n"
	}
	var b strings.Builder
	for i := len(items) - 1; i >= 0; i-- {
		n := items[i]
		b.WriteString(dimStyle.Render(n.Date.Local().Format(time.DateTime)) + "  " + n.Message + "\n")
	}
	return b.String()
}

func Success(message string) string { return okStyle.Render(message) }

func Warning(message string) string { return warningStyle.Render(message) }

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes)) >= width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
