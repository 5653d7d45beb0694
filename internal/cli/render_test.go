package cli

import (
	"strings"
	"testing"
	"time"

	"torresegura/internal/menu"
	"torresegura/internal/models"
)

func TestRenderMenu(t *testing.T) {
	user := models.User{Username: "vigilante", Role: "Vigilante", FullName: "Carlos Ruiz"}
	out := RenderMenu(user, menu.Resolve(user.RoleName()))
	for _, want := range []string{"Carlos Ruiz", "QR o Pass", "Lista Total", "Alertas", "!"} {
		if !strings.Contains(out, want) {
			t.Fatalf("menu missing %q:\n%s", want, out)
		}
	}

	empty := RenderMenu(models.User{Username: "x", Role: "jardinero"}, nil)
	if !strings.Contains(empty, "No hay opciones") {
		t.Fatalf("unknown role output:\n%s", empty)
	}
}

func TestRenderVerification(t *testing.T) {
	ok := RenderVerification(true, models.Verification{Valid: true, Visitor: "Juan Pérez", Dwelling: "Torre A - 102"}, "")
	if !strings.Contains(ok, "Acceso autorizado") || !strings.Contains(ok, "Juan Pérez") || strings.Contains(ok, "Documento") {
		t.Fatalf("verified output:\n%s", ok)
	}
	denied := RenderVerification(false, models.Verification{}, "QR expirado")
	if !strings.Contains(denied, "Acceso denegado") || !strings.Contains(denied, "QR expirado") {
		t.Fatalf("denied output:\n%s", denied)
	}
}

func TestRenderNotificationsNewestFirst(t *testing.T) {
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	out := RenderNotifications([]models.Notification{
		{Message: "primero", Date: base},
		{Message: "segundo", Date: base.Add(time.Minute)},
	})
	if strings.Index(out, "segundo") > strings.Index(out, "primero") {
		t.Fatalf("order:\n%s", out)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("corto", 10); got != "corto" {
		t.Fatalf("got %q", got)
	}
	if got := truncate("María Fernanda Gómez", 8); got != "María F…" {
		t.Fatalf("got %q", got)
	}
}
