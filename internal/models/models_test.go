package models

import (
	"encoding/json"
	"testing"
)

func TestFlexIDAcceptsStringsAndNumbers(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    FlexID
		wantErr bool
	}{
		{"string", `{"id":"42","firma":"abc"}`, "42", false},
		{"number", `{"id":42,"firma":"abc"}`, "42", false},
		{"large number", `{"id":90071992547409931,"firma":"abc"}`, "90071992547409931", false},
		{"null", `{"id":null,"firma":"abc"}`, "", false},
		{"object", `{"id":{"n":1},"firma":"abc"}`, "", true},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			var p QRPayload
			err := json.Unmarshal([]byte(tt.input), &p)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", p)
				}
				return
			}
			if err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if p.ID != tt.want || p.Signature != "abc" {
				t.Fatalf("payload=%+v", p)
			}
		})
	}
}

func TestFlexIDMarshalsAsString(t *testing.T) {
	data, err := json.Marshal(QRPayload{ID: "7", Signature: "f"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"id":"7","firma":"f"}` {
		t.Fatalf("got %s", data)
	}
}

func TestRoleName(t *testing.T) {
	cases := []struct {
		user User
		want string
	}{
		{User{Role: " Vigilante "}, "Vigilante"},
		{User{Rol: &RoleInfo{Nombre: "Residente"}}, "Residente"},
		{User{Role: "Gerente", Rol: &RoleInfo{Nombre: "Residente"}}, "Gerente"},
		{User{}, ""},
	}
	for _, tt := range cases {
		if got := tt.user.RoleName(); got != tt.want {
			t.Fatalf("RoleName(%+v)=%q, want %q", tt.user, got, tt.want)
		}
	}
}

func TestSessionEmpty(t *testing.T) {
	if !(Session{Token: "t"}).Empty() {
		t.Fatal("session without user must be empty")
	}
	if (Session{Token: "t", User: User{Username: "ana"}}).Empty() {
		t.Fatal("complete session reported empty")
	}
}
