package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func testTree(got *[]string, name *string) *Command {
	return &Command{
		Name:       "torre-segura",
		HelpOutput: &bytes.Buffer{},
		Subcommands: []*Command{
			{
				Name:    "entries",
				Summary: "Presence list",
				Subcommands: []*Command{
					{Name: "list", Run: func(args []string) error { *got = append(*got, "list"); return nil }},
					{Name: "exit", Run: func(args []string) error { *got = append(*got, "exit:"+strings.Join(args, ",")); return nil }},
				},
			},
			{
				Name: "login",
				Flags: func() *pflag.FlagSet {
					fs := pflag.NewFlagSet("login", pflag.ContinueOnError)
					fs.StringVar(name, "username", "", "username")
					return fs
				},
				Run: func(args []string) error { *got = append(*got, "login"); return nil },
			},
		},
	}
}

func TestExecuteDispatches(t *testing.T) {
	var got []string
	var username string
	root := testTree(&got, &username)

	if err := root.Execute([]string{"entries", "exit", "7"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if err := root.Execute([]string{"login", "--username", "ana"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if strings.Join(got, " ") != "exit:7 login" || username != "ana" {
		t.Fatalf("got=%v username=%q", got, username)
	}
}

func TestExecuteSuggestsCommand(t *testing.T) {
	var got []string
	var username string
	err := testTree(&got, &username).Execute([]string{"entrise"})
	if err == nil || !strings.Contains(err.Error(), `did you mean "entries"`) {
		t.Fatalf("err=%v", err)
	}
}

func TestExecuteUnknownFlag(t *testing.T) {
	var got []string
	var username string
	err := testTree(&got, &username).Execute([]string{"login", "--user", "x"})
	if err == nil || !strings.Contains(err.Error(), "torre-segura login --help") {
		t.Fatalf("err=%v", err)
	}
}

func TestExecuteRequiresSubcommand(t *testing.T) {
	var got []string
	var username string
	root := testTree(&got, &username)
	if err := root.Execute([]string{"entries"}); err == nil {
		t.Fatal("expected subcommand error")
	}
	help := root.HelpOutput.(*bytes.Buffer).String()
	if !strings.Contains(help, "torre-segura entries <command>") || !strings.Contains(help, "exit") {
		t.Fatalf("help=%q", help)
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"scan", "scan", 0},
		{"scna", "scan", 2},
		{"pay", "pays", 1},
		{"alert", "areas", 3},
	}
	for _, tt := range cases {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Fatalf("levenshtein(%q,%q)=%d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
