package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/marksboard/core"
	"github.com/trezcool/marksboard/core/portal"
	backendsvc "github.com/trezcool/marksboard/services/backend"
	sheetsvc "github.com/trezcool/marksboard/services/sheet"
	"github.com/trezcool/marksboard/testutil"
)

func setup(t *testing.T, opts ...testutil.Option) (*testutil.Backend, *commandLine, *bytes.Buffer) {
	color.NoColor = true

	backend := testutil.NewBackend(opts...)
	t.Cleanup(backend.Close)

	client := backendsvc.New(core.BackendConfig{
		BaseURL:     backend.BaseURL(),
		Timeout:     5 * time.Second,
		ReadPaths:   core.DefaultReadPaths,
		UpdatePaths: core.DefaultUpdatePaths,
	}, nil)
	shellOpts := portal.Options{Poller: portal.RankPoller{Delay: time.Millisecond, Attempts: 1}}

	out := new(bytes.Buffer)
	cli := &commandLine{
		newShell: func() *portal.Shell { return portal.NewShell(client, shellOpts) },
		out:      out,
	}
	return backend, cli, out
}

type cliTest struct {
	name     string
	args     []string // without program name
	pwd      string
	wantErr  error // compared with the cause of the returned error
	wantFail bool  // any error
	wantOut  []string
}

func runCLITests(t *testing.T, cli *commandLine, out *bytes.Buffer, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		args := append([]string{"marksboard"}, tt.args...)
		pwd := tt.pwd

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			readPasswordFunc = func(fd int) ([]byte, error) {
				return []byte(pwd), nil
			}

			err := cli.run(context.Background(), args)
			switch {
			case tt.wantErr != nil:
				if errors.Cause(err) != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			case tt.wantFail:
				if err == nil {
					t.Error("cli.run() succeeded, want an error")
				}
			case err != nil:
				t.Errorf("cli.run() unexpected error = %v", err)
			}

			got := out.String()
			for _, want := range tt.wantOut {
				if !strings.Contains(got, want) {
					t.Errorf("output does not contain %q:\n%s", want, got)
				}
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	_, cli, out := setup(t)

	runCLITests(t, cli, out, []cliTest{
		{name: "no command", wantErr: errHelp, wantOut: []string{"Usage:"}},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp, wantOut: []string{"Usage:"}},
		{name: "help flag", args: []string{"show", "-h"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"show", "-lol"}, wantFail: true},
		{name: "show: no email", args: []string{"show"}, pwd: "pwd", wantErr: errHelp},
		{name: "signup: no name", args: []string{"signup", "-email", "ada@test.cd"}, pwd: "pwd", wantErr: errHelp},
		{name: "empty password", args: []string{"board", "-email", "ada@test.cd"}, wantErr: errHelp},
	})
}

func Test_commandLine_signup(t *testing.T) {
	_, cli, out := setup(t)

	runCLITests(t, cli, out, []cliTest{
		{
			name:     "invalid email",
			args:     []string{"signup", "-name", "Ada", "-email", "nope"},
			pwd:      "pwd",
			wantFail: true,
			wantOut:  []string{"email: enter a valid email address"},
		},
		{
			name:    "success",
			args:    []string{"signup", "-name", "Ada", "-email", "ada@test.cd"},
			pwd:     "pwd",
			wantOut: []string{"Registration successful", "=== Ada <ada@test.cd> ==="},
		},
		{
			name:     "email already registered",
			args:     []string{"signup", "-name", "Ada", "-email", "ada@test.cd"},
			pwd:      "pwd",
			wantFail: true,
			wantOut:  []string{"Email already registered"},
		},
	})
}

func Test_commandLine_marks(t *testing.T) {
	backend, cli, out := setup(t)

	if _, err := backend.CreateStudent("Ada", "ada@test.cd", "pwd"); err != nil {
		t.Fatalf("CreateStudent() failed, %v", err)
	}
	bob, err := backend.CreateStudent("Bob", "bob@test.cd", "pwd")
	if err != nil {
		t.Fatalf("CreateStudent() failed, %v", err)
	}
	backend.SetMarks(bob.ID, 90, 90, 90)

	runCLITests(t, cli, out, []cliTest{
		{name: "wrong password", args: []string{"show", "-email", "ada@test.cd"}, pwd: "nope", wantFail: true, wantOut: []string{"Invalid password"}},
		{name: "show: no marks", args: []string{"show", "-email", "ada@test.cd"}, pwd: "pwd", wantOut: []string{"No marks submitted yet"}},
		{name: "edit: no marks", args: []string{"edit", "-email", "ada@test.cd", "-tr1", "50"}, pwd: "pwd", wantErr: portal.ErrRowNotFound, wantOut: []string{"No marks to edit"}},
		{
			name:    "submit: invalid scores",
			args:    []string{"submit", "-email", "ada@test.cd", "-tr1", "abc", "-tr2", "80", "-tr3", "101"},
			pwd:     "pwd",
			wantErr: portal.ErrInvalidForm,
			wantOut: []string{
				"Please fix all errors before submitting",
				"Term 1: Please enter a valid number",
				"Term 3: Marks must be between 0 and 100",
			},
		},
		{
			name:    "submit: missing score",
			args:    []string{"submit", "-email", "ada@test.cd", "-tr1", "70"},
			pwd:     "pwd",
			wantErr: portal.ErrInvalidForm,
		},
		{
			name:    "submit",
			args:    []string{"submit", "-email", "ada@test.cd", "-tr1", "70", "-tr2", "80", "-tr3", "90"},
			pwd:     "pwd",
			wantOut: []string{"Marks saved successfully!", "240", "#2", "Selected"},
		},
		{name: "show", args: []string{"show", "-email", "ada@test.cd"}, pwd: "pwd", wantOut: []string{"70", "240", "#2"}},
		{name: "board", args: []string{"board", "-email", "ada@test.cd"}, pwd: "pwd", wantOut: []string{"Bob", "bob@test.cd", "270", "Ada", "You"}},
		{
			name:    "edit: invalid score",
			args:    []string{"edit", "-email", "ada@test.cd", "-tr2", "101"},
			pwd:     "pwd",
			wantErr: portal.ErrInvalidForm,
			wantOut: []string{"Please fix all errors before saving", "Term 2: Marks must be between 0 and 100"},
		},
		{
			name:    "edit keeps the omitted scores",
			args:    []string{"edit", "-email", "ada@test.cd", "-tr1", "100", "-tr2", "100"},
			pwd:     "pwd",
			wantOut: []string{"Marks updated successfully!", "290", "#1"},
		},
		{name: "resubmit updates", args: []string{"submit", "-email", "ada@test.cd", "-tr1", "10", "-tr2", "20", "-tr3", "30"}, pwd: "pwd", wantOut: []string{"60", "Not Selected"}},
	})

	if got := backend.Calls(testutil.RouteUpdateByPath); got != 1 {
		t.Errorf("update calls = %d, want 1", got)
	}
	if got := backend.Calls(testutil.RouteEditMarks); got != 1 {
		t.Errorf("edit calls = %d, want 1", got)
	}
}

func Test_commandLine_submit_calculatingRank(t *testing.T) {
	backend, cli, out := setup(t, testutil.DeferRanks())
	if _, err := backend.CreateStudent("Ada", "ada@test.cd", "pwd"); err != nil {
		t.Fatalf("CreateStudent() failed, %v", err)
	}

	runCLITests(t, cli, out, []cliTest{
		{
			name:    "rank polled",
			args:    []string{"submit", "-email", "ada@test.cd", "-tr1", "70", "-tr2", "80", "-tr3", "90"},
			pwd:     "pwd",
			wantOut: []string{"Marks saved! Calculating rank...", "Marks saved and rank updated!", "#1"},
		},
	})
}

func Test_commandLine_board_empty(t *testing.T) {
	backend, cli, out := setup(t)
	if _, err := backend.CreateStudent("Ada", "ada@test.cd", "pwd"); err != nil {
		t.Fatalf("CreateStudent() failed, %v", err)
	}

	runCLITests(t, cli, out, []cliTest{
		{name: "empty", args: []string{"board", "-email", "ada@test.cd"}, pwd: "pwd", wantOut: []string{"No students with marks found"}},
	})

	backend.Fail(testutil.RouteDashboard, 500, "")
	runCLITests(t, cli, out, []cliTest{
		{name: "load error", args: []string{"board", "-email", "ada@test.cd"}, pwd: "pwd", wantFail: true, wantOut: []string{"Failed to get dashboard data"}},
	})
}

func Test_commandLine_export(t *testing.T) {
	backend, cli, out := setup(t)
	ada, err := backend.CreateStudent("Ada", "ada@test.cd", "pwd")
	if err != nil {
		t.Fatalf("CreateStudent() failed, %v", err)
	}
	backend.SetMarks(ada.ID, 70, 80, 90)
	path := filepath.Join(t.TempDir(), "ranking.xlsx")

	runCLITests(t, cli, out, []cliTest{
		{name: "export", args: []string{"export", "-email", "ada@test.cd", "-out", path}, pwd: "pwd", wantOut: []string{"Ranking written to " + path}},
		{name: "bad path", args: []string{"export", "-email", "ada@test.cd", "-out", filepath.Join(path, "nope.xlsx")}, pwd: "pwd", wantFail: true},
	})

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() failed, %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheetsvc.RankingSheet)
	if err != nil {
		t.Fatalf("GetRows() failed, %v", err)
	}
	if len(rows) != 2 || rows[1][1] != "Ada" || rows[1][len(rows[1])-1] != "You" {
		t.Errorf("unexpected ranking rows: %v", rows)
	}
}
