package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/marksboard/core/marks"
	"github.com/trezcool/marksboard/core/portal"
	"github.com/trezcool/marksboard/core/student"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	newShell func() *portal.Shell
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  signup -name NAME -email EMAIL               - register a new student")
	fmt.Fprintln(cli.out, "  show -email EMAIL                            - show your marks and rank")
	fmt.Fprintln(cli.out, "  submit -email EMAIL -tr1 N -tr2 N -tr3 N     - add or update your marks")
	fmt.Fprintln(cli.out, "  board -email EMAIL                           - show the ranking of all students")
	fmt.Fprintln(cli.out, "  edit -email EMAIL [-tr1 N] [-tr2 N] [-tr3 N] - edit your row of the ranking")
	fmt.Fprintln(cli.out, "  export -email EMAIL [-out FILE]              - write the ranking to an XLSX file")
	fmt.Fprintln(cli.out, "The password is prompted next.")
}

// scoreFlags are the -tr1, -tr2 and -tr3 flags.
type scoreFlags [len(marks.Fields)]*string

func newScoreFlags(fs *flag.FlagSet) *scoreFlags {
	var sf scoreFlags
	for i, fld := range marks.Fields {
		sf[i] = fs.String(fld.String(), "", fld.Label()+" marks (0-100)")
	}
	return &sf
}

// set feeds the scores to `set`, skipping the empty ones when `skipEmpty` is true.
func (sf *scoreFlags) set(set func(marks.Field, string) error, skipEmpty bool) {
	for i, fld := range marks.Fields {
		if skipEmpty && *sf[i] == "" {
			continue
		}
		_ = set(fld, *sf[i])
	}
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	cmd := flag.NewFlagSet(args[1], flag.ContinueOnError)
	cmd.SetOutput(cli.out)
	email := cmd.String("email", "", "The student's email. The password will be prompted next.")

	var (
		name   *string
		scores *scoreFlags
		out    *string
	)
	switch args[1] {
	case "signup":
		name = cmd.String("name", "", "The student's full name.")
	case "show", "board":
	case "submit", "edit":
		scores = newScoreFlags(cmd)
	case "export":
		out = cmd.String("out", "ranking.xlsx", "The XLSX file to write.")
	default:
		cli.printUsage()
		return errHelp
	}

	if err := cmd.Parse(args[2:]); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	if *email == "" || (name != nil && *name == "") {
		cmd.Usage()
		return errHelp
	}

	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return err
	}
	if len(pwd) == 0 {
		cmd.Usage()
		return errHelp
	}

	shell := cli.newShell()
	defer shell.Close()

	if args[1] == "signup" {
		return cli.signup(ctx, shell, student.Registration{Name: *name, Email: *email, Password: string(pwd)})
	}
	if err := cli.login(ctx, shell, student.Credentials{Email: *email, Password: string(pwd)}); err != nil {
		return err
	}

	switch args[1] {
	case "show":
		return cli.show(ctx, shell)
	case "submit":
		return cli.submit(ctx, shell, scores)
	case "board":
		return cli.board(ctx, shell)
	case "edit":
		return cli.edit(ctx, shell, scores)
	default:
		return cli.export(ctx, shell, *out)
	}
}
