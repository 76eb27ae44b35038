package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"

	"github.com/trezcool/marksboard/core"
	"github.com/trezcool/marksboard/core/marks"
	"github.com/trezcool/marksboard/core/portal"
	"github.com/trezcool/marksboard/core/student"
)

var (
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	infoColor    = color.New(color.FgCyan)
	headingColor = color.New(color.FgYellow)
)

func (cli *commandLine) printNotice(n portal.Notice) {
	switch {
	case n.Text == "":
	case n.IsError():
		cli.printError(n.Text)
	default:
		cli.printSuccess(n.Text)
	}
}

func (cli *commandLine) printSuccess(msg string) { _, _ = successColor.Fprintln(cli.out, msg) }
func (cli *commandLine) printError(msg string)   { _, _ = errorColor.Fprintln(cli.out, msg) }
func (cli *commandLine) printInfo(msg string)    { _, _ = infoColor.Fprintln(cli.out, msg) }

// printAuthFailure prints the field errors of a rejected form, or the notice of a failed call.
func (cli *commandLine) printAuthFailure(n portal.Notice, err error) {
	var vErr *core.ValidationError
	if errors.As(err, &vErr) {
		for _, fld := range vErr.Fields {
			cli.printError(fld.Field + ": " + fld.Error)
		}
		return
	}
	cli.printNotice(n)
}

func (cli *commandLine) printFieldErrors(fields []portal.FieldView) {
	for _, fld := range fields {
		if fld.Error != "" {
			cli.printError(fld.Label + ": " + fld.Error)
		}
	}
}

func (cli *commandLine) printStudent(stu student.Student) {
	_, _ = headingColor.Fprintf(cli.out, "\n=== %s <%s> ===\n", stu.Name, stu.Email)
}

func (cli *commandLine) printRecord(view portal.DashboardView) {
	if view.Record == nil {
		return
	}
	rec := view.Record
	rank := marks.FormatRank(rec.Rank, "-")
	if view.Calculating {
		rank = "Calculating rank..."
	}

	_, _ = headingColor.Fprintln(cli.out, "\nYour Results")
	table := tablewriter.NewWriter(cli.out)
	table.SetHeader([]string{"Term 1", "Term 2", "Term 3", "Total", "Status", "Rank"})
	table.Append([]string{
		marks.FormatScore(rec.TR1),
		marks.FormatScore(rec.TR2),
		marks.FormatScore(rec.TR3),
		marks.FormatScore(rec.Total),
		status(rec.Selected != nil && *rec.Selected),
		rank,
	})
	table.Render()
}

func (cli *commandLine) printRanking(view portal.TableView) {
	_, _ = headingColor.Fprintln(cli.out, "\nStudent Rankings")
	if len(view.Rows) == 0 {
		cli.printInfo("No students with marks found")
		return
	}

	table := tablewriter.NewWriter(cli.out)
	table.SetHeader([]string{"Rank", "Name", "Email", "Term 1", "Term 2", "Term 3", "Total", "Status", ""})
	for _, r := range view.Rows {
		you := ""
		if r.IsYou {
			you = "You"
		}
		table.Append([]string{r.Rank, r.Name, r.Email, r.TR1, r.TR2, r.TR3, r.Total, status(r.Selected), you})
	}
	table.Render()
	fmt.Fprintln(cli.out)
}

func status(selected bool) string {
	if selected {
		return "Selected"
	}
	return "Not Selected"
}
