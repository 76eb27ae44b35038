package main

import (
	"context"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/marksboard/core/portal"
	"github.com/trezcool/marksboard/core/student"
	sheetsvc "github.com/trezcool/marksboard/services/sheet"
)

func (cli *commandLine) signup(ctx context.Context, shell *portal.Shell, reg student.Registration) error {
	if err := shell.Signup(ctx, reg); err != nil {
		cli.printAuthFailure(shell.Notice(), err)
		return err
	}
	cli.printNotice(shell.Notice())
	stu, _ := shell.Student()
	cli.printStudent(stu)
	return nil
}

func (cli *commandLine) login(ctx context.Context, shell *portal.Shell, creds student.Credentials) error {
	if err := shell.Login(ctx, creds); err != nil {
		cli.printAuthFailure(shell.Notice(), err)
		return err
	}
	stu, _ := shell.Student()
	cli.printStudent(stu)
	return nil
}

func (cli *commandLine) show(ctx context.Context, shell *portal.Shell) error {
	dash, err := shell.Dashboard()
	if err != nil {
		return err
	}
	dash.Load(ctx)

	view := dash.View()
	if view.Record == nil {
		cli.printInfo("No marks submitted yet. Use the submit command to add them.")
		return nil
	}
	cli.printRecord(view)
	return nil
}

func (cli *commandLine) submit(ctx context.Context, shell *portal.Shell, scores *scoreFlags) error {
	dash, err := shell.Dashboard()
	if err != nil {
		return err
	}
	scores.set(dash.SetField, false)

	if err := dash.Submit(ctx); err != nil {
		cli.printNotice(dash.Notice())
		if err == portal.ErrInvalidForm {
			cli.printFieldErrors(dash.View().Fields)
		}
		return err
	}
	cli.printNotice(dash.Notice())

	if dash.Calculating() {
		dash.Wait()
		if n := dash.Notice(); n.Text != "" && !dash.Calculating() {
			cli.printNotice(n)
		}
	}
	cli.printRecord(dash.View())
	return nil
}

func (cli *commandLine) board(ctx context.Context, shell *portal.Shell) error {
	tbl, err := shell.Table()
	if err != nil {
		return err
	}
	if err := tbl.Reload(ctx); err != nil {
		cli.printError(tbl.View().LoadError)
		return err
	}
	cli.printRanking(tbl.View())
	return nil
}

func (cli *commandLine) edit(ctx context.Context, shell *portal.Shell, scores *scoreFlags) error {
	tbl, err := shell.Table()
	if err != nil {
		return err
	}
	if err := tbl.Reload(ctx); err != nil {
		cli.printError(tbl.View().LoadError)
		return err
	}

	stu, _ := shell.Student()
	if err := tbl.StartEdit(stu.ID); err != nil {
		if err == portal.ErrRowNotFound {
			cli.printError("No marks to edit. Use the submit command to add them.")
		}
		return err
	}
	scores.set(tbl.SetEditField, true)

	if err := tbl.Save(ctx); err != nil {
		view := tbl.View()
		cli.printNotice(view.Notice)
		if err == portal.ErrInvalidForm {
			cli.printFieldErrors(view.EditFields)
		}
		return err
	}
	view := tbl.View()
	cli.printNotice(view.Notice)
	cli.printRanking(view)
	return nil
}

func (cli *commandLine) export(ctx context.Context, shell *portal.Shell, path string) (err error) {
	tbl, err := shell.Table()
	if err != nil {
		return err
	}
	if err := tbl.Reload(ctx); err != nil {
		cli.printError(tbl.View().LoadError)
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer func() {
		if cErr := f.Close(); err == nil && cErr != nil {
			err = errors.Wrapf(cErr, "closing %s", path)
		}
	}()

	stu, _ := shell.Student()
	if err := sheetsvc.WriteRanking(f, tbl.Rows(), stu.ID); err != nil {
		return errors.Wrap(err, "writing ranking")
	}
	cli.printSuccess("Ranking written to " + path)
	return nil
}
