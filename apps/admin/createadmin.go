package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

// createAdmin creates an admin, or promotes the user owning `email` and sets their password.
// Running it twice with the same arguments leaves a single admin.
func (cli *commandLine) createAdmin(name, email, pwd string) error {
	ctx := context.Background()
	nu := user.NewUser{Name: name, Email: email, Password: pwd, Role: user.RoleAdmin}

	usr, err := cli.usrSvc.GetByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		if err = nu.Validate(ctx, cli.validate, cli.usrSvc); err != nil {
			return cli.validationError(err)
		}
		_, err = cli.usrSvc.Create(ctx, nu)
		return err
	}

	// existing user: keep their name, enforce the password policy
	nu.Name = usr.Name
	if err = cli.validate.Struct(nu); err != nil {
		return cli.validationError(err)
	}
	if !usr.IsAdmin() {
		if usr, err = cli.usrSvc.Update(ctx, usr.ID, user.UpdateUser{
			Name: usr.Name, Email: usr.Email, Role: user.RoleAdmin, ClassID: usr.ClassID,
		}); err != nil {
			return err
		}
	}
	_, err = cli.usrSvc.SetPassword(ctx, usr, pwd)
	return err
}
