package main

import (
	"context"

	"github.com/trezcool/darasa/core/user"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	// the reset form carries the password policy; token and uid are not checked here
	data := user.ResetUserPassword{Token: "-", UID: "-", Password: pwd, PasswordConfirm: pwd}
	if err = data.Validate(cli.validate); err != nil {
		return cli.validationError(err)
	}
	_, err = cli.usrSvc.SetPassword(ctx, usr, pwd)
	return err
}
