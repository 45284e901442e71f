package main

import (
	"context"
	"time"

	"github.com/ayalat/maarekhet/core"
	"github.com/ayalat/maarekhet/core/user"
)

// addUser updates or creates an operator account.
func (cli *commandLine) addUser(uname, email, name, pwd string, isPrincipal bool) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	now := time.Now().UTC()
	usr, err := cli.usrRepo.GetUserByUsername(ctx, uname)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Username:  uname,
			CreatedAt: now,
		}
	}
	usr.Name = core.CleanString(name)
	usr.Email = email
	usr.Role = user.RoleSecretary
	if isPrincipal {
		usr.Role = user.RolePrincipal
	}
	usr.IsActive = true
	usr.UpdatedAt = now
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if usr.ID == "" {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(ctx, usr, nil)
	}
	return err
}
