package main

import (
	"context"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

// addUser updates or creates a user.User.
func (cli *commandLine) addUser(name, email, pwd string, role user.Role) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		now := time.Now().UTC()
		usr = user.User{
			Name:      name,
			Email:     email,
			Role:      role,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err = usr.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.usrRepo.CreateUser(ctx, usr)
		return err
	}

	usr.Name = name
	usr.Role = role
	usr.UpdatedAt = time.Now().UTC()
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	active := true
	_, err = cli.usrRepo.UpdateUser(ctx, usr, &active)
	return err
}
