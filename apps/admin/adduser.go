package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/syllabix/syllabix/core"
	"github.com/syllabix/syllabix/core/user"
)

func (cli *commandLine) addUserCmd() *cobra.Command {
	var uname, email, name string
	var isAdmin bool

	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a user or update an existing one; the password is prompted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pwd, err := promptPassword(cmd)
			if err != nil {
				return err
			}
			usr, err := cli.addUser(cmd.Context(), uname, email, name, pwd, isAdmin)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %q saved (%s)\n", usr.Username, usr.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&uname, "username", "", "the user's username")
	cmd.Flags().StringVar(&email, "email", "", "the user's email")
	cmd.Flags().StringVar(&name, "name", "", "the user's full name (defaults to the username)")
	cmd.Flags().BoolVar(&isAdmin, "admin", false, "grant every role")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// addUser updates or creates an active user.User.
func (cli *commandLine) addUser(ctx context.Context, uname, email, name, pwd string, isAdmin bool) (user.User, error) {
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)
	name = core.CleanString(name)
	if name == "" {
		name = uname
	}

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: []string{uname, email}})
	exists := err == nil
	if err != nil && errors.Cause(err) != user.ErrNotFound {
		return user.User{}, errors.Wrap(err, "finding user")
	}

	now := core.Now()
	if !exists {
		usr = user.User{Username: uname, Email: email, Roles: []string{}, CreatedAt: now}
	}
	usr.Name = name
	usr.IsActive = true
	usr.UpdatedAt = now
	if isAdmin {
		usr.Roles = user.AllRoles
	}
	if err = usr.SetPassword(pwd); err != nil {
		return user.User{}, errors.Wrap(err, "setting password")
	}

	if exists {
		usr, err = cli.usrRepo.UpdateUser(ctx, usr)
		return usr, errors.Wrap(err, "updating user")
	}
	usr, err = cli.usrRepo.CreateUser(ctx, usr)
	return usr, errors.Wrap(err, "creating user")
}
