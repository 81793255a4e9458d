package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"
	"testing"
	"time"

	"github.com/trezcool/darasa/core/user"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

func setup(t *testing.T) *commandLine {
	t.Helper()
	return &commandLine{
		usrRepo: inmemdb.NewUserRepository(inmemdb.NewDB()),
	}
}

func mockPassword(t *testing.T, pwd string) {
	t.Helper()
	orig := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		if tt.wantErr != nil || tt.wantErrStr != "" {
			t.Errorf("cli.run() expected error %v%s", tt.wantErr, tt.wantErrStr)
		}
		return
	}
	if tt.wantErr != nil {
		if err != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	} else if tt.wantErrStr != "" {
		if err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
		}
	} else {
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s requires a VERSION", command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to requires a VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)
	mockPassword(t, "Password1!")

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "missing email", args: []string{"adduser", "-name", "Owner"}, wantErr: errHelp},
		{name: "bad role", args: []string{"adduser", "-name", "Owner", "-email", "o@test.cd", "-role", "boss"}, wantErr: errHelp},
		{name: "OK", args: []string{"adduser", "-name", "Owner", "-email", "o@test.cd"}},
		{name: "update existing", args: []string{"adduser", "-name", "Owner II", "-email", "o@test.cd", "-role", "administrator"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}

	usr, err := cli.usrRepo.GetUserByEmail(context.Background(), "o@test.cd")
	if err != nil {
		t.Fatalf("GetUserByEmail() failed: %v", err)
	}
	if usr.Name != "Owner II" || usr.Role != user.RoleAdministrator {
		t.Errorf("user = %+v; want updated name and role", usr)
	}
	if err = usr.CheckPassword("Password1!"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	mockPassword(t, "NewPassword1!")

	now := time.Now().UTC()
	usr := user.User{Name: "Imara", Email: "imara@test.cd", Role: user.RoleStudent, IsActive: true, CreatedAt: now, UpdatedAt: now}
	if err := usr.SetPassword("old"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	usr, err := cli.usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "unknown email", args: []string{"resetpassword", "-email", "ghost@test.cd"}, wantErr: user.ErrNotFound},
		{name: "OK", args: []string{"resetpassword", "-email", "imara@test.cd"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}

	usr, err = cli.usrRepo.GetUserByEmail(context.Background(), "imara@test.cd")
	if err != nil {
		t.Fatalf("GetUserByEmail() failed: %v", err)
	}
	if err = usr.CheckPassword("NewPassword1!"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}
}
