package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"
	"testing"

	"github.com/trezcool/darasa/core/enrollment"
)

type fakeEnrollmentService struct {
	res enrollment.DistributionResult
	err error

	gotCohortID    string
	gotMaxPerGroup int
}

var _ enrollment.Service = (*fakeEnrollmentService)(nil)

func (svc *fakeEnrollmentService) Distribute(ctx context.Context, cohortID string, maxPerGroup int) (enrollment.DistributionResult, error) {
	svc.gotCohortID = cohortID
	svc.gotMaxPerGroup = maxPerGroup
	return svc.res, svc.err
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func Test_commandLine_migrate(t *testing.T) {
	cli := &commandLine{}

	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "attendance", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			checkCLIErr(t, err, tt)
		})
	}
}

func Test_commandLine_distribute(t *testing.T) {
	svc := &fakeEnrollmentService{res: enrollment.DistributionResult{AssignedCount: 7, GroupsCreated: 2}}
	cli := &commandLine{enrSvc: svc}

	tests := []cliTest{
		{name: "no args", args: []string{"distribute"}, wantErr: errHelp},
		{name: "missing cohort", args: []string{"distribute", "-max", "5"}, wantErr: errHelp},
		{name: "missing max", args: []string{"distribute", "-cohort", "c1"}, wantErr: errHelp},
		{name: "ok", args: []string{"distribute", "-cohort", "c1", "-max", "5"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			checkCLIErr(t, err, tt)
		})
	}

	if svc.gotCohortID != "c1" {
		t.Errorf("Distribute() cohortID = %s, want c1", svc.gotCohortID)
	}
	if svc.gotMaxPerGroup != 5 {
		t.Errorf("Distribute() maxPerGroup = %d, want 5", svc.gotMaxPerGroup)
	}

	t.Run("service error", func(t *testing.T) {
		svc.err = enrollment.ErrInvalidCapacity
		if err := cli.run([]string{"admin", "distribute", "-cohort", "c1", "-max", "5"}); err != enrollment.ErrInvalidCapacity {
			t.Errorf("cli.run() error = %v, want %v", err, enrollment.ErrInvalidCapacity)
		}
	})
}

func checkCLIErr(t *testing.T, err error, tt cliTest) {
	t.Helper()

	if err != nil {
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
	} else if tt.wantErr != nil || tt.wantErrStr != "" {
		t.Error("cli.run() expected an error, got nil")
	}
}
