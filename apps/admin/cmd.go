package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"

	"github.com/trezcool/darasa/core/enrollment"
	"github.com/trezcool/darasa/storage/database"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db     *database.DB
	enrSvc enrollment.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS...] - run database migrations (up, down, status, ...)")
	fmt.Println("  distribute -cohort ID -max N - place a cohort's unassigned learners into groups of at most N")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	distributeCmd := flag.NewFlagSet("distribute", flag.ExitOnError)
	distributeCohort := distributeCmd.String("cohort", "", "The cohort ID to distribute.")
	distributeMax := distributeCmd.Int("max", 0, "The maximum number of learners per group.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "distribute":
		if err := distributeCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *distributeCohort == "" || *distributeMax == 0 {
			distributeCmd.Usage()
			return errHelp
		}
		return cli.distribute(*distributeCohort, *distributeMax)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) distribute(cohortID string, maxPerGroup int) error {
	res, err := cli.enrSvc.Distribute(context.Background(), cohortID, maxPerGroup)
	if err != nil {
		return err
	}
	fmt.Printf("cohort %s: %d learner(s) assigned, %d group(s) created\n", cohortID, res.AssignedCount, res.GroupsCreated)
	return nil
}

// sqlDB unwraps the underlying connection for goose.
func (cli *commandLine) sqlDB() *sql.DB {
	if cli.db == nil {
		return nil
	}
	return cli.db.DB.DB
}
