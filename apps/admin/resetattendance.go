package main

import (
	"context"
	"fmt"
)

// resetAttendance clears every student's weekly attendance ledger, the same
// operation the Sunday-midnight cron job performs.
func (cli *commandLine) resetAttendance() error {
	if err := cli.studentRepo.ResetAllWeeklyAttendance(context.Background()); err != nil {
		return err
	}
	fmt.Println("Weekly attendance has been reset.")
	return nil
}
