// Command seatctl drives a course's seating chart from the terminal through
// the same controller and sync client the chart page uses.
package main

import (
	"os"

	"go.uber.org/zap"
)

func main() {
	log, err := zap.NewDevelopment()
	if err != nil {
		log = zap.NewNop()
	}
	defer func() { _ = log.Sync() }()

	cli := newCommandLine(loadConfig(), os.Stdin, os.Stdout, log)
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			cli.printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
