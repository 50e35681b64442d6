// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Command dispatchdemo exercises a dispatcher with a configurable mix of
// calls and cancellable schedules, logging the resulting stats as JSON.
package main

import (
	"fmt"
	"os"
)

var version = "dev"

func main() {
	if err := execute(os.Args, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "dispatchdemo: %s\n", err)
		os.Exit(1)
	}
}
