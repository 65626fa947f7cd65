// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

// Command claimlink-signer runs an ICRC signer for the Internet
// Computer: wallets connect over WebSocket or HTTP and the signer
// answers ICRC-25/27/34/49/112 requests with its own identity.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := root().Execute(os.Args[1:]); err != nil {
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
