// Command credgate is an HTTP gate that exchanges client credentials for a
// token at an identity provider before letting a request through.
package main

import "os"

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
