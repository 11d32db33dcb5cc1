// Command mirror copies the learning platform's local store into a remote
// database, either on demand or behind an HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/carlosatFroom/learning-system/internal/errs"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		if errs.IsConfig(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
