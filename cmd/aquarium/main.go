// Command aquarium is a terminal client for the feedback gateway. It renders
// the stored messages as draggable bubbles and can submit, list and delete
// feedback.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(defaultOptions()).Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
