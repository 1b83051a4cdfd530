// Command tutorbench benchmarks LLM backends against a scripted suite of
// children's English-tutoring conversations and reports per-model scores.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
