// Command cachesim replays a memory trace through a set-associative cache and
// prints the hit and miss statistics.
package main

import "github.com/sarchlab/cachesim/cmd/cachesim/cmd"

func main() {
	cmd.Execute()
}
