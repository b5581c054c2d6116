// Command graph-loadtest runs named Cypher queries against a graph database
// repeatedly and records per-invocation timings.
package main

import "yqhp/graph-loadtest/cmd"

func main() {
	cmd.Execute()
}
