// Package main provides the plantmon CLI.
package main

func main() {
	Execute()
}
