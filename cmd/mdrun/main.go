package main

import "mdrun/internal/cli"

func main() {
	cli.Execute()
}
