package main

import "github.com/mkoster/parkwork/internal/cli"

func main() {
	cli.Execute()
}
