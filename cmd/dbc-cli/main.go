package main

import "github.com/information-sharing-networks/dbc-connect/internal/cli"

func main() {
	cli.Execute()
}
