package main

import (
	"cocktailLogAPI/internal/cli"

	_ "time/tzdata"
)

func main() {
	cli.Execute()
}
