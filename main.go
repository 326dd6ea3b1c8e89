package main

import (
	"presyotect-monitor/internal/cli"
)

func main() {
	cli.Execute()
}
