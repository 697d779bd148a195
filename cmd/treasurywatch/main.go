package main

import "treasury-monitor/internal/cli"

func main() {
	cli.Execute()
}
