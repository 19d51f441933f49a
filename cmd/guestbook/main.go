package main

import "guestbook/pkg/cli"

func main() {
	cli.Execute()
}
