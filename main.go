package main

import "github.com/vibast-solutions/ms-go-console/cmd"

func main() {
	cmd.Execute()
}
