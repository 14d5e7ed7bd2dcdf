package main

import "github.com/fakeyudi/sessionhealth/cmd"

func main() {
	cmd.Execute()
}
