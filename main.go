package main

import "github.com/frahmantamala/datascope/cmd"

func main() {
	cmd.Execute()
}
