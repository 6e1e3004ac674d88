package main

import "github.com/dbsmedya/questexport/cmd/questexport/cmd"

func main() {
	cmd.Execute()
}
