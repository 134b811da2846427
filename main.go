package main

import "github.com/lockplane/sqlsink/cmd"

func main() {
	cmd.Execute()
}
