package main

import "github.com/Alijeyrad/medtrack_backend/cmd"

func main() {
	cmd.Execute()
}
