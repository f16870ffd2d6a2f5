package main

import "vault2notion/cmd/vault2notion/cmd"

func main() {
	cmd.Execute()
}
