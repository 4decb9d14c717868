package main

import "github.com/ValentinKolb/mpRPC/cmd"

func main() {
	cmd.Execute()
}
