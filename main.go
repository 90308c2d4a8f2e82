package main

import "clinic-booking/cmd"

func main() {
	cmd.Execute()
}
