package main

import "TaskPilotGo/cmd"

func main() {
	cmd.Execute()
}
