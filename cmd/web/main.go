package main

import "time2care_backend/internal/app"

func main() {
	app.Run()
}
