package main

import "github.com/nekogravitycat/rental-booking-backend/internal/cli"

func main() {
	cli.Execute()
}
