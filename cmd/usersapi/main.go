// Command usersapi serves Create/Read/Update/Delete operations over an
// in-memory collection of user records.
package main

import (
	"github.com/patric-chuzhbe/usersapi/internal/app"
)

func main() {
	theApp, err := app.New()
	if err != nil {
		panic(err)
	}
	defer theApp.Close()

	if err := theApp.Run(); err != nil {
		panic(err)
	}
}
