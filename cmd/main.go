package main

import (
	"os"
)

// @title                       Task Manager API
// @version                     1.0
// @description                 Registration, login and owner-scoped task management behind bearer tokens.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the access token.
func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
