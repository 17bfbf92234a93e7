package main

import (
	"os"
)

// @title                       Users API
// @version                     1.0
// @description                 User management REST API with JWT authentication.
// @host                        localhost:8080
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT token.
func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
