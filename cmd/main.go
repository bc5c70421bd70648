// cmd/main.go
package main

import (
	"jwt-auth-api/app"
)

// @title           JWT Auth API
// @version         1.0
// @description     Access and refresh token issuing with single use refresh rotation.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
