// Package main runs the link shortener HTTP service.
//
//	@title			Savlinks API
//	@version		1.0
//	@description	Branded short link service with redirect caching and click accounting
//	@host			localhost:8080
//	@BasePath		/
//	@schemes		http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"go.uber.org/fx"

	appfx "github.com/Srinathnulidonda/Savlinks/internal/fx"
)

func main() {
	app := fx.New(appfx.HTTPServerModules)
	app.Run()
}
