package main

import (
	"log"

	"github.com/lintang-b-s/osm-geocoder/pkg/di"
)

//	@title			osm-geocoder API
//	@version		1.0
//	@description	forward dan reverse geocoding di atas index layer OpenStreetMap.

//	@host		localhost:6060
//	@BasePath	/
func main() {
	server, cleanup, err := di.InitializeGeocoderService()
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	// blok sampai SIGINT / SIGTERM, api shutdown graceful lewat context
	if err := server.Wait(); err != nil {
		server.Log.Error(err.Error())
	}
}
