package main

import (
	"github.com/SundayYogurt/rote_service/config"
	"github.com/SundayYogurt/rote_service/internal/api"
	"github.com/gofiber/fiber/v2/log"
)

func main() {
	//load configuration
	cfg := config.LoadConfig()
	log.SetLevel(config.ParseLogLevel(cfg.LogLevel))

	api.StartServer(cfg)
}
