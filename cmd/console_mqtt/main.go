package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/glove_controller/internal/app"
	"github.com/relabs-tech/glove_controller/internal/config"
)

func main() {
	configPath := flag.String("config", "./glove_config.txt", "path to configuration file")
	showIMU := flag.Bool("imu", false, "also print raw IMU samples")
	flag.Parse()

	log.Println("starting glove console (MQTT subscriber)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunConsoleMQTT(ctx, *showIMU); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
