package main

import (
	"github.com/fluxmart/order/internal/app"
	"github.com/fluxmart/order/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
