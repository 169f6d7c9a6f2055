package main

import (
	"gw-teller-ledger/internal/app"
	"log"
)

func main() {
	archiver, err := app.NewArchiver()
	if err != nil {
		log.Fatalf("не удалось создать архиватор: %v", err)
	}

	if err := archiver.Run(); err != nil {
		log.Fatalf("ошибка при работе архиватора: %v", err)
	}
}
