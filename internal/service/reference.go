package service

import (
	"fmt"
	"gw-teller-ledger/internal/models"
	"math/rand/v2"
	"time"
)

// ReferenceGenerator формирует референс вида REM123456781234:
// префикс типа, 8 цифр от времени, 4 случайные цифры
type ReferenceGenerator struct {
	now    func() time.Time
	random func(n int) int
}

func NewReferenceGenerator() *ReferenceGenerator {
	return &ReferenceGenerator{
		now:    time.Now,
		random: rand.IntN,
	}
}

func (g *ReferenceGenerator) Generate(t models.TransactionType) string {
	timePart := g.now().UnixMicro() % 100_000_000
	return fmt.Sprintf("%s%08d%04d", t.ReferencePrefix(), timePart, g.random(10_000))
}
