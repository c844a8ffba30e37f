package tokengenerator

import (
	"setpass/internal/core/domain/token"

	"github.com/google/uuid"
)

type UUID struct{}

func NewUUID() *UUID {
	return &UUID{}
}

func (g *UUID) GenerateToken() token.Token {
	return token.Token(uuid.New().String())
}
