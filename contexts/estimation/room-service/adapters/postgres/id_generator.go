package postgresadapter

import (
	"context"
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"

	"pointdeck/contexts/estimation/room-service/domain/entities"
)

// UUIDGenerator creates stable UUIDv4 identifiers for rooms and events.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// Ambiguous glyphs are left out so codes survive being read aloud.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeGenerator mints random join codes from a reduced alphabet.
type CodeGenerator struct{}

func (CodeGenerator) NewCode(length int) string {
	if length <= 0 {
		length = entities.RoomCodeLength
	}
	max := big.NewInt(int64(len(codeAlphabet)))
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			code[i] = codeAlphabet[0]
			continue
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code)
}
