package services

import (
	"crypto/rand"
	"fmt"

	"github.com/nimasrn/hire-gateway/internal/model"
)

const referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// maxUnbiasedByte is the largest multiple of len(referenceAlphabet) that
// fits in a byte; bytes at or above it are redrawn.
const maxUnbiasedByte = 256 - 256%len(referenceAlphabet)

type ReferenceGenerator interface {
	Generate() (string, error)
}

// RandomReferenceGenerator draws billing references from crypto/rand.
type RandomReferenceGenerator struct{}

func (RandomReferenceGenerator) Generate() (string, error) {
	out := make([]byte, 0, model.ReferenceLength)
	buf := make([]byte, model.ReferenceLength*2)

	for len(out) < model.ReferenceLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("reference: %w", err)
		}
		for _, b := range buf {
			if int(b) >= maxUnbiasedByte {
				continue
			}
			out = append(out, referenceAlphabet[int(b)%len(referenceAlphabet)])
			if len(out) == model.ReferenceLength {
				break
			}
		}
	}

	return string(out), nil
}
