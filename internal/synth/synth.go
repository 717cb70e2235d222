// Package synth fabricates format-valid payment-network metadata for
// receipts: authorization codes, terminal and reference numbers, EMV tags
// and a masked card number. Nothing here talks to a real network.
package synth

import (
	"math/rand/v2"
	"strings"

	"github.com/csg33k/fuel-receipts/internal/domain"
)

// Source is the random source the generator draws from. *rand.Rand
// satisfies it.
type Source interface {
	IntN(n int) int
}

// NewSeeded returns a deterministic source for tests and reproducible output.
func NewSeeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewRandom returns a source seeded from the runtime's random generator.
func NewRandom() Source {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Application identifiers per card network.
const (
	AIDVisa       = "A0000000031010"
	AIDMastercard = "A0000000041010"
	AIDAmex       = "A000000025010801"
	AIDInterac    = "A0000002771010"
)

const (
	digits   = "0123456789"
	hexChars = "0123456789ABCDEF"
	alnum    = "ABCDEFGHJKLMNPQRSTUVWXYZ0123456789"
)

var tsiValues = []string{"E800", "6800", "F800"}

// Generator draws authorizations from a Source. It is not safe for
// concurrent use; create one per transaction.
type Generator struct {
	src Source
}

// New returns a generator over src. A nil src is replaced with NewRandom().
func New(src Source) *Generator {
	if src == nil {
		src = NewRandom()
	}
	return &Generator{src: src}
}

func (g *Generator) draw(alphabet string, n int) string {
	var b strings.Builder
	b.Grow(n)
	for range n {
		b.WriteByte(alphabet[g.src.IntN(len(alphabet))])
	}
	return b.String()
}

// between returns a decimal string of length in [lo, hi] with no leading zero.
func (g *Generator) between(lo, hi int) string {
	n := lo + g.src.IntN(hi-lo+1)
	return string(digits[1+g.src.IntN(9)]) + g.draw(digits, n-1)
}

// Synthesize fabricates the authorization for one transaction. cardLast4 is
// masked with MaskCard; when it carries no digits a random suffix is drawn.
func (g *Generator) Synthesize(t domain.TenderType, cardLast4 string) domain.SyntheticAuthorization {
	a := domain.SyntheticAuthorization{
		Tender:            t,
		TerminalID:        g.draw(digits, 8),
		TransactionNumber: g.between(4, 6),
		SequenceNumber:    g.draw(digits, 6),
	}
	if t == domain.Cash {
		return a
	}

	if onlyDigits(cardLast4) == "" {
		cardLast4 = g.draw(digits, 4)
	}
	a.MaskedCard = MaskCard(cardLast4)
	a.ReferenceNumber = g.draw(digits, 12)
	a.TraceNumber = g.draw(digits, 6)
	a.ResponseText = "APPROVED"

	switch t {
	case domain.AmericanExpress, domain.TCH:
		a.AuthCode = g.draw(alnum, 6)
	default:
		a.AuthCode = g.draw(digits, 6)
	}

	switch t {
	case domain.Visa:
		a.AppLabel, a.AID = "VISA CREDIT", AIDVisa
	case domain.Mastercard:
		a.AppLabel, a.AID = "MASTERCARD", AIDMastercard
	case domain.AmericanExpress:
		a.AppLabel, a.AID = "AMERICAN EXPRESS", AIDAmex
	case domain.Interac:
		a.AppLabel, a.AID = "INTERAC", AIDInterac
		a.AccountType = "CHEQUING"
		if g.src.IntN(4) == 0 {
			a.AccountType = "SAVINGS"
		}
		a.ResponseText = "APPROVED - THANK YOU"
	case domain.EFS:
		a.AppLabel = "EFS FLEET"
	case domain.TCH:
		a.AppLabel = "TCH FLEET"
	}

	if t.IsEMV() {
		a.TVR = g.draw(hexChars, 10)
		a.IAD = g.draw(hexChars, 32)
		a.TSI = tsiValues[g.src.IntN(len(tsiValues))]
		a.ARC = "00"
	}
	return a
}

// MaskCard keeps only the last four digits of input. Non-digits are
// discarded and short input is left-padded with zeros.
func MaskCard(input string) string {
	d := onlyDigits(input)
	if len(d) > 4 {
		d = d[len(d)-4:]
	}
	return strings.Repeat("X", 12) + strings.Repeat("0", 4-len(d)) + d
}

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
