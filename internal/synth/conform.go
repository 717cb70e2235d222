package synth

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/csg33k/fuel-receipts/internal/domain"
)

var (
	reDigits6   = regexp.MustCompile(`^[0-9]{6}$`)
	reAlnum6    = regexp.MustCompile(`^[A-Z0-9]{6}$`)
	reDigits8   = regexp.MustCompile(`^[0-9]{8}$`)
	reDigits12  = regexp.MustCompile(`^[0-9]{12}$`)
	reTxn       = regexp.MustCompile(`^[1-9][0-9]{3,5}$`)
	reHex10     = regexp.MustCompile(`^[0-9A-F]{10}$`)
	reHex32     = regexp.MustCompile(`^[0-9A-F]{32}$`)
	reHex4      = regexp.MustCompile(`^[0-9A-F]{4}$`)
	reMasked    = regexp.MustCompile(`^X{12}[0-9]{4}$`)
	aidByTender = map[domain.TenderType]string{
		domain.Visa:            AIDVisa,
		domain.Mastercard:      AIDMastercard,
		domain.AmericanExpress: AIDAmex,
		domain.Interac:         AIDInterac,
	}
)

// Conforms checks every field of a against the format its tender requires.
// All violations are reported together.
func Conforms(a domain.SyntheticAuthorization) error {
	var errs []error
	check := func(name, value string, re *regexp.Regexp) {
		if !re.MatchString(value) {
			errs = append(errs, fmt.Errorf("%s %q does not match %s", name, value, re))
		}
	}

	check("terminal id", a.TerminalID, reDigits8)
	check("transaction number", a.TransactionNumber, reTxn)
	check("sequence number", a.SequenceNumber, reDigits6)
	if a.Tender == domain.Cash {
		if a.AuthCode != "" || a.MaskedCard != "" {
			errs = append(errs, errors.New("cash carries no card authorization"))
		}
		return errors.Join(errs...)
	}

	switch a.Tender {
	case domain.AmericanExpress, domain.TCH:
		check("auth code", a.AuthCode, reAlnum6)
	default:
		check("auth code", a.AuthCode, reDigits6)
	}
	check("reference number", a.ReferenceNumber, reDigits12)
	check("trace number", a.TraceNumber, reDigits6)
	check("masked card", a.MaskedCard, reMasked)

	if a.Tender.IsEMV() {
		if want := aidByTender[a.Tender]; a.AID != want {
			errs = append(errs, fmt.Errorf("aid %q, want %q", a.AID, want))
		}
		check("tvr", a.TVR, reHex10)
		check("iad", a.IAD, reHex32)
		check("tsi", a.TSI, reHex4)
		if a.ARC != "00" {
			errs = append(errs, fmt.Errorf("arc %q, want 00", a.ARC))
		}
	}
	return errors.Join(errs...)
}
