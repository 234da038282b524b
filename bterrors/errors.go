// Package bterrors defines Botho's protocol-violation error category
// (spec §7), directly grounded on the teacher's blockdag ruleError/
// ErrorCode pattern: a small enum of named violation codes plus a
// RuleError carrying both the code and a human description.
package bterrors

import "fmt"

// ErrorCode identifies a specific kind of protocol violation.
type ErrorCode int

const (
	ErrUnknown ErrorCode = iota

	// Block-level violations.
	ErrBadBlockHeight
	ErrBadPrevHash
	ErrHighHash
	ErrBadMerkleRoot
	ErrBlockTimestampTooOld
	ErrBlockTimestampTooNew
	ErrDuplicateBlock
	ErrUnknownParent

	// Transaction-level violations.
	ErrInvalidRingSignature
	ErrKeyImageReuse
	ErrFeeTooLow
	ErrInvalidClusterTagVector
	ErrTransactionExpired
	ErrMissingUtxo
	ErrDuplicateTxInRing

	// Decoy-selector violations.
	ErrEmptyUtxoPool
	ErrInvalidRingSize
	ErrZeroAgeReal
	ErrInsufficientCandidates

	// Lottery violations.
	ErrLotterySeedMismatch
	ErrLotteryWinnerMismatch
	ErrLotteryPayoutMismatch

	// Wallet/address violations.
	ErrInvalidAddress
	ErrInvalidSubaddressDerivationPath
	ErrWalletDecryptFailed
)

var errorCodeStrings = map[ErrorCode]string{
	ErrUnknown:                         "ErrUnknown",
	ErrBadBlockHeight:                  "ErrBadBlockHeight",
	ErrBadPrevHash:                     "ErrBadPrevHash",
	ErrHighHash:                        "ErrHighHash",
	ErrBadMerkleRoot:                   "ErrBadMerkleRoot",
	ErrBlockTimestampTooOld:            "ErrBlockTimestampTooOld",
	ErrBlockTimestampTooNew:            "ErrBlockTimestampTooNew",
	ErrDuplicateBlock:                  "ErrDuplicateBlock",
	ErrUnknownParent:                   "ErrUnknownParent",
	ErrInvalidRingSignature:            "ErrInvalidRingSignature",
	ErrKeyImageReuse:                   "ErrKeyImageReuse",
	ErrFeeTooLow:                       "ErrFeeTooLow",
	ErrInvalidClusterTagVector:         "ErrInvalidClusterTagVector",
	ErrTransactionExpired:              "ErrTransactionExpired",
	ErrMissingUtxo:                     "ErrMissingUtxo",
	ErrDuplicateTxInRing:               "ErrDuplicateTxInRing",
	ErrEmptyUtxoPool:                   "ErrEmptyUtxoPool",
	ErrInvalidRingSize:                 "ErrInvalidRingSize",
	ErrZeroAgeReal:                     "ErrZeroAgeReal",
	ErrInsufficientCandidates:          "ErrInsufficientCandidates",
	ErrLotterySeedMismatch:             "ErrLotterySeedMismatch",
	ErrLotteryWinnerMismatch:           "ErrLotteryWinnerMismatch",
	ErrLotteryPayoutMismatch:           "ErrLotteryPayoutMismatch",
	ErrInvalidAddress:                  "ErrInvalidAddress",
	ErrInvalidSubaddressDerivationPath: "ErrInvalidSubaddressDerivationPath",
	ErrWalletDecryptFailed:             "ErrWalletDecryptFailed",
}

// String returns the name of the error code, or a placeholder for unknown
// values (teacher blockdag.ErrorCode.String convention).
func (e ErrorCode) String() string {
	if s, ok := errorCodeStrings[e]; ok {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// RuleError identifies a rule violation, carrying both the error code and
// a human-readable description.
type RuleError struct {
	Code        ErrorCode
	Description string
}

// Error satisfies the error interface, returning just the description so
// wrapped contexts (via github.com/pkg/errors) read naturally.
func (e RuleError) Error() string {
	return e.Description
}

// New constructs a RuleError with the given code and formatted message.
func New(code ErrorCode, format string, args ...interface{}) RuleError {
	return RuleError{Code: code, Description: fmt.Sprintf(format, args...)}
}

// Is reports whether err is a RuleError with the given code, for use with
// errors.Is-style code-based dispatch.
func Is(err error, code ErrorCode) bool {
	re, ok := err.(RuleError)
	if !ok {
		return false
	}
	return re.Code == code
}

// QuotaError is the resource-exhaustion category (spec §7): rejected with
// remaining-quota information attached.
type QuotaError struct {
	Kind      string
	Remaining int
}

func (e QuotaError) Error() string {
	return fmt.Sprintf("%s quota exhausted (%d remaining)", e.Kind, e.Remaining)
}

// RateLimitError is the rate-limit category (spec §7): carries a
// violations/remaining pair so callers (e.g. wallet UIs) can display
// remaining attempts before lockout.
type RateLimitError struct {
	Violations int
	Remaining  int
}

func (e RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: %d violations, %d attempts remaining", e.Violations, e.Remaining)
}
