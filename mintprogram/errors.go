package mintprogram

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Token metadata program error codes that matter to the issuance flow.
var ProgramErrors = map[int]string{
	0x0a: "Metadata account already initialized",
	0x3a: "Update authority mismatch",
	0x08: "Name too long",
	0x09: "Symbol too long",
	0x0b: "URI too long",
}

// Recognized error conditions. The RPC layer reports failures as strings, so
// classification is substring-based; the set of recognized phrasings is kept
// here so behavior stays centralized and testable.
var (
	timeoutPhrases = []string{
		"timeout waiting for confirmation",
		"context deadline exceeded",
	}
	alreadyExistsPhrases = []string{
		"already in use",
		"already exists",
		"already initialized",
	}
	transientPhrases = []string{
		"BlockhashNotFound",
		"Blockhash not found",
		"connection refused",
		"i/o timeout",
		"429",
	}
)

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// IsConfirmationTimeout reports whether the error is a confirmation timeout:
// the submission likely landed but could not be verified in time.
func IsConfirmationTimeout(err error) bool {
	return err != nil && containsAny(err.Error(), timeoutPhrases)
}

// IsAlreadyExists reports whether the error means the target account already
// exists, which a retried or duplicate attempt produces.
func IsAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	if containsAny(err.Error(), alreadyExistsPhrases) {
		return true
	}
	if code := ExtractErrorCode(err); code != nil && *code == 0x0a {
		return true
	}
	return false
}

// IsTransient reports whether the error is worth retrying with a fresh
// blockhash.
func IsTransient(err error) bool {
	return err != nil && containsAny(err.Error(), transientPhrases)
}

// IsInsufficientFunds matches the cluster's insufficient-balance phrasings.
func IsInsufficientFunds(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "insufficient funds") || strings.Contains(s, "insufficient lamports")
}

// ExtractErrorCode pulls a custom program error code out of an RPC error
// string, trying the JSON shape first and hex notation second.
func ExtractErrorCode(err error) *int {
	if err == nil {
		return nil
	}
	errStr := err.Error()

	patterns := []string{
		`"Custom":\s*(\d+)`,
		`"Custom":\s*"(\d+)"`,
		`Custom:\s*(\d+)`,
	}
	for _, pattern := range patterns {
		if matches := regexp.MustCompile(pattern).FindStringSubmatch(errStr); len(matches) > 1 {
			if code, err := strconv.Atoi(matches[1]); err == nil {
				return &code
			}
		}
	}

	if matches := regexp.MustCompile(`custom program error: 0x([0-9a-fA-F]+)`).FindStringSubmatch(errStr); len(matches) > 1 {
		if code, err := strconv.ParseInt(matches[1], 16, 64); err == nil {
			intCode := int(code)
			return &intCode
		}
	}

	return nil
}

// ParseRPCError formats an RPC failure for display.
func ParseRPCError(err error) string {
	if err == nil {
		return ""
	}
	errStr := err.Error()

	if containsAny(errStr, transientPhrases[:2]) {
		return "Transaction expired. The blockhash is no longer valid. Please try again."
	}

	if code := ExtractErrorCode(err); code != nil {
		if msg, ok := ProgramErrors[*code]; ok {
			return msg
		}
		return fmt.Sprintf("Custom program error code: %d", *code)
	}

	if strings.Contains(errStr, "simulation failed") {
		return "Transaction simulation failed. Check program logs for details."
	}
	if IsInsufficientFunds(err) {
		return "Insufficient SOL balance to pay for transaction"
	}

	if len(errStr) > 300 {
		return errStr[:300] + "..."
	}
	return errStr
}
