package service

import (
	"crypto/rand"
	"fmt"
)

const (
	invoiceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	invoiceLength   = 10
)

// generateInvoiceNumber produces a 10-character upper-alphanumeric invoice
// number. Uniqueness is enforced by the database; collisions retry the whole
// payment transaction with a fresh number.
func generateInvoiceNumber() (string, error) {
	buf := make([]byte, invoiceLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate invoice number: %w", err)
	}
	for i, b := range buf {
		buf[i] = invoiceAlphabet[int(b)%len(invoiceAlphabet)]
	}
	return string(buf), nil
}
