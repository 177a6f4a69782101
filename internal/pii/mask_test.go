package pii

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskValue_PerKindFormats(t *testing.T) {
	cases := []struct {
		kind  Kind
		value string
		want  string
	}{
		{KindEmail, "jane.doe@example.com", "j***@example.com"},
		{KindSSN, "123-45-6789", "***-**-6789"},
		{KindCreditCard, "4111-1111-1111-1111", "****-****-****-1111"},
		{KindPhone, "(555) 123-4567", "(***) ***-4567"},
		{KindName, "John Smith", "J*** S***"},
		{KindAccount, "998877665544", "****5544"},
		{KindIP, "192.168.1.10", "192.168.***.***"},
		{KindAddress, "42 Main Street", "[REDACTED]"},
		{KindDOB, "1990-01-01", "[REDACTED]"},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, maskValue(c.kind, c.value), "kind=%s", c.kind)
	}
}
