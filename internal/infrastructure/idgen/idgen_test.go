package idgen

import (
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceNumbers_Unique(t *testing.T) {
	gen, err := NewInvoiceNumbers(1)
	require.NoError(t, err)

	const workers, perWorker = 8, 500
	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, workers*perWorker)
		wg   sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				n := gen.NextInvoiceNumber()
				mu.Lock()
				seen[n] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
	for n := range seen {
		assert.True(t, strings.HasPrefix(n, InvoicePrefix))
		break
	}
}

func TestNewInvoiceNumbers_InvalidNode(t *testing.T) {
	_, err := NewInvoiceNumbers(5000)
	assert.Error(t, err)
}

func TestCustomerCodes_Format(t *testing.T) {
	gen := NewCustomerCodes()
	gen.now = func() time.Time { return time.Unix(1700000000, 0) }

	code := gen.NextCustomerCode()
	assert.Regexp(t, regexp.MustCompile(`^CUST-\d{9}-1700000000$`), code)
}
