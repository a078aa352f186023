// Package idgen produces invoice numbers and customer codes.
package idgen

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	InvoicePrefix  = "INV-"
	CustomerPrefix = "CUST-"
)

// InvoiceNumbers generates INV-<snowflake id>. Snowflake IDs are unique per node and
// strictly increasing within a node, so two API instances need distinct node numbers.
type InvoiceNumbers struct {
	node *snowflake.Node
}

// NewInvoiceNumbers creates a generator for node (0-1023)
func NewInvoiceNumbers(node int64) (*InvoiceNumbers, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("invalid snowflake node %d: %w", node, err)
	}
	return &InvoiceNumbers{node: n}, nil
}

// NextInvoiceNumber returns a new invoice number
func (g *InvoiceNumbers) NextInvoiceNumber() string {
	return InvoicePrefix + g.node.Generate().String()
}

// CustomerCodes generates CUST-<9 random digits>-<unix seconds>
type CustomerCodes struct {
	now func() time.Time
}

// NewCustomerCodes creates a customer code generator
func NewCustomerCodes() *CustomerCodes {
	return &CustomerCodes{now: time.Now}
}

// NextCustomerCode returns a new customer code
func (g *CustomerCodes) NextCustomerCode() string {
	return fmt.Sprintf("%s%09d-%d", CustomerPrefix, rand.Intn(1_000_000_000), g.now().Unix())
}
