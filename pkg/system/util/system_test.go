//go:build linux

package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSystemSummary(t *testing.T) {
	host, kernel, cpus, mem := SystemSummary()
	assert.NotEmpty(t, host)
	assert.NotEqual(t, "unknown", kernel)
	assert.NotEqual(t, "0", cpus)
	assert.NotEqual(t, "unknown", mem)
}
