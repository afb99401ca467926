package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefixesListsEveryMount(t *testing.T) {
	assert.Equal(t, []string{"/api/trees", "/healthz"}, Prefixes())
}

func TestRegisterTwicePanics(t *testing.T) {
	assert.Panics(t, func() { Register("/healthz", registerHealthz) })
}
