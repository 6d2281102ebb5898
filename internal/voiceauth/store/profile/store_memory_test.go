package profile

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"voicegate/internal/voiceauth/ports"
)

type InMemoryStoreSuite struct {
	StoreContractSuite
}

func TestInMemoryStoreSuite(t *testing.T) {
	s := new(InMemoryStoreSuite)
	s.newStore = func() ports.ProfileStore { return NewInMemory() }
	suite.Run(t, s)
}
